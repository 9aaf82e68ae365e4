package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
)

// MongoUnitOfWork implements messaging.UnitOfWork over a client session.
// Store calls made with the context passed to fn join the transaction, so a
// use case's reads and writes commit (or vanish) as one unit. WithTransaction
// retries transient errors and write conflicts, which is what serializes two
// parties deleting the same message at once.
//
// Requires a replica set or sharded deployment; standalone MongoDB does not
// support transactions.
type MongoUnitOfWork struct {
	client *mongo.Client
}

// NewMongoUnitOfWork creates a unit of work bound to the client.
func NewMongoUnitOfWork(client *mongo.Client) *MongoUnitOfWork {
	return &MongoUnitOfWork{client: client}
}

// Execute runs fn inside a single transaction with majority read/write concern.
func (u *MongoUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := u.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	}, txnOpts)

	return err
}
