// Package directory resolves usernames to stable identities. The users
// collection is owned by the external account system; messaging reads it and
// never writes.
package directory

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dialog-app/dialog/internal/domain/errs"
	"github.com/dialog-app/dialog/internal/domain/user"
	"github.com/dialog-app/dialog/internal/domain/uuid"
	"github.com/dialog-app/dialog/internal/infrastructure/repository/mongodb"
)

// MongoDirectory implements messaging.UserDirectory over the users collection.
type MongoDirectory struct {
	users *mongo.Collection
}

// NewMongoDirectory creates a directory over the given database.
func NewMongoDirectory(db *mongo.Database) *MongoDirectory {
	return &MongoDirectory{
		users: db.Collection(mongodb.UsersCollection),
	}
}

type userDocument struct {
	ID       string `bson:"_id"`
	Username string `bson:"username"`
}

// Resolve looks up a username, case-insensitively. Usernames are stored
// lower-cased with a unique index.
func (d *MongoDirectory) Resolve(ctx context.Context, username string) (user.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return user.User{}, errs.ErrInvalidInput
	}

	var doc userDocument
	err := d.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err != nil {
		return user.User{}, mongodb.HandleMongoError(err, "user")
	}

	id, err := uuid.ParseUUID(doc.ID)
	if err != nil {
		return user.User{}, fmt.Errorf("invalid user id: %w", err)
	}

	return user.New(id, doc.Username)
}
