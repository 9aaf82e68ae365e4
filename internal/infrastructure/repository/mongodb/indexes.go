package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates the indexes the message store queries rely on.
// Safe to call on every startup; MongoDB treats existing indexes as no-ops.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	messages := db.Collection(MessagesCollection)

	_, err := messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// mailbox listing: party + own deleted flag, newest first
			Keys: bson.D{
				{Key: "sender_id", Value: 1},
				{Key: "sender_deleted", Value: 1},
				{Key: "sent_at", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "recipient_id", Value: 1},
				{Key: "recipient_deleted", Value: 1},
				{Key: "sent_at", Value: -1},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	users := db.Collection(UsersCollection)
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	return nil
}
