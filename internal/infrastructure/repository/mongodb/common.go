// Package mongodb implements the messaging persistence interfaces on top of
// the MongoDB driver v2.
package mongodb

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dialog-app/dialog/internal/domain/errs"
)

// Collection names.
const (
	MessagesCollection = "messages"
	CountersCollection = "counters"
	UsersCollection    = "users"
)

// HandleMongoError converts a MongoDB error into a domain error.
// Returns:
//   - nil if err == nil
//   - errs.ErrNotFound if the document was not found
//   - errs.ErrAlreadyExists on a unique constraint violation
//   - a wrapped error otherwise
func HandleMongoError(err error, resourceType string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrNotFound
	}

	if mongo.IsDuplicateKeyError(err) {
		return errs.ErrAlreadyExists
	}

	return fmt.Errorf("failed to operate on %s: %w", resourceType, err)
}

// FindWithSort returns find options with pagination and a compound sort on
// the given field plus _id as tiebreaker, so pages stay stable when several
// documents share a timestamp.
func FindWithSort(offset, limit int, sortField string, sortOrder int) *options.FindOptionsBuilder {
	return options.Find().
		SetSort(bson.D{{Key: sortField, Value: sortOrder}, {Key: "_id", Value: sortOrder}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
}

// ReturnAfterUpdate returns findOneAndUpdate options that yield the post-image.
func ReturnAfterUpdate() *options.FindOneAndUpdateOptionsBuilder {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
