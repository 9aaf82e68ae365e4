package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dialog-app/dialog/internal/application/messaging"
	"github.com/dialog-app/dialog/internal/domain/errs"
	messagedomain "github.com/dialog-app/dialog/internal/domain/message"
	"github.com/dialog-app/dialog/internal/domain/uuid"
)

// MongoMessageStore implements messaging.MessageStore (application layer interface).
type MongoMessageStore struct {
	messages *mongo.Collection
	counters *mongo.Collection
}

// NewMongoMessageStore creates a message store over the given database.
func NewMongoMessageStore(db *mongo.Database) *MongoMessageStore {
	return &MongoMessageStore{
		messages: db.Collection(MessagesCollection),
		counters: db.Collection(CountersCollection),
	}
}

// messageDocument is the persistence shape of a message.
type messageDocument struct {
	ID                int64     `bson:"_id"`
	SenderID          string    `bson:"sender_id"`
	RecipientID       string    `bson:"recipient_id"`
	SenderUsername    string    `bson:"sender_username"`
	RecipientUsername string    `bson:"recipient_username"`
	Content           string    `bson:"content"`
	SentAt            time.Time `bson:"sent_at"`
	SenderDeleted     bool      `bson:"sender_deleted"`
	RecipientDeleted  bool      `bson:"recipient_deleted"`
}

// counterDocument backs the id sequence.
type counterDocument struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// NextID allocates the next message id from the counters collection.
// The sequence only ever grows, so ids of purged messages are never reused.
func (s *MongoMessageStore) NextID(ctx context.Context) (int64, error) {
	filter := bson.M{"_id": MessagesCollection}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}

	var doc counterDocument
	err := s.counters.FindOneAndUpdate(ctx, filter, update,
		ReturnAfterUpdate().SetUpsert(true),
	).Decode(&doc)
	if err != nil {
		return 0, HandleMongoError(err, "counter")
	}

	return doc.Seq, nil
}

// Save persists a message (create or update).
func (s *MongoMessageStore) Save(ctx context.Context, msg *messagedomain.Message) error {
	if msg == nil || msg.ID() <= 0 {
		return errs.ErrInvalidInput
	}

	doc := messageToDocument(msg)

	filter := bson.M{"_id": msg.ID()}
	update := bson.M{"$set": doc}
	_, err := s.messages.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	return HandleMongoError(err, "message")
}

// FindByID loads a message by id.
func (s *MongoMessageStore) FindByID(ctx context.Context, id int64) (*messagedomain.Message, error) {
	if id <= 0 {
		return nil, errs.ErrInvalidInput
	}

	var doc messageDocument
	err := s.messages.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return nil, HandleMongoError(err, "message")
	}

	return documentToMessage(&doc)
}

// MarkDeleted atomically sets one side's deleted flag and returns the updated
// message. Using findOneAndUpdate means a concurrent delete by the other
// party is always reflected in the returned post-image.
func (s *MongoMessageStore) MarkDeleted(
	ctx context.Context,
	id int64,
	side messagedomain.Side,
) (*messagedomain.Message, error) {
	if id <= 0 {
		return nil, errs.ErrInvalidInput
	}

	var field string
	switch side {
	case messagedomain.SideSender:
		field = "sender_deleted"
	case messagedomain.SideRecipient:
		field = "recipient_deleted"
	default:
		return nil, errs.ErrInvalidInput
	}

	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{field: true}}

	var doc messageDocument
	err := s.messages.FindOneAndUpdate(ctx, filter, update, ReturnAfterUpdate()).Decode(&doc)
	if err != nil {
		return nil, HandleMongoError(err, "message")
	}

	return documentToMessage(&doc)
}

// Delete permanently removes a fully deleted message. The filter requires
// both flags, so the purge can never hit a message a party still sees.
func (s *MongoMessageStore) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errs.ErrInvalidInput
	}

	filter := bson.M{
		"_id":               id,
		"sender_deleted":    true,
		"recipient_deleted": true,
	}
	result, err := s.messages.DeleteOne(ctx, filter)
	if err != nil {
		return HandleMongoError(err, "message")
	}

	if result.DeletedCount == 0 {
		return errs.ErrNotFound
	}

	return nil
}

// FindForUser returns one page of the user's visible messages plus the total
// count, sorted by sent_at (descending unless p.Ascending).
func (s *MongoMessageStore) FindForUser(
	ctx context.Context,
	userID uuid.UUID,
	scope messaging.Scope,
	p messaging.Pagination,
) ([]*messagedomain.Message, int, error) {
	if userID.IsZero() {
		return nil, 0, errs.ErrInvalidInput
	}

	filter := visibilityFilter(userID, scope)

	total, err := s.messages.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, HandleMongoError(err, "messages")
	}

	sortOrder := -1
	if p.Ascending {
		sortOrder = 1
	}
	opts := FindWithSort(p.Offset(), p.PageSize, "sent_at", sortOrder)

	cursor, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, HandleMongoError(err, "messages")
	}
	defer cursor.Close(ctx)

	messages, err := decodeMessages(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return messages, int(total), nil
}

// FindBetween returns the two-party conversation visible to userID, oldest first.
func (s *MongoMessageStore) FindBetween(
	ctx context.Context,
	userID, otherID uuid.UUID,
) ([]*messagedomain.Message, error) {
	if userID.IsZero() || otherID.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	filter := bson.M{"$or": bson.A{
		bson.M{
			"sender_id":      userID.String(),
			"recipient_id":   otherID.String(),
			"sender_deleted": false,
		},
		bson.M{
			"sender_id":         otherID.String(),
			"recipient_id":      userID.String(),
			"recipient_deleted": false,
		},
	}}

	opts := options.Find().
		SetSort(bson.D{{Key: "sent_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, HandleMongoError(err, "messages")
	}
	defer cursor.Close(ctx)

	return decodeMessages(ctx, cursor)
}

// visibilityFilter builds the mailbox filter: the user is a party and their
// own deleted flag is false, narrowed by scope.
func visibilityFilter(userID uuid.UUID, scope messaging.Scope) bson.M {
	inbox := bson.M{
		"recipient_id":      userID.String(),
		"recipient_deleted": false,
	}
	outbox := bson.M{
		"sender_id":      userID.String(),
		"sender_deleted": false,
	}

	switch scope {
	case messaging.ScopeInbox:
		return inbox
	case messaging.ScopeOutbox:
		return outbox
	default:
		return bson.M{"$or": bson.A{outbox, inbox}}
	}
}

func decodeMessages(ctx context.Context, cursor *mongo.Cursor) ([]*messagedomain.Message, error) {
	messages := make([]*messagedomain.Message, 0)
	for cursor.Next(ctx) {
		var doc messageDocument
		if decodeErr := cursor.Decode(&doc); decodeErr != nil {
			continue // skip corrupt documents
		}

		msg, docErr := documentToMessage(&doc)
		if docErr != nil {
			continue
		}

		messages = append(messages, msg)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return messages, nil
}

func messageToDocument(msg *messagedomain.Message) *messageDocument {
	return &messageDocument{
		ID:                msg.ID(),
		SenderID:          msg.SenderID().String(),
		RecipientID:       msg.RecipientID().String(),
		SenderUsername:    msg.SenderUsername(),
		RecipientUsername: msg.RecipientUsername(),
		Content:           msg.Content(),
		SentAt:            msg.SentAt().UTC(),
		SenderDeleted:     msg.SenderDeleted(),
		RecipientDeleted:  msg.RecipientDeleted(),
	}
}

func documentToMessage(doc *messageDocument) (*messagedomain.Message, error) {
	senderID, err := uuid.ParseUUID(doc.SenderID)
	if err != nil {
		return nil, fmt.Errorf("invalid sender id: %w", err)
	}
	recipientID, err := uuid.ParseUUID(doc.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient id: %w", err)
	}

	return messagedomain.Restore(
		doc.ID,
		senderID, recipientID,
		doc.SenderUsername, doc.RecipientUsername,
		doc.Content, doc.SentAt,
		doc.SenderDeleted, doc.RecipientDeleted,
	), nil
}
