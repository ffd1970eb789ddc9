package message

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"presence-chat/internal/database"
	"presence-chat/internal/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements Repository interface using MongoDB
type MongoRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

// NewMongoRepository creates a new MongoDB message repository
func NewMongoRepository(db *database.MongoDB, timeout time.Duration) *MongoRepository {
	return &MongoRepository{
		collection: db.GetCollection(database.MessagesCollection),
		timeout:    timeout,
	}
}

// Insert saves a message to MongoDB
func (r *MongoRepository) Insert(ctx context.Context, msg *Message) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc Document
	doc.FromMessage(msg)

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("%w: insert message: %v", errs.ErrStoreUnavailable, err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid.Hex()
	}
	return nil
}

// FindByID retrieves a single message by ID
func (r *MongoRepository) FindByID(ctx context.Context, id string) (*Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc Document
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find message: %v", errs.ErrStoreUnavailable, err)
	}

	msg := doc.ToMessage()
	return &msg, nil
}

// Update updates an existing message
func (r *MongoRepository) Update(ctx context.Context, msg *Message) error {
	oid, err := primitive.ObjectIDFromHex(msg.ID)
	if err != nil {
		return errs.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"to":   msg.To,
		"text": msg.Text,
		"type": string(msg.Kind),
		"time": msg.Time,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("%w: update message: %v", errs.ErrStoreUnavailable, err)
	}
	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete deletes a message by ID
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("%w: delete message: %v", errs.ErrStoreUnavailable, err)
	}
	if result.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListVisible queries newest first so the limit keeps the most recent
// matches, then restores chronological order.
func (r *MongoRepository) ListVisible(ctx context.Context, user string, limit int) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"to": BroadcastTarget},
		bson.M{"type": string(KindBroadcast)},
		bson.M{"from": user},
		bson.M{"to": user},
	}}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find messages: %v", errs.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	messages := make([]Message, 0)
	for cursor.Next(ctx) {
		var doc Document
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decode message: %v", errs.ErrStoreUnavailable, err)
		}
		messages = append(messages, doc.ToMessage())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate messages: %v", errs.ErrStoreUnavailable, err)
	}

	slices.Reverse(messages)
	return messages, nil
}
