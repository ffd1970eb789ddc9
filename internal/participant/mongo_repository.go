package participant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"presence-chat/internal/database"
	"presence-chat/internal/errs"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements Repository using MongoDB
type MongoRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

// NewMongoRepository creates a new MongoDB participant repository
func NewMongoRepository(db *database.MongoDB, timeout time.Duration) *MongoRepository {
	return &MongoRepository{
		collection: db.GetCollection(database.ParticipantsCollection),
		timeout:    timeout,
	}
}

// Create inserts a new participant; the unique name index turns a lost race into a conflict
func (r *MongoRepository) Create(ctx context.Context, p Participant) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc Document
	doc.FromParticipant(p)

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.ErrConflict
		}
		return fmt.Errorf("%w: insert participant: %v", errs.ErrStoreUnavailable, err)
	}
	return nil
}

// FindByName gets a participant by name
func (r *MongoRepository) FindByName(ctx context.Context, name string) (*Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc Document
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find participant: %v", errs.ErrStoreUnavailable, err)
	}

	p := doc.ToParticipant()
	return &p, nil
}

// List returns all participants sorted by name
func (r *MongoRepository) List(ctx context.Context) ([]Participant, error) {
	return r.find(ctx, bson.M{})
}

// Touch updates a participant's last seen time
func (r *MongoRepository) Touch(ctx context.Context, name string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"last_seen": at}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"name": name}, update)
	if err != nil {
		return fmt.Errorf("%w: update participant: %v", errs.ErrStoreUnavailable, err)
	}
	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListStale returns participants last seen before cutoff
func (r *MongoRepository) ListStale(ctx context.Context, cutoff time.Time) ([]Participant, error) {
	return r.find(ctx, bson.M{"last_seen": bson.M{"$lt": cutoff}})
}

// DeleteMany removes participants by name in one operation
func (r *MongoRepository) DeleteMany(ctx context.Context, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"name": bson.M{"$in": names}})
	if err != nil {
		return 0, fmt.Errorf("%w: delete participants: %v", errs.ErrStoreUnavailable, err)
	}
	return result.DeletedCount, nil
}

// DeleteStale removes the listed participants whose last_seen is still
// before cutoff. A heartbeat landing between the lookup and the delete keeps
// the participant but may still report its name.
func (r *MongoRepository) DeleteStale(ctx context.Context, names []string, cutoff time.Time) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	filter := bson.M{"name": bson.M{"$in": names}, "last_seen": bson.M{"$lt": cutoff}}
	stale, err := r.find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}
	staleNames := lo.Map(stale, func(p Participant, _ int) string { return p.Name })

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter["name"] = bson.M{"$in": staleNames}
	if _, err := r.collection.DeleteMany(ctx, filter); err != nil {
		return nil, fmt.Errorf("%w: delete stale participants: %v", errs.ErrStoreUnavailable, err)
	}
	return staleNames, nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%w: find participants: %v", errs.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	participants := make([]Participant, 0)
	for cursor.Next(ctx) {
		var doc Document
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decode participant: %v", errs.ErrStoreUnavailable, err)
		}
		participants = append(participants, doc.ToParticipant())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate participants: %v", errs.ErrStoreUnavailable, err)
	}
	return participants, nil
}
