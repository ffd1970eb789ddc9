//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=../mocks/mock_message_repository.go -package=mocks -mock_names=Repository=MockMessageRepository
package message

import (
	"context"
	"sync"

	"presence-chat/internal/errs"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository interface for message persistence
type Repository interface {
	// Insert appends msg and assigns its ID
	Insert(ctx context.Context, msg *Message) error
	// FindByID fails with errs.ErrNotFound for unknown or malformed ids
	FindByID(ctx context.Context, id string) (*Message, error)
	// Update overwrites to, text, type and time of msg.ID
	Update(ctx context.Context, msg *Message) error
	Delete(ctx context.Context, id string) error
	// ListVisible returns the messages user may read in insertion order,
	// keeping only the most recent limit entries when limit > 0
	ListVisible(ctx context.Context, user string, limit int) ([]Message, error)
}

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	messages []Message
	mutex    sync.RWMutex
}

// NewInMemoryRepository creates a new in-memory message repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Insert appends a message
func (r *InMemoryRepository) Insert(_ context.Context, msg *Message) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	msg.ID = primitive.NewObjectID().Hex()
	r.messages = append(r.messages, *msg)
	return nil
}

// FindByID retrieves a single message by ID
func (r *InMemoryRepository) FindByID(_ context.Context, id string) (*Message, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	msg, found := lo.Find(r.messages, func(m Message) bool { return m.ID == id })
	if !found {
		return nil, errs.ErrNotFound
	}
	return &msg, nil
}

// Update updates an existing message in place
func (r *InMemoryRepository) Update(_ context.Context, msg *Message) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, idx, found := lo.FindIndexOf(r.messages, func(m Message) bool { return m.ID == msg.ID })
	if !found {
		return errs.ErrNotFound
	}

	stored := &r.messages[idx]
	stored.To = msg.To
	stored.Text = msg.Text
	stored.Kind = msg.Kind
	stored.Time = msg.Time
	return nil
}

// Delete deletes a message by ID
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, idx, found := lo.FindIndexOf(r.messages, func(m Message) bool { return m.ID == id })
	if !found {
		return errs.ErrNotFound
	}
	r.messages = append(r.messages[:idx], r.messages[idx+1:]...)
	return nil
}

// ListVisible returns the messages user may read
func (r *InMemoryRepository) ListVisible(_ context.Context, user string, limit int) ([]Message, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	visible := lo.Filter(r.messages, func(m Message, _ int) bool { return m.VisibleTo(user) })
	if limit > 0 && len(visible) > limit {
		visible = visible[len(visible)-limit:]
	}
	return visible, nil
}
