//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=../mocks/mock_participant_repository.go -package=mocks -mock_names=Repository=MockParticipantRepository
package participant

import (
	"context"
	"sort"
	"sync"
	"time"

	"presence-chat/internal/errs"
)

// Repository persists the set of active participants
type Repository interface {
	// Create inserts p, failing with errs.ErrConflict when the name is taken
	Create(ctx context.Context, p Participant) error
	// FindByName fails with errs.ErrNotFound when no such participant exists
	FindByName(ctx context.Context, name string) (*Participant, error)
	List(ctx context.Context) ([]Participant, error)
	// Touch sets LastSeen, failing with errs.ErrNotFound for unknown names
	Touch(ctx context.Context, name string, at time.Time) error
	// ListStale returns participants with LastSeen strictly before cutoff
	ListStale(ctx context.Context, cutoff time.Time) ([]Participant, error)
	// DeleteMany removes every listed name; absent names are ignored
	DeleteMany(ctx context.Context, names []string) (int64, error)
	// DeleteStale removes the listed names still last seen before cutoff and
	// returns the names it removed
	DeleteStale(ctx context.Context, names []string, cutoff time.Time) ([]string, error)
}

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	participants map[string]Participant
	mutex        sync.RWMutex
}

// NewInMemoryRepository creates a new in-memory participant repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		participants: make(map[string]Participant),
	}
}

// Create creates a new participant
func (r *InMemoryRepository) Create(_ context.Context, p Participant) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.participants[p.Name]; exists {
		return errs.ErrConflict
	}
	r.participants[p.Name] = p
	return nil
}

// FindByName gets a participant by name
func (r *InMemoryRepository) FindByName(_ context.Context, name string) (*Participant, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	p, exists := r.participants[name]
	if !exists {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

// List returns all participants sorted by name
func (r *InMemoryRepository) List(_ context.Context) ([]Participant, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	list := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// Touch updates a participant's last seen time
func (r *InMemoryRepository) Touch(_ context.Context, name string, at time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, exists := r.participants[name]
	if !exists {
		return errs.ErrNotFound
	}
	p.LastSeen = at
	r.participants[name] = p
	return nil
}

// ListStale returns participants last seen before cutoff
func (r *InMemoryRepository) ListStale(_ context.Context, cutoff time.Time) ([]Participant, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var stale []Participant
	for _, p := range r.participants {
		if p.IsStale(cutoff) {
			stale = append(stale, p)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].Name < stale[j].Name })
	return stale, nil
}

// DeleteMany removes participants by name
func (r *InMemoryRepository) DeleteMany(_ context.Context, names []string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var deleted int64
	for _, name := range names {
		if _, exists := r.participants[name]; exists {
			delete(r.participants, name)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteStale removes listed participants unless they were seen since cutoff
func (r *InMemoryRepository) DeleteStale(_ context.Context, names []string, cutoff time.Time) ([]string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var deleted []string
	for _, name := range names {
		if p, exists := r.participants[name]; exists && p.IsStale(cutoff) {
			delete(r.participants, name)
			deleted = append(deleted, name)
		}
	}
	return deleted, nil
}
