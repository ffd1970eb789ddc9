package participant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"presence-chat/internal/config"
	"presence-chat/internal/errs"

	"github.com/go-playground/validator/v10"
)

// JoinNotice is the text of the status message written when someone joins
const JoinNotice = "entered the room"

var validate = validator.New()

type joinRequest struct {
	Name string `validate:"required"`
}

// StatusWriter appends system status messages to the message store
type StatusWriter interface {
	AppendStatus(ctx context.Context, from, text string) error
}

// Service is the presence registry
type Service interface {
	Join(ctx context.Context, name string) (*Participant, error)
	Heartbeat(ctx context.Context, name string) error
	ListActive(ctx context.Context) ([]Participant, error)
	IsActive(ctx context.Context, name string) (bool, error)
	ListStale(ctx context.Context, cutoff time.Time) ([]Participant, error)
	// Evict removes participants unconditionally; it is reserved for the sweeper
	Evict(ctx context.Context, names ...string) (int64, error)
	// EvictStale removes the listed participants not seen since cutoff and
	// returns the names actually removed
	EvictStale(ctx context.Context, cutoff time.Time, names ...string) ([]string, error)
}

// Option customises a service
type Option func(*service)

// WithClock replaces time.Now, used by tests to control staleness
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// service implements Service
type service struct {
	repo    Repository
	status  StatusWriter
	metrics *config.ServerMetrics
	log     *slog.Logger
	now     func() time.Time
}

// NewService creates a new participant service
func NewService(repo Repository, status StatusWriter, metrics *config.ServerMetrics, log *slog.Logger, opts ...Option) Service {
	s := &service{
		repo:    repo,
		status:  status,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Join registers name and announces it to the room. The participant insert
// happens before the status message; a failing announcement is not rolled back.
func (s *service) Join(ctx context.Context, name string) (*Participant, error) {
	name = strings.TrimSpace(name)
	if err := validate.Struct(joinRequest{Name: name}); err != nil {
		return nil, errs.FromValidation(err)
	}

	_, err := s.repo.FindByName(ctx, name)
	switch {
	case err == nil:
		return nil, fmt.Errorf("participant %q: %w", name, errs.ErrConflict)
	case !errors.Is(err, errs.ErrNotFound):
		return nil, err
	}

	p := Participant{Name: name, LastSeen: s.now()}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil, fmt.Errorf("participant %q: %w", name, errs.ErrConflict)
		}
		return nil, err
	}

	if err := s.status.AppendStatus(ctx, name, JoinNotice); err != nil {
		s.log.Error("❌ Join notice not written, participant stays registered", "name", name, "err", err)
		return nil, err
	}

	s.metrics.IncrementJoins()
	s.log.Info("👤 Participant joined", "name", name)
	return &p, nil
}

// Heartbeat refreshes the last seen time of name
func (s *service) Heartbeat(ctx context.Context, name string) error {
	if err := s.repo.Touch(ctx, name, s.now()); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("participant %q: %w", name, errs.ErrNotFound)
		}
		return err
	}

	s.metrics.IncrementHeartbeats()
	return nil
}

// ListActive returns all registered participants
func (s *service) ListActive(ctx context.Context) ([]Participant, error) {
	return s.repo.List(ctx)
}

// IsActive reports whether name is currently registered
func (s *service) IsActive(ctx context.Context, name string) (bool, error) {
	return NewDirectory(s.repo).IsActive(ctx, name)
}

// ListStale returns participants last seen before cutoff
func (s *service) ListStale(ctx context.Context, cutoff time.Time) ([]Participant, error) {
	return s.repo.ListStale(ctx, cutoff)
}

// Evict removes participants in one batch; evicting an absent name is a no-op
func (s *service) Evict(ctx context.Context, names ...string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}

	deleted, err := s.repo.DeleteMany(ctx, names)
	if err != nil {
		return 0, err
	}

	s.log.Info("👋 Participants evicted", "requested", len(names), "deleted", deleted)
	return deleted, nil
}

func (s *service) EvictStale(ctx context.Context, cutoff time.Time, names ...string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	evicted, err := s.repo.DeleteStale(ctx, names, cutoff)
	if err != nil {
		return nil, err
	}

	if kept := len(names) - len(evicted); kept > 0 {
		s.log.Debug("💓 Stale participants came back before eviction", "kept", kept)
	}
	s.log.Info("👋 Participants evicted", "requested", len(names), "deleted", len(evicted))
	return evicted, nil
}
