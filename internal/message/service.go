package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"presence-chat/internal/config"
	"presence-chat/internal/errs"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Draft holds the client-editable fields of a message
type Draft struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required"`
	Kind Kind   `json:"type" validate:"required,oneof=message private_message"`
}

// PresenceChecker reports whether a participant is currently registered
type PresenceChecker interface {
	IsActive(ctx context.Context, name string) (bool, error)
}

// Service is the message store
type Service interface {
	Send(ctx context.Context, from string, d Draft) (*Message, error)
	Edit(ctx context.Context, id, editor string, d Draft) (*Message, error)
	Delete(ctx context.Context, id, requester string) error
	ListVisible(ctx context.Context, user string, limit int) ([]Message, error)
	// AppendStatus writes a system status message addressed to the room
	AppendStatus(ctx context.Context, from, text string) error
}

// Option customises a service
type Option func(*service)

// WithClock replaces time.Now for message timestamps
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithSendLimiter counts accepted sends against allow; a false answer
// rejects the message with errs.ErrRateLimited
func WithSendLimiter(allow func(from string) bool) Option {
	return func(s *service) { s.allow = allow }
}

type service struct {
	repo     Repository
	presence PresenceChecker
	metrics  *config.ServerMetrics
	log      *slog.Logger
	now      func() time.Time
	allow    func(from string) bool
}

// NewService creates a new message service
func NewService(repo Repository, presence PresenceChecker, metrics *config.ServerMetrics, log *slog.Logger, opts ...Option) Service {
	s := &service{
		repo:     repo,
		presence: presence,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
		allow:    func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send appends a broadcast or private message from an active participant
func (s *service) Send(ctx context.Context, from string, d Draft) (*Message, error) {
	active, err := s.presence.IsActive(ctx, from)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, fmt.Errorf("%w: %q is not in the room", errs.ErrUnknownSender, from)
	}

	if err := validate.Struct(d); err != nil {
		return nil, errs.FromValidation(err)
	}

	if !s.allow(from) {
		return nil, fmt.Errorf("%w: %q", errs.ErrRateLimited, from)
	}

	msg := &Message{
		From: from,
		To:   d.To,
		Text: d.Text,
		Kind: d.Kind,
		Time: FormatTime(s.now()),
	}
	if err := s.repo.Insert(ctx, msg); err != nil {
		return nil, err
	}

	s.metrics.IncrementMessages()
	s.log.Debug("💬 Message sent", "id", msg.ID, "from", from, "to", d.To, "type", d.Kind)
	return msg, nil
}

// Edit overwrites the editable fields of a message owned by editor
func (s *service) Edit(ctx context.Context, id, editor string, d Draft) (*Message, error) {
	if err := validate.Struct(d); err != nil {
		return nil, errs.FromValidation(err)
	}

	msg, err := s.owned(ctx, id, editor)
	if err != nil {
		return nil, err
	}

	msg.To = d.To
	msg.Text = d.Text
	msg.Kind = d.Kind
	msg.Time = FormatTime(s.now())

	if err := s.repo.Update(ctx, msg); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("message %s: %w", id, errs.ErrNotFound)
		}
		return nil, err
	}

	s.metrics.IncrementEdits()
	s.log.Debug("✏️ Message edited", "id", id, "editor", editor)
	return msg, nil
}

// Delete permanently removes a message owned by requester
func (s *service) Delete(ctx context.Context, id, requester string) error {
	if _, err := s.owned(ctx, id, requester); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("message %s: %w", id, errs.ErrNotFound)
		}
		return err
	}

	s.metrics.IncrementDeletes()
	s.log.Debug("🗑️ Message deleted", "id", id, "requester", requester)
	return nil
}

// ListVisible returns what user may read, most recent limit entries when limit > 0
func (s *service) ListVisible(ctx context.Context, user string, limit int) ([]Message, error) {
	if limit < 0 {
		limit = 0
	}
	return s.repo.ListVisible(ctx, user, limit)
}

// AppendStatus writes a join or leave notice; from need not be active
func (s *service) AppendStatus(ctx context.Context, from, text string) error {
	msg := &Message{
		From: from,
		To:   BroadcastTarget,
		Text: text,
		Kind: KindStatus,
		Time: FormatTime(s.now()),
	}
	return s.repo.Insert(ctx, msg)
}

func (s *service) owned(ctx context.Context, id, actor string) (*Message, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("message %s: %w", id, errs.ErrNotFound)
		}
		return nil, err
	}
	if msg.From != actor {
		return nil, fmt.Errorf("message %s belongs to another participant: %w", id, errs.ErrUnauthorized)
	}
	return msg, nil
}
