package presence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"presence-chat/internal/config"
	"presence-chat/internal/participant"

	"github.com/samber/lo"
)

// LeaveNotice is the text of the status message written on eviction
const LeaveNotice = "left the room"

// Registry is the part of the presence registry the sweeper mutates
type Registry interface {
	ListStale(ctx context.Context, cutoff time.Time) ([]participant.Participant, error)
	EvictStale(ctx context.Context, cutoff time.Time, names ...string) ([]string, error)
}

// Option customises a sweeper
type Option func(*Sweeper)

// WithClock replaces time.Now when computing the staleness cutoff
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// OnEvict registers a callback run with the names evicted by each cycle
func OnEvict(fn func(names ...string)) Option {
	return func(s *Sweeper) { s.hooks = append(s.hooks, fn) }
}

// Sweeper evicts participants that stopped sending heartbeats
type Sweeper struct {
	registry   Registry
	status     participant.StatusWriter
	metrics    *config.ServerMetrics
	log        *slog.Logger
	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time
	hooks      []func(names ...string)
}

// NewSweeper creates a sweeper running every interval and evicting
// participants silent for longer than staleAfter
func NewSweeper(registry Registry, status participant.StatusWriter, metrics *config.ServerMetrics, log *slog.Logger, interval, staleAfter time.Duration, opts ...Option) *Sweeper {
	s := &Sweeper{
		registry:   registry,
		status:     status,
		metrics:    metrics,
		log:        log,
		interval:   interval,
		staleAfter: staleAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on every tick until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("🧹 Sweeper started", "interval", s.interval, "stale_after", s.staleAfter)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("🧹 Sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.log.Error("❌ Sweep failed, retrying next tick", "err", err)
			}
		}
	}
}

// Sweep runs one cycle and returns the evicted names. Every stale
// participant gets its leave notice before the batch eviction; any failure
// aborts the cycle. A participant whose heartbeat lands after its notice is
// kept.
func (s *Sweeper) Sweep(ctx context.Context) ([]string, error) {
	cutoff := s.now().Add(-s.staleAfter)

	stale, err := s.registry.ListStale(ctx, cutoff)
	if err != nil {
		s.metrics.RecordSweep(0, true)
		return nil, fmt.Errorf("list stale participants: %w", err)
	}
	if len(stale) == 0 {
		s.metrics.RecordSweep(0, false)
		return nil, nil
	}

	names := lo.Map(stale, func(p participant.Participant, _ int) string { return p.Name })

	for _, name := range names {
		if err := s.status.AppendStatus(ctx, name, LeaveNotice); err != nil {
			s.metrics.RecordSweep(0, true)
			return nil, fmt.Errorf("leave notice for %q: %w", name, err)
		}
	}

	evicted, err := s.registry.EvictStale(ctx, cutoff, names...)
	if err != nil {
		s.metrics.RecordSweep(0, true)
		return nil, fmt.Errorf("evict participants: %w", err)
	}

	for _, hook := range s.hooks {
		hook(evicted...)
	}

	s.metrics.RecordSweep(len(evicted), false)
	s.log.Info("🧹 Sweep evicted stale participants", "count", len(evicted), "names", evicted)
	return evicted, nil
}
