package participant

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"presence-chat/internal/config"
	"presence-chat/internal/errs"

	"github.com/stretchr/testify/require"
)

type statusCall struct {
	from string
	text string
}

type recordingStatus struct {
	mu    sync.Mutex
	calls []statusCall
	err   error
}

func (r *recordingStatus) AppendStatus(_ context.Context, from, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, statusCall{from: from, text: text})
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(now *time.Time) (Service, *InMemoryRepository, *recordingStatus) {
	repo := NewInMemoryRepository()
	status := &recordingStatus{}
	svc := NewService(repo, status, config.NewServerMetrics(), discardLogger(),
		WithClock(func() time.Time { return *now }))
	return svc, repo, status
}

func TestService_Join(t *testing.T) {
	ctx := context.Background()

	t.Run("should register and announce the participant", func(t *testing.T) {
		req := require.New(t)
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		svc, _, status := newTestService(&now)

		p, err := svc.Join(ctx, "  ana ")

		req.NoError(err)
		req.Equal("ana", p.Name)
		req.Equal(now, p.LastSeen)
		req.Equal([]statusCall{{from: "ana", text: JoinNotice}}, status.calls)

		active, err := svc.ListActive(ctx)
		req.NoError(err)
		req.Len(active, 1)
	})

	t.Run("should reject a blank name", func(t *testing.T) {
		req := require.New(t)
		now := time.Now()
		svc, _, status := newTestService(&now)

		_, err := svc.Join(ctx, "   ")

		req.ErrorIs(err, errs.ErrValidation)
		req.Empty(status.calls)
	})

	t.Run("should keep names unique", func(t *testing.T) {
		req := require.New(t)
		now := time.Now()
		svc, _, status := newTestService(&now)

		_, err := svc.Join(ctx, "ana")
		req.NoError(err)
		_, err = svc.Join(ctx, "ana")

		req.ErrorIs(err, errs.ErrConflict)
		req.Len(status.calls, 1)
		active, err := svc.ListActive(ctx)
		req.NoError(err)
		req.Len(active, 1)
	})

	t.Run("should keep the participant when the notice fails", func(t *testing.T) {
		req := require.New(t)
		now := time.Now()
		svc, _, status := newTestService(&now)
		status.err = errs.ErrStoreUnavailable

		_, err := svc.Join(ctx, "ana")

		req.ErrorIs(err, errs.ErrStoreUnavailable)
		active, err := svc.IsActive(ctx, "ana")
		req.NoError(err)
		req.True(active)
	})
}

func TestService_Heartbeat(t *testing.T) {
	ctx := context.Background()

	t.Run("should refresh last seen", func(t *testing.T) {
		req := require.New(t)
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		svc, repo, _ := newTestService(&now)
		_, err := svc.Join(ctx, "ana")
		req.NoError(err)

		now = now.Add(8 * time.Second)
		req.NoError(svc.Heartbeat(ctx, "ana"))

		p, err := repo.FindByName(ctx, "ana")
		req.NoError(err)
		req.Equal(now, p.LastSeen)
	})

	t.Run("should fail for unknown names", func(t *testing.T) {
		now := time.Now()
		svc, _, _ := newTestService(&now)

		err := svc.Heartbeat(ctx, "ghost")

		require.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestService_IsActive(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	now := time.Now()
	svc, _, _ := newTestService(&now)
	_, err := svc.Join(ctx, "ana")
	req.NoError(err)

	active, err := svc.IsActive(ctx, "ana")
	req.NoError(err)
	req.True(active)

	active, err = svc.IsActive(ctx, "bob")
	req.NoError(err)
	req.False(active)

	active, err = svc.IsActive(ctx, "")
	req.NoError(err)
	req.False(active)
}

func TestService_Evict(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	now := time.Now()
	svc, _, _ := newTestService(&now)
	for _, name := range []string{"ana", "bob"} {
		_, err := svc.Join(ctx, name)
		req.NoError(err)
	}

	deleted, err := svc.Evict(ctx, "ana", "ghost")
	req.NoError(err)
	req.EqualValues(1, deleted)

	deleted, err = svc.Evict(ctx, "ana")
	req.NoError(err)
	req.Zero(deleted)

	deleted, err = svc.Evict(ctx)
	req.NoError(err)
	req.Zero(deleted)

	active, err := svc.ListActive(ctx)
	req.NoError(err)
	req.Len(active, 1)
	req.Equal("bob", active[0].Name)
}

func TestService_EvictStale(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(&now)
	for _, name := range []string{"ana", "bob"} {
		_, err := svc.Join(ctx, name)
		req.NoError(err)
	}
	now = now.Add(time.Minute)
	cutoff := now.Add(-10 * time.Second)
	req.NoError(svc.Heartbeat(ctx, "ana"))

	evicted, err := svc.EvictStale(ctx, cutoff, "ana", "bob")

	req.NoError(err)
	req.Equal([]string{"bob"}, evicted)
	active, err := svc.IsActive(ctx, "ana")
	req.NoError(err)
	req.True(active)

	evicted, err = svc.EvictStale(ctx, cutoff)
	req.NoError(err)
	req.Empty(evicted)
}

func TestService_ListStale(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(&now)
	_, err := svc.Join(ctx, "ana")
	req.NoError(err)

	stale, err := svc.ListStale(ctx, now.Add(11*time.Second))
	req.NoError(err)
	req.Len(stale, 1)

	stale, err = svc.ListStale(ctx, now)
	req.NoError(err)
	req.Empty(stale)
}
