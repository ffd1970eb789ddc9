package participant

import (
	"context"
	"testing"
	"time"

	"presence-chat/internal/database/dbtest"
	"presence-chat/internal/errs"

	"github.com/stretchr/testify/require"
)

func TestMongoRepository(t *testing.T) {
	db := dbtest.NewMongoDB(t)
	repo := NewMongoRepository(db, 5*time.Second)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	req := require.New(t)

	req.NoError(repo.Create(ctx, Participant{Name: "ana", LastSeen: base}))
	req.NoError(repo.Create(ctx, Participant{Name: "bob", LastSeen: base.Add(20 * time.Second)}))
	req.ErrorIs(repo.Create(ctx, Participant{Name: "ana", LastSeen: base}), errs.ErrConflict)

	p, err := repo.FindByName(ctx, "ana")
	req.NoError(err)
	req.True(base.Equal(p.LastSeen))

	_, err = repo.FindByName(ctx, "ghost")
	req.ErrorIs(err, errs.ErrNotFound)
	req.ErrorIs(repo.Touch(ctx, "ghost", base), errs.ErrNotFound)

	stale, err := repo.ListStale(ctx, base.Add(10*time.Second))
	req.NoError(err)
	req.Len(stale, 1)
	req.Equal("ana", stale[0].Name)

	req.NoError(repo.Touch(ctx, "ana", base.Add(30*time.Second)))
	stale, err = repo.ListStale(ctx, base.Add(10*time.Second))
	req.NoError(err)
	req.Empty(stale)

	deleted, err := repo.DeleteMany(ctx, []string{"ana", "ghost"})
	req.NoError(err)
	req.EqualValues(1, deleted)

	list, err := repo.List(ctx)
	req.NoError(err)
	req.Len(list, 1)
	req.Equal("bob", list[0].Name)

	req.NoError(repo.Create(ctx, Participant{Name: "carol", LastSeen: base}))
	evicted, err := repo.DeleteStale(ctx, []string{"bob", "carol", "ghost"}, base.Add(10*time.Second))
	req.NoError(err)
	req.Equal([]string{"carol"}, evicted)

	list, err = repo.List(ctx)
	req.NoError(err)
	req.Len(list, 1)
	req.Equal("bob", list[0].Name)
}
