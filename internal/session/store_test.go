package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/database"
	testhelpers "github.com/m7moud-Tahawi/ESG-impact-navigator/internal/testing"
)

type sample struct {
	Name    string
	Weights []float64
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := testhelpers.NewTestDB(t, database.NameSessions)
	return NewStore(db.Conn(), time.Hour, zerolog.Nop())
}

func TestStore_PutGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, id, "profile", sample{Name: "Ada", Weights: []float64{1, 2, 3}}))

	var got sample
	require.NoError(t, store.Get(ctx, id, "profile", &got))
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, []float64{1, 2, 3}, got.Weights)
}

func TestStore_GetMissingKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	var got sample
	assert.ErrorIs(t, store.Get(ctx, id, "profile", &got), ErrKeyNotFound)
}

func TestStore_GetUnknownSession(t *testing.T) {
	store := newTestStore(t)
	var got sample
	assert.ErrorIs(t, store.Get(context.Background(), "nope", "profile", &got), ErrSessionNotFound)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, err := store.Create(ctx)
	require.NoError(t, err)
	b, err := store.Create(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	require.NoError(t, store.Put(ctx, a, "profile", sample{Name: "A"}))

	var got sample
	assert.ErrorIs(t, store.Get(ctx, b, "profile", &got), ErrKeyNotFound)
}

func TestStore_Remove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id, err := store.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, id, "profile", sample{Name: "A"}))
	require.NoError(t, store.Put(ctx, id, "recommendation", sample{Name: "R"}))
	require.NoError(t, store.Remove(ctx, id, "recommendation"))

	var got sample
	assert.ErrorIs(t, store.Get(ctx, id, "recommendation", &got), ErrKeyNotFound)
	require.NoError(t, store.Get(ctx, id, "profile", &got))
	assert.Equal(t, "A", got.Name)
}

func TestStore_ExpiryAndTouch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }

	id, err := store.Create(ctx)
	require.NoError(t, err)

	// Touch slides the expiry forward
	store.now = func() time.Time { return base.Add(50 * time.Minute) }
	live, err := store.Touch(ctx, id)
	require.NoError(t, err)
	assert.True(t, live)

	store.now = func() time.Time { return base.Add(100 * time.Minute) }
	live, err = store.Touch(ctx, id)
	require.NoError(t, err)
	assert.True(t, live)

	// Past the slid expiry
	store.now = func() time.Time { return base.Add(4 * time.Hour) }
	live, err = store.Touch(ctx, id)
	require.NoError(t, err)
	assert.False(t, live)

	var got sample
	assert.ErrorIs(t, store.Get(ctx, id, "profile", &got), ErrSessionNotFound)

	deleted, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestStore_DestroyAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)
	_, err = store.Create(ctx)
	require.NoError(t, err)

	n, err := store.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, store.Destroy(ctx, id))
	n, err = store.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCleanupJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base.Add(-2 * time.Hour) }
	_, err := store.Create(ctx)
	require.NoError(t, err)
	store.now = func() time.Time { return base }

	job := NewCleanupJob(store, zerolog.Nop())
	assert.Equal(t, "session_cleanup", job.Name())
	require.NoError(t, job.Run(ctx))

	n, err := store.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
