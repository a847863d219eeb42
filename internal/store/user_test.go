package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webservice-umg/apiserver/internal/db"
	"github.com/webservice-umg/apiserver/internal/store"
	"github.com/webservice-umg/apiserver/types"
)

func newRepo(t *testing.T) *store.UserRepository {
	t.Helper()
	ctx := context.Background()

	handle, err := db.Open(ctx, "sqlite:///"+filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })
	require.NoError(t, handle.EnsureSchema(ctx))

	sess, err := handle.Session(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	return store.NewUserRepository(sess)
}

func TestUserRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	registered := time.Date(2025, 3, 4, 5, 6, 7, 891234000, time.UTC)
	created, err := repo.Create(ctx, types.User{
		Name:         "Ana",
		Email:        "ana@x.com",
		Password:     "p1",
		RegisteredAt: registered,
	})
	require.NoError(t, err)
	assert.Positive(t, created.ID)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Ana", fetched.Name)
	assert.Equal(t, "ana@x.com", fetched.Email)
	assert.Equal(t, "p1", fetched.Password)
	assert.True(t, registered.Equal(fetched.RegisteredAt), "got %s", fetched.RegisteredAt)
}

func TestUserRepositoryCreateSetsRegisteredAt(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	before := time.Now().UTC().Add(-time.Second)
	created, err := repo.Create(ctx, types.User{Name: "Ana", Email: "ana@x.com", Password: "p1"})
	require.NoError(t, err)

	assert.Equal(t, time.UTC, created.RegisteredAt.Location())
	assert.True(t, created.RegisteredAt.After(before))
}

func TestUserRepositoryCreateDuplicateEmailIsConflict(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.Create(ctx, types.User{Name: "Ana", Email: "dup@x.com", Password: "p1"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, types.User{Name: "Bea", Email: "dup@x.com", Password: "p2"})
	assert.True(t, errors.Is(err, store.ErrConflict), "got %v", err)
}

func TestUserRepositoryListOrdersByID(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	for _, email := range []string{"c@x.com", "a@x.com", "b@x.com"} {
		_, err := repo.Create(ctx, types.User{Name: email, Email: email, Password: "p"})
		require.NoError(t, err)
	}

	users, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	for i := 1; i < len(users); i++ {
		assert.Less(t, users[i-1].ID, users[i].ID)
	}
	assert.Equal(t, "c@x.com", users[0].Email)
}

func TestUserRepositoryEmailInUse(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	ana, err := repo.Create(ctx, types.User{Name: "Ana", Email: "ana@x.com", Password: "p1"})
	require.NoError(t, err)

	inUse, err := repo.EmailInUse(ctx, "ana@x.com", 0)
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = repo.EmailInUse(ctx, "ana@x.com", ana.ID)
	require.NoError(t, err)
	assert.False(t, inUse)

	inUse, err = repo.EmailInUse(ctx, "nobody@x.com", 0)
	require.NoError(t, err)
	assert.False(t, inUse)
}

func TestUserRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	ana, err := repo.Create(ctx, types.User{Name: "Ana", Email: "ana@x.com", Password: "p1"})
	require.NoError(t, err)

	ana.Name = "Ana María"
	updated, err := repo.Update(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.Name)
	assert.Equal(t, "ana@x.com", updated.Email)
	assert.True(t, ana.RegisteredAt.Equal(updated.RegisteredAt))

	_, err = repo.Update(ctx, types.User{ID: 999, Name: "x", Email: "x@x.com", Password: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserRepositoryUpdateDuplicateEmailIsConflict(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.Create(ctx, types.User{Name: "Ana", Email: "ana@x.com", Password: "p1"})
	require.NoError(t, err)
	bea, err := repo.Create(ctx, types.User{Name: "Bea", Email: "bea@x.com", Password: "p2"})
	require.NoError(t, err)

	bea.Email = "ana@x.com"
	_, err = repo.Update(ctx, bea)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestUserRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	ana, err := repo.Create(ctx, types.User{Name: "Ana", Email: "ana@x.com", Password: "p1"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, ana.ID))
	_, err = repo.GetByID(ctx, ana.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ana.ID), store.ErrNotFound)
}
