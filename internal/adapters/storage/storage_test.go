package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

func spec(id string) *domain.StoredSpec {
	return &domain.StoredSpec{
		ID:        id,
		Title:     "Spec " + id,
		Version:   "1.0",
		Content:   "openapi: 3.0.3",
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func runStoreTests(t *testing.T, store domain.SpecStore) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		got, err := store.Get(ctx, "nope")
		assert.Nil(t, got)
		assert.ErrorIs(t, err, domain.ErrSpecNotFound)
		assert.ErrorIs(t, store.Delete(ctx, "nope"), domain.ErrSpecNotFound)
	})

	t.Run("put get list delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, spec("b")))
		require.NoError(t, store.Put(ctx, spec("a")))

		got, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, spec("a"), got)

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].ID)
		assert.Equal(t, "b", list[1].ID)

		require.NoError(t, store.Delete(ctx, "a"))
		require.NoError(t, store.Delete(ctx, "b"))
		list, err = store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := spec("c")
		require.NoError(t, store.Put(ctx, s))
		s.Title = "changed"
		require.NoError(t, store.Put(ctx, s))

		got, err := store.Get(ctx, "c")
		require.NoError(t, err)
		assert.Equal(t, "changed", got.Title)
		require.NoError(t, store.Delete(ctx, "c"))
	})

	t.Run("invalid ids", func(t *testing.T) {
		for _, id := range []string{"", "../etc", "a/b", ".hidden", "a..b", "with space"} {
			assert.ErrorIs(t, store.Put(ctx, spec(id)), domain.ErrInvalidSpecID, id)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s := spec("x")
	require.NoError(t, store.Put(ctx, s))
	s.Title = "mutated"

	got, err := store.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "Spec x", got.Title)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	runStoreTests(t, store)

	require.NoError(t, store.Put(context.Background(), spec("kept")))
	assert.FileExists(t, filepath.Join(dir, "kept.json"))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := reopened.Get(context.Background(), "kept")
	require.NoError(t, err)
	assert.Equal(t, spec("kept"), got)
}

func TestFileStore_RequiresDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("OPENAPI_TRYIT_TEST_REDIS")
	if addr == "" {
		t.Skip("OPENAPI_TRYIT_TEST_REDIS not set")
	}

	store := NewRedisStore(addr, fmt.Sprintf("openapi-tryit-test-%d:", time.Now().UnixNano()))
	defer store.Close()

	runStoreTests(t, store)
}

func TestOpen(t *testing.T) {
	store, err := Open(Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(Options{Driver: "FILE", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	store, err = Open(Options{Driver: DriverRedis, RedisAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)
	require.NoError(t, store.(*RedisStore).Close())

	_, err = Open(Options{Driver: "bolt"})
	assert.EqualError(t, err, `unknown storage driver "bolt"`)
}
