package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_PutAndLookup(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	fp := Fingerprint([]byte("let x = 1"))
	require.NoError(t, store.Put(ctx, "Snippets/A.swift", fp, []byte("page")))

	page, hit, err := store.Lookup(ctx, "Snippets/A.swift", fp)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "page", string(page))
}

func TestStore_MissOnChangedFingerprint(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", Fingerprint([]byte("v1")), []byte("p1")))

	_, hit, err := store.Lookup(ctx, "a", Fingerprint([]byte("v2")))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestStore_PutReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", "fp1", []byte("p1")))
	require.NoError(t, store.Put(ctx, "a", "fp2", []byte("p2")))

	_, hit, err := store.Lookup(ctx, "a", "fp1")
	require.NoError(t, err)
	assert.False(t, hit)

	page, hit, err := store.Lookup(ctx, "a", "fp2")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "p2", string(page))
}

func TestStore_Prune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "keep", "fp", []byte("p")))
	require.NoError(t, store.Put(ctx, "stale", "fp", []byte("p")))

	removed, err := store.Prune(ctx, []string{"keep"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, hit, err := store.Lookup(ctx, "stale", "fp")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	store, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestFingerprint_Deterministic(t *testing.T) {
	assert.Equal(t, Fingerprint([]byte("x")), Fingerprint([]byte("x")))
	assert.NotEqual(t, Fingerprint([]byte("x")), Fingerprint([]byte("y")))
}
