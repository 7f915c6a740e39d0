package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	local, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{
		"local":  local,
		"memory": NewMemoryStore(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			w, err := store.Create(ctx, "backups/shop/1.tar.zst")
			require.NoError(t, err)
			_, err = w.Write([]byte("hello "))
			require.NoError(t, err)
			_, err = w.Write([]byte("world"))
			require.NoError(t, err)
			require.NoError(t, w.Close())

			blob, err := store.Open(ctx, "backups/shop/1.tar.zst")
			require.NoError(t, err)
			data, err := io.ReadAll(blob)
			require.NoError(t, err)
			require.NoError(t, blob.Close())
			assert.Equal(t, "hello world", string(data))
			assert.Equal(t, int64(len(data)), blob.Size())
		})
	}
}

func TestStoreOpenMissing(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Open(ctx, "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			w, err := store.Create(ctx, "gone")
			require.NoError(t, err)
			require.NoError(t, w.Close())

			require.NoError(t, store.Delete(ctx, "gone"))
			_, err = store.Open(ctx, "gone")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting a missing blob is not an error.
			assert.NoError(t, store.Delete(ctx, "gone"))
		})
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, blob := range []string{"backups/shop/2", "backups/shop/1", "backups/crm/1"} {
				w, err := store.Create(ctx, blob)
				require.NoError(t, err)
				require.NoError(t, w.Close())
			}

			names, err := store.List(ctx, "backups/shop/")
			require.NoError(t, err)
			assert.Equal(t, []string{"backups/shop/1", "backups/shop/2"}, names)

			all, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

// A prefix ending in a slash is a directory boundary: listing "u/d/"
// must never return blobs of a sibling whose name merely starts with
// the same characters, like "u/dx/".
func TestStoreListSlashBoundary(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, blob := range []string{"u/d/1.tar.zst", "u/dx/1.tar.zst"} {
				w, err := store.Create(ctx, blob)
				require.NoError(t, err)
				require.NoError(t, w.Close())
			}

			names, err := store.List(ctx, "u/d/")
			require.NoError(t, err)
			assert.Equal(t, []string{"u/d/1.tar.zst"}, names)
		})
	}
}

func TestLocalStoreUnclosedBlobInvisible(t *testing.T) {
	ctx := context.Background()
	local, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	w, err := local.Create(ctx, "partial")
	require.NoError(t, err)
	_, err = w.Write([]byte("half-written"))
	require.NoError(t, err)

	// Not yet closed: readers must not see it.
	_, err = local.Open(ctx, "partial")
	assert.ErrorIs(t, err, ErrNotFound)
	names, err := local.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, w.Close())
	_, err = local.Open(ctx, "partial")
	assert.NoError(t, err)
}
