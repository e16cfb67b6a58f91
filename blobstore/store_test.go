package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeConformance exercises the BlobStore contract against an
// implementation.
func storeConformance(t *testing.T, newStore func(t *testing.T) BlobStore) {
	ctx := context.Background()

	t.Run("PutOpenRead", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "a.bsi", []byte("payload")))

		blob, err := store.Open(ctx, "a.bsi")
		require.NoError(t, err)
		defer blob.Close()

		assert.Equal(t, int64(7), blob.Size())

		p := make([]byte, 3)
		n, err := blob.ReadAt(ctx, p, 3)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, []byte("loa"), p)

		rc, err := blob.ReadRange(ctx, 0, blob.Size())
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)
	})

	t.Run("ReadAll", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "a.bsi", []byte("payload")))

		data, err := ReadAll(ctx, store, "a.bsi")
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)
	})

	t.Run("OpenMissing", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Open(ctx, "missing.bsi")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CreateStreaming", func(t *testing.T) {
		store := newStore(t)

		w, err := store.Create(ctx, "streamed.bsi")
		require.NoError(t, err)
		_, err = w.Write([]byte("part one "))
		require.NoError(t, err)
		_, err = w.Write([]byte("part two"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		data, err := ReadAll(ctx, store, "streamed.bsi")
		require.NoError(t, err)
		assert.Equal(t, []byte("part one part two"), data)
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "a.bsi", []byte("old")))
		require.NoError(t, store.Put(ctx, "a.bsi", []byte("new")))

		data, err := ReadAll(ctx, store, "a.bsi")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), data)
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "a.bsi", []byte("x")))
		require.NoError(t, store.Delete(ctx, "a.bsi"))

		_, err := store.Open(ctx, "a.bsi")
		assert.ErrorIs(t, err, ErrNotFound)

		// Deleting a missing blob is not an error
		assert.NoError(t, store.Delete(ctx, "a.bsi"))
	})

	t.Run("List", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "snap/v1.bsi", []byte("1")))
		require.NoError(t, store.Put(ctx, "snap/v2.bsi", []byte("2")))
		require.NoError(t, store.Put(ctx, "other.bsi", []byte("3")))

		names, err := store.List(ctx, "snap/")
		require.NoError(t, err)
		assert.Equal(t, []string{"snap/v1.bsi", "snap/v2.bsi"}, names)

		all, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestMemoryStore(t *testing.T) {
	storeConformance(t, func(t *testing.T) BlobStore {
		return NewMemoryStore()
	})
}

func TestLocalStore(t *testing.T) {
	storeConformance(t, func(t *testing.T) BlobStore {
		return NewLocalStore(t.TempDir())
	})
}

func TestLocalStoreMappable(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "a.bsi", []byte("mapped")))

	blob, err := store.Open(ctx, "a.bsi")
	require.NoError(t, err)
	defer blob.Close()

	m, ok := blob.(Mappable)
	require.True(t, ok)
	data, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("mapped"), data)
}
