package blobstore

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeImplementations(t *testing.T) map[string]BlobStore {
	t.Helper()
	return map[string]BlobStore{
		"Memory":   NewMemoryStore(),
		"MemMapFs": NewFsStore(afero.NewMemMapFs(), "/blobs"),
		"OsFs":     NewLocalStore(t.TempDir()),
	}
}

func TestBlobStore_Lifecycle(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			data := []byte("hello world, this is a test blob for broadphase")

			require.NoError(t, store.Put(ctx, "snap-001.bvh", data))

			blob, err := store.Open(ctx, "snap-001.bvh")
			require.NoError(t, err)
			defer blob.Close()

			assert.Equal(t, int64(len(data)), blob.Size())

			buf := make([]byte, 5)
			n, err := blob.ReadAt(ctx, buf, 6)
			require.NoError(t, err)
			assert.Equal(t, 5, n)
			assert.Equal(t, "world", string(buf))

			// Read across the end.
			tail := make([]byte, 20)
			n, err = blob.ReadAt(ctx, tail, int64(len(data)-4))
			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, 4, n)
			assert.Equal(t, data[len(data)-4:], tail[:n])

			_, err = blob.ReadAt(ctx, buf, int64(len(data)))
			assert.ErrorIs(t, err, io.EOF)

			got, err := ReadAll(ctx, store, "snap-001.bvh")
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestBlobStore_PutReplaces(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Put(ctx, "a", []byte("first version")))
			require.NoError(t, store.Put(ctx, "a", []byte("second")))

			got, err := ReadAll(ctx, store, "a")
			require.NoError(t, err)
			assert.Equal(t, "second", string(got))
		})
	}
}

func TestBlobStore_PutCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "x", data))
	data[0] = 'z'

	got, err := ReadAll(ctx, store, "x")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestMemoryStore_OpenHandleIsStable(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "x", []byte("old")))
	blob, err := store.Open(ctx, "x")
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "x", []byte("newer")))
	require.NoError(t, store.Delete(ctx, "x"))

	buf := make([]byte, 3)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "old", string(buf[:n]))
}

func TestBlobStore_NotFound(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Open(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = ReadAll(ctx, store, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, store.Delete(ctx, "missing"))
		})
	}
}

func TestBlobStore_ListAndDelete(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, n := range []string{"snap-b", "snap-a", "other", "dir/snap-c"} {
				require.NoError(t, store.Put(ctx, n, []byte(n)))
			}

			names, err := store.List(ctx, "snap-")
			require.NoError(t, err)
			assert.Equal(t, []string{"snap-a", "snap-b"}, names)

			all, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"dir/snap-c", "other", "snap-a", "snap-b"}, all)

			require.NoError(t, store.Delete(ctx, "snap-a"))

			names, err = store.List(ctx, "snap-")
			require.NoError(t, err)
			assert.Equal(t, []string{"snap-b"}, names)
		})
	}
}

func TestLocalStore_EmptyRoot(t *testing.T) {
	store := NewFsStore(afero.NewMemMapFs(), "/does/not/exist")

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_RejectsEscapingNames(t *testing.T) {
	store := NewFsStore(afero.NewMemMapFs(), "/root")
	ctx := context.Background()

	for _, name := range []string{"../escape", "/abs", ".", ""} {
		assert.Error(t, store.Put(ctx, name, []byte("x")), name)
	}
}

func TestLocalStore_NoTempFilesLeft(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := NewFsStore(fsys, "/root")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", []byte("payload")))

	entries, err := afero.ReadDir(fsys, "/root")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Name())

	ok, err := afero.Exists(fsys, filepath.Join("/root", "a"))
	require.NoError(t, err)
	assert.True(t, ok)
}
