package persistence

import (
	"context"
	"strings"
	"testing"

	"github.com/hupe1980/broadphase/blobstore"
	"github.com/hupe1980/broadphase/codec"
	"github.com/hupe1980/broadphase/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SaveLoad(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(t)
	snap := buildSnapshot(t, a, 64)

	m := NewManager(blobstore.NewMemoryStore(), func(o *ManagerOptions) {
		o.Codec = codec.Zstd{}
		o.Resources = resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 30})
	})
	assert.Equal(t, "zstd", m.Codec().Name())

	name, err := m.Save(ctx, snap)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, DefaultPrefix))
	assert.True(t, strings.HasSuffix(name, Extension))

	got, err := m.Load(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, snap.Nodes, got.Nodes)
	assert.Equal(t, snap.Spheres, got.Spheres)
}

func TestManager_ListLatestRetain(t *testing.T) {
	ctx := context.Background()
	a := newTestArena(t)
	snap := buildSnapshot(t, a, 8)

	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "unrelated.txt", []byte("x")))

	m := NewManager(store, func(o *ManagerOptions) { o.Prefix = "world/" })

	_, err := m.Latest(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	var saved []string
	for range 3 {
		name, err := m.Save(ctx, snap)
		require.NoError(t, err)
		saved = append(saved, name)
	}

	names, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, names)

	latest, err := m.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved[2], latest)

	deleted, err := m.Retain(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, saved[:2], deleted)

	names, err = m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{saved[2]}, names)

	require.NoError(t, m.Delete(ctx, saved[2]))
	names, err = m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"unrelated.txt"}, all)
}

func TestManager_LoadMissing(t *testing.T) {
	m := NewManager(blobstore.NewMemoryStore())

	_, err := m.Load(context.Background(), "snapshot-missing.bvh")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestManager_LoadCorrupt(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "snapshot-bad.bvh", []byte("not a snapshot at all, just some bytes padding it out to a full header")))

	m := NewManager(store)
	_, err := m.Load(ctx, "snapshot-bad.bvh")
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestManager_Closed(t *testing.T) {
	ctx := context.Background()
	m := NewManager(blobstore.NewMemoryStore())
	require.NoError(t, m.Close())

	_, err := m.Save(ctx, &Snapshot{})
	assert.ErrorIs(t, err, ErrManagerClosed)

	_, err = m.Load(ctx, "x")
	assert.ErrorIs(t, err, ErrManagerClosed)

	_, err = m.List(ctx)
	assert.ErrorIs(t, err, ErrManagerClosed)

	assert.ErrorIs(t, m.Delete(ctx, "x"), ErrManagerClosed)
}
