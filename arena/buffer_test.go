package arena

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_CapacityExceeded(t *testing.T) {
	a := newTestArena(t, 1<<20)

	const n = 100
	b, err := SplitOff[uint32](a, n)
	require.NoError(t, err)
	assert.Equal(t, n, b.Cap())
	assert.Zero(t, b.Len())

	for i := range uint32(n) {
		require.NoError(t, b.Push(i))
	}
	assert.Equal(t, n, b.Len())

	err = b.Push(n)
	require.ErrorIs(t, err, ErrCapacityExceeded)
	var ce *CapacityError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "push", ce.Op)
	assert.Equal(t, n, b.Len())
}

func TestBuffer_LengthIsDerived(t *testing.T) {
	a := newTestArena(t, 1<<20)
	b, err := SplitOff[vec3](a, 8)
	require.NoError(t, err)

	require.NoError(t, b.Push(vec3{1, 1, 1}))
	require.NoError(t, b.Push(vec3{2, 2, 2}))
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, b.Base()+24, b.End())

	v, err := b.Pop()
	require.NoError(t, err)
	assert.Equal(t, vec3{2, 2, 2}, v)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, b.Base()+12, b.End())

	_, err = b.Pop()
	require.NoError(t, err)
	_, err = b.Pop()
	assert.ErrorIs(t, err, ErrInvalidRelease)
}

func TestBuffer_IndexedAccess(t *testing.T) {
	a := newTestArena(t, 1<<20)
	b, err := SplitOff[uint64](a, 16)
	require.NoError(t, err)

	for i := range uint64(4) {
		require.NoError(t, b.Push(i*i))
	}

	assert.Equal(t, uint64(9), b.At(3))
	b.Set(0, 42)
	*b.Ptr(1) += 100
	assert.Equal(t, []uint64{42, 101, 4, 9}, b.Items())

	items := b.Items()
	assert.Equal(t, 4, cap(items))

	assert.Panics(t, func() { b.At(4) })
	assert.Panics(t, func() { b.Set(-1, 0) })

	b.Reset()
	assert.Zero(t, b.Len())
	assert.Equal(t, 16, b.Cap())
	assert.Empty(t, b.Items())
}

func TestBuffer_Finish(t *testing.T) {
	a := newTestArena(t, 1<<20)

	_, err := a.Alloc(3, 1)
	require.NoError(t, err)

	b, err := SplitOff[uint32](a, 1000)
	require.NoError(t, err)
	assert.Equal(t, b.Base()+4000, a.Next())

	for i := range uint32(7) {
		require.NoError(t, b.Push(i))
	}

	require.NoError(t, b.Finish(a))
	assert.Equal(t, b.End(), a.Next())
	assert.Equal(t, b.Base()+28, a.Next())
	assert.Equal(t, 7, b.Cap())
	assert.ErrorIs(t, b.Push(7), ErrCapacityExceeded)

	// The finished values are part of the parent's live range.
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6}, View[uint32](a, b.Base(), 7))

	// The next parent allocation begins right after the last value.
	off, err := a.Alloc(4, 4)
	require.NoError(t, err)
	assert.Equal(t, b.End(), off)
}

func TestBuffer_FinishOutsideParent(t *testing.T) {
	a := newTestArena(t, 1<<20)
	other := newTestArena(t, 1<<20)

	b, err := SplitOff[uint32](a, 10)
	require.NoError(t, err)
	require.NoError(t, b.Push(1))

	assert.ErrorIs(t, b.Finish(other), ErrInvalidRelease)

	// Once the parent has been cleared the buffer is no longer live in it.
	a.Clear()
	assert.ErrorIs(t, b.Finish(a), ErrInvalidRelease)
}

func TestBuffer_CommitsAsItGrows(t *testing.T) {
	page := os.Getpagesize()
	a := newTestArena(t, 64*page, WithCommitSize(page))

	b, err := SplitOff[uint64](a, 32*page/8)
	require.NoError(t, err)
	calls := a.Stats().CommitCalls

	for i := range uint64(page / 8) {
		require.NoError(t, b.Push(i))
	}
	// Still inside the first granule.
	assert.Equal(t, calls, a.Stats().CommitCalls)

	require.NoError(t, b.Push(0))
	assert.Equal(t, calls+1, a.Stats().CommitCalls)
}

func TestBuffer_PushInWarmGranule(t *testing.T) {
	page := os.Getpagesize()
	a := newTestArena(t, 64*page, WithCommitSize(page))

	b, err := SplitOff[uint64](a, 4*page/8)
	require.NoError(t, err)
	require.NoError(t, b.Push(0))

	g := a.space.granule(b.Base())
	assert.Equal(t, g+1, b.region.warm)
	fit := int((uint64(g)+1)*uint64(page)-uint64(b.End())) / 8

	// Pushes that stay in a granule already seen committed never take the
	// commit lock.
	a.space.mu.Lock()
	unlock := sync.OnceFunc(a.space.mu.Unlock)
	defer unlock()

	done := make(chan error, 1)
	go func() {
		for i := range fit {
			if err := b.Push(uint64(i)); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("push waited on the commit lock")
	}
	unlock()

	calls := a.Stats().CommitCalls
	require.NoError(t, b.Push(1))
	assert.Equal(t, calls+1, a.Stats().CommitCalls)
	assert.Equal(t, g+2, b.region.warm)

	// Popping back into the earlier granule and pushing again is still safe.
	_, err = b.Pop()
	require.NoError(t, err)
	_, err = b.Pop()
	require.NoError(t, err)
	require.NoError(t, b.Push(2))
	require.NoError(t, b.Push(3))
	assert.Equal(t, uint64(3), b.At(b.Len()-1))
	assert.Equal(t, calls+1, a.Stats().CommitCalls)
}

func TestBuffer_ZeroCapacity(t *testing.T) {
	a := newTestArena(t, 1<<16)

	b, err := SplitOff[uint32](a, 0)
	require.NoError(t, err)
	assert.Zero(t, b.Cap())
	assert.ErrorIs(t, b.Push(1), ErrCapacityExceeded)
	assert.Empty(t, b.Items())
	require.NoError(t, b.Finish(a))

	_, err = SplitOff[struct{}](a, 4)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = SplitOff[uint32](a, 1<<20)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}
