package broadphase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"testing"

	"github.com/hupe1980/broadphase/bvh"
	"github.com/hupe1980/broadphase/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReserve = 64 << 20

func newTestWorld(t *testing.T, maxEntities int, opts ...Option) *World {
	t.Helper()
	w, err := New(maxEntities, append([]Option{WithReserveSize(testReserve)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func populate(t *testing.T, w *World, seed int64, n int) []bvh.Sphere {
	t.Helper()
	spheres := testutil.NewRNG(seed).Spheres(n, testutil.DefaultMaxRadius)
	for i, s := range spheres {
		id, err := w.Add(s.Center, s.Radius)
		require.NoError(t, err)
		require.Equal(t, uint32(i), id)
	}
	return spheres
}

func TestWorld_AddAndEntity(t *testing.T) {
	w := newTestWorld(t, 8)

	id, err := w.Add(bvh.Vector{X: 0.1}, 0.2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), id)

	id, err = w.Add(bvh.Vector{Y: -0.1}, 0.05)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id)

	assert.Equal(t, 2, w.Len())
	assert.Equal(t, 8, w.Cap())
	assert.Equal(t, 2, w.Tree().LeafCount())

	e, err := w.Entity(1)
	require.NoError(t, err)
	assert.Equal(t, NewEntity(bvh.Vector{Y: -0.1}, 0.05), e)
	assert.Len(t, w.Entities(), 2)

	_, err = w.Entity(2)
	assert.ErrorIs(t, err, ErrUnknownEntity)

	var unknown *UnknownEntityError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, uint32(2), unknown.ID)
	assert.Equal(t, 2, unknown.Len)
}

func TestWorld_AddCapacity(t *testing.T) {
	w := newTestWorld(t, 2)
	populate(t, w, 1, 2)

	_, err := w.Add(bvh.Vector{}, 0.1)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 2, w.Len())
	assert.NoError(t, w.Tree().Validate())
}

func TestWorld_AddInvalid(t *testing.T) {
	w := newTestWorld(t, 4)

	_, err := w.Add(bvh.Vector{X: float32(math.NaN())}, 0.1)
	assert.ErrorIs(t, err, ErrInvalidAABB)

	_, err = w.Add(bvh.Vector{}, -1)
	assert.ErrorIs(t, err, ErrInvalidAABB)

	assert.Zero(t, w.Len())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(-1)
	assert.Error(t, err)

	// 1M entities do not fit into 1 MiB of address space.
	_, err = New(1<<20, WithReserveSize(1<<20))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestWorld_CollisionsFor(t *testing.T) {
	w := newTestWorld(t, 200)
	spheres := populate(t, w, 42, 200)
	scratch := w.Scratch()

	for id := range spheres {
		mark := scratch.Next()

		buf, err := w.CollisionsFor(scratch, uint32(id))
		require.NoError(t, err)

		assert.Equal(t, testutil.Colliding(spheres, id), testutil.Sorted(buf.Items()), "entity %d", id)
		assert.Equal(t, buf.End(), scratch.Next(), "only the result stays allocated")
		assert.GreaterOrEqual(t, uint64(buf.Base()), uint64(mark))

		require.NoError(t, scratch.ShrinkTo(mark))
	}

	_, err := w.CollisionsFor(scratch, 999)
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestWorld_FindCollisions(t *testing.T) {
	for _, seed := range []int64{1, 7, 99} {
		w := newTestWorld(t, 300)
		spheres := populate(t, w, seed, 300)
		mark := w.Scratch().Next()

		report, err := w.FindCollisions(context.Background())
		require.NoError(t, err)
		assert.Equal(t, mark, w.Scratch().Next(), "scratch is released after the pass")

		pairs := 0
		for id := range spheres {
			want := testutil.Colliding(spheres, id)
			assert.Equal(t, want, testutil.Sorted(report.Collisions[id]), "seed %d entity %d", seed, id)
			assert.Equal(t, len(want) > 0, report.Colliding.Contains(uint32(id)))
			for _, other := range want {
				if uint32(id) < other {
					pairs++
				}
			}
		}
		assert.Equal(t, pairs, report.Pairs)
		assert.Len(t, report.Entities, 300)
	}
}

func TestWorld_FindCollisionsParallel(t *testing.T) {
	w := newTestWorld(t, 500, WithMaxWorkers(8))
	populate(t, w, 5, 500)

	serial, err := w.FindCollisions(context.Background())
	require.NoError(t, err)

	for _, workers := range []int{0, 1, 2, 3, 8, 64} {
		mark := w.Scratch().Next()

		parallel, err := w.FindCollisionsParallel(context.Background(), workers)
		require.NoError(t, err, "workers %d", workers)

		assert.Equal(t, serial.Collisions, parallel.Collisions, "workers %d", workers)
		assert.Equal(t, serial.Pairs, parallel.Pairs)
		assert.True(t, serial.Colliding.Equals(parallel.Colliding))
		assert.Equal(t, mark, w.Scratch().Next())
	}
}

func TestWorld_MaxWorkersDefaultsToGOMAXPROCS(t *testing.T) {
	prev := runtime.GOMAXPROCS(8)
	t.Cleanup(func() { runtime.GOMAXPROCS(prev) })

	for _, n := range []int{0, -2} {
		w := newTestWorld(t, 16, WithMaxWorkers(n))
		assert.Equal(t, 8, w.rc.MaxWorkers(), "max workers %d", n)
	}
	assert.Equal(t, 8, newTestWorld(t, 16).rc.MaxWorkers())
	assert.Equal(t, 3, newTestWorld(t, 16, WithMaxWorkers(3)).rc.MaxWorkers())

	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, nil))
	w := newTestWorld(t, 64, WithLogger(logger), WithMaxWorkers(0))
	populate(t, w, 6, 64)

	_, err := w.FindCollisionsParallel(context.Background(), 0)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"workers":8`)
}

func TestWorld_FindCollisions_Empty(t *testing.T) {
	w := newTestWorld(t, 0)

	report, err := w.FindCollisions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Pairs)
	assert.True(t, report.Colliding.IsEmpty())

	report, err = w.FindCollisionsParallel(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, report.Collisions)
}

func TestWorld_FindCollisions_Canceled(t *testing.T) {
	w := newTestWorld(t, 50)
	populate(t, w, 3, 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.FindCollisions(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = w.FindCollisionsParallel(ctx, 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorld_FindCollisionsParallel_ScratchTooSmall(t *testing.T) {
	w := newTestWorld(t, 1000, WithScratchSize(64<<10), WithMaxWorkers(16))
	populate(t, w, 11, 1000)

	_, err := w.FindCollisionsParallel(context.Background(), 16)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestWorld_MemoryLimit(t *testing.T) {
	const limit = 2 << 20

	w, err := New(100_000, WithReserveSize(testReserve), WithMemoryLimit(limit))
	if err != nil {
		assert.ErrorIs(t, err, ErrReservationFailure)
		return
	}
	defer w.Close()

	rng := testutil.NewRNG(9)
	for range 100_000 {
		s := rng.Sphere(testutil.DefaultMaxRadius)
		if _, err = w.Add(s.Center, s.Radius); err != nil {
			break
		}
	}
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReservationFailure)
	assert.LessOrEqual(t, w.Stats().CommittedBytes, uint64(limit))
}

func TestWorld_Metrics(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	w := newTestWorld(t, 64, WithMetricsCollector(metrics))
	populate(t, w, 2, 64)

	_, err := w.Add(bvh.Vector{}, -1)
	require.Error(t, err)

	_, err = w.FindCollisions(context.Background())
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(65), stats.InsertCount)
	assert.Equal(t, int64(1), stats.InsertErrors)
	assert.Equal(t, int64(64), stats.QueryCount)
	assert.GreaterOrEqual(t, stats.QueryCandidates, stats.QueryCollisions)
	assert.Equal(t, int64(1), stats.PassCount)
	assert.Positive(t, stats.CommitCount)
	assert.Equal(t, int64(w.Stats().CommittedBytes), stats.CommittedBytes)
}

func TestWorld_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	w := newTestWorld(t, 4, WithLogger(logger), WithMaxWorkers(4))
	populate(t, w, 4, 4)

	_, err := w.FindCollisionsParallel(context.Background(), 2)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"insert completed"`)
	assert.Contains(t, out, `"msg":"query completed"`)
	assert.Contains(t, out, `"msg":"collision pass completed"`)
	assert.Contains(t, out, `"workers":2`)
}

func TestWorld_Close(t *testing.T) {
	w, err := New(4, WithReserveSize(testReserve))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Add(bvh.Vector{}, 0.1)
	assert.ErrorIs(t, err, ErrClosed)

	_, err = w.FindCollisions(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	_, err = w.FindCollisionsParallel(context.Background(), 2)
	assert.ErrorIs(t, err, ErrClosed)

	var nilWorld *World
	assert.NoError(t, nilWorld.Close())
}

func TestReport_WriteTo(t *testing.T) {
	w := newTestWorld(t, 3)
	for _, e := range []Entity{
		NewEntity(bvh.Vector{}, 0.5),
		NewEntity(bvh.Vector{X: 0.5}, 0.5),
		NewEntity(bvh.Vector{X: 10, Y: -1, Z: 0.25}, 0.125),
	} {
		_, err := w.Add(e.Position, e.Radius)
		require.NoError(t, err)
	}

	report, err := w.FindCollisions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pairs)
	assert.Nil(t, report.CollisionsOf(3))

	var buf bytes.Buffer
	n, err := report.WriteTo(&buf)
	require.NoError(t, err)

	want := strings.Join([]string{
		"Entity 0 at (0.000000 0.000000 0.000000) with radius 0.500000 collides with:\n\t1, \n",
		"Entity 1 at (0.500000 0.000000 0.000000) with radius 0.500000 collides with:\n\t0, \n",
		"Entity 2 at (10.000000 -1.000000 0.250000) with radius 0.125000 collides with:\n\t\n",
	}, "")
	assert.Equal(t, want, buf.String())
	assert.Equal(t, int64(len(want)), n)
}

func TestReport_WriteTo_Error(t *testing.T) {
	report := newReport([]Entity{NewEntity(bvh.Vector{}, 1)}, [][]uint32{nil})

	_, err := report.WriteTo(failingWriter{})
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }
