package broadphase

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync/atomic"
	"time"

	"github.com/hupe1980/broadphase/arena"
	"golang.org/x/sync/errgroup"
)

// CollisionsFor returns the ids of all entities colliding with id, itself
// excluded.
//
// The result buffer is split from scratch before the broad phase runs and
// finished into scratch afterwards, which also discards the broad phase
// candidates that were allocated behind it. At most 2*Len*4 bytes of scratch
// are needed while the call runs; only the result stays allocated.
func (w *World) CollisionsFor(scratch *arena.Arena, id uint32) (*arena.Buffer[uint32], error) {
	if w.isClosed() {
		return nil, ErrClosed
	}
	return w.collisionsFor(nil, scratch, id)
}

// collisionsFor runs one query. A nil stack selects the tree's own stack.
func (w *World) collisionsFor(stack *arena.Buffer[uint32], scratch *arena.Arena, id uint32) (*arena.Buffer[uint32], error) {
	start := time.Now()

	result, candidates, err := w.collide(stack, scratch, id)
	if err != nil {
		w.logger.LogQuery(context.Background(), id, 0, 0, err)
		return nil, err
	}

	w.metrics.RecordQuery(candidates, result.Len(), time.Since(start))
	w.logger.LogQuery(context.Background(), id, candidates, result.Len(), nil)
	return result, nil
}

// collide returns the entities colliding with id and the number of
// candidates the tree produced.
func (w *World) collide(stack *arena.Buffer[uint32], scratch *arena.Arena, id uint32) (*arena.Buffer[uint32], int, error) {
	entity, err := w.Entity(id)
	if err != nil {
		return nil, 0, err
	}

	result, err := arena.SplitOff[uint32](scratch, w.tree.LeafCount())
	if err != nil {
		return nil, 0, fmt.Errorf("broadphase: collisions of %d: %w", id, err)
	}

	var candidates *arena.Buffer[uint32]
	if stack == nil {
		candidates, err = w.tree.Query(scratch, entity.Bounds)
	} else {
		candidates, err = w.tree.QueryWith(stack, scratch, entity.Bounds)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("broadphase: query %d: %w", id, err)
	}

	entities := w.entities.Items()
	for _, other := range candidates.Items() {
		if other == id {
			continue
		}
		if Collides(entity, entities[other]) {
			if err := result.Push(other); err != nil {
				return nil, 0, err
			}
		}
	}

	if err := result.Finish(scratch); err != nil {
		return nil, 0, err
	}
	return result, candidates.Len(), nil
}

// FindCollisions computes the collisions of every entity. Per-entity results
// accumulate in one temporary arena split from the scratch arena; they are
// copied into the report and the temporary arena is cleared before
// returning.
func (w *World) FindCollisions(ctx context.Context) (*Report, error) {
	start := time.Now()
	report, err := w.findCollisions(ctx)
	w.finishPass(ctx, report, 1, start, err)
	return report, err
}

func (w *World) findCollisions(ctx context.Context) (*Report, error) {
	if w.isClosed() {
		return nil, ErrClosed
	}

	mark := w.scratch.Next()
	defer func() { _ = w.scratch.ShrinkTo(mark) }()

	temp, err := w.scratch.Split(usable(w.scratch.Remaining()), arena.DefaultAlignment)
	if err != nil {
		return nil, err
	}
	defer temp.Clear()

	n := w.Len()
	results := make([]*arena.Buffer[uint32], n)
	for i := range n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buf, err := w.collisionsFor(nil, temp, uint32(i)) //nolint:gosec // i < Len fits in uint32
		if err != nil {
			return nil, err
		}
		results[i] = buf
	}

	collisions := make([][]uint32, n)
	for i, buf := range results {
		collisions[i] = slices.Clone(buf.Items())
	}
	return newReport(w.entities.Items(), collisions), nil
}

// FindCollisionsParallel computes the same report as FindCollisions with up
// to workers goroutines. Each worker owns a traversal stack and a scratch
// arena, all split before any worker starts. workers <= 0 uses the
// configured maximum.
func (w *World) FindCollisionsParallel(ctx context.Context, workers int) (*Report, error) {
	start := time.Now()
	if workers <= 0 || workers > w.rc.MaxWorkers() {
		workers = w.rc.MaxWorkers()
	}
	workers = max(min(workers, w.Len()), 1)

	report, err := w.findCollisionsParallel(ctx, workers)
	w.finishPass(ctx, report, workers, start, err)
	return report, err
}

type worker struct {
	stack   *arena.Buffer[uint32]
	scratch *arena.Arena
}

func (w *World) splitWorkers(n int) ([]worker, error) {
	workers := make([]worker, n)
	for i := range workers {
		stack, err := w.tree.NewStack(w.scratch)
		if err != nil {
			return nil, fmt.Errorf("broadphase: worker stack: %w", err)
		}
		workers[i].stack = stack
	}

	per := usable(w.scratch.Remaining() / uint64(n)) //nolint:gosec // n > 0
	need := 2*w.tree.LeafCount()*4 + 2*arena.DefaultAlignment
	if per < need {
		return nil, &arena.CapacityError{
			Op:        "split workers",
			Requested: uint64(need) * uint64(n), //nolint:gosec // both positive
			Available: w.scratch.Remaining(),
		}
	}

	for i := range workers {
		scratch, err := w.scratch.Split(per, arena.DefaultAlignment)
		if err != nil {
			return nil, fmt.Errorf("broadphase: worker scratch: %w", err)
		}
		workers[i].scratch = scratch
	}
	return workers, nil
}

func (w *World) findCollisionsParallel(ctx context.Context, n int) (*Report, error) {
	if w.isClosed() {
		return nil, ErrClosed
	}

	mark := w.scratch.Next()
	defer func() { _ = w.scratch.ShrinkTo(mark) }()

	workers, err := w.splitWorkers(n)
	if err != nil {
		return nil, err
	}

	count := w.Len()
	collisions := make([][]uint32, count)

	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, wk := range workers {
		g.Go(func() error {
			if err := w.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer w.rc.ReleaseWorker()

			for {
				i := int(next.Add(1) - 1)
				if i >= count {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}

				mark := wk.scratch.Next()
				buf, err := w.collisionsFor(wk.stack, wk.scratch, uint32(i)) //nolint:gosec // i < Len fits in uint32
				if err != nil {
					return err
				}
				collisions[i] = slices.Clone(buf.Items())
				if err := wk.scratch.ShrinkTo(mark); err != nil {
					return err
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return newReport(w.entities.Items(), collisions), nil
}

// usable returns n rounded down to the default alignment, less one
// alignment step to absorb the forward alignment of the next split.
func usable(n uint64) int {
	n = min(n, math.MaxInt) &^ (arena.DefaultAlignment - 1)
	if n >= arena.DefaultAlignment {
		n -= arena.DefaultAlignment
	}
	return int(n) //nolint:gosec // clamped above
}

func (w *World) finishPass(ctx context.Context, report *Report, workers int, start time.Time, err error) {
	elapsed := time.Since(start)
	pairs := 0
	if report != nil {
		pairs = report.Pairs
	}
	w.metrics.RecordCollisionPass(w.Len(), pairs, elapsed, err)
	w.logger.LogCollisionPass(ctx, w.Len(), pairs, workers, elapsed, err)
}
