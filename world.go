package broadphase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hupe1980/broadphase/arena"
	"github.com/hupe1980/broadphase/bvh"
	"github.com/hupe1980/broadphase/internal/resource"
)

// World owns every piece of memory a collision run needs: one root arena
// that holds the BVH, the entity array and a scratch arena for query
// results.
//
// Add and the collision passes must not run concurrently with each other.
// FindCollisionsParallel is internally concurrent; the tree is read-only
// while it runs.
type World struct {
	root     *arena.Arena
	tree     *bvh.Tree
	entities *arena.Buffer[Entity]
	scratch  *arena.Arena
	rc       *resource.Controller

	logger  *Logger
	metrics MetricsCollector

	mu     sync.Mutex
	closed bool
}

// New creates an empty world for up to maxEntities entities.
func New(maxEntities int, optFns ...Option) (*World, error) {
	return newWorld(maxEntities, applyOptions(optFns), func(root *arena.Arena) (*bvh.Tree, error) {
		return bvh.New(root, maxEntities)
	})
}

func newWorld(maxEntities int, o options, buildTree func(*arena.Arena) (*bvh.Tree, error)) (*World, error) {
	if maxEntities < 0 || maxEntities > math.MaxUint32/2 {
		return nil, fmt.Errorf("%w: max entities %d", arena.ErrInvalidSize, maxEntities)
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes: o.memoryLimit,
		MaxWorkers:       int64(o.maxWorkers),
	})

	metrics := o.metricsCollector
	root, err := arena.New(o.reserveSize,
		arena.WithCommitSize(o.commitSize),
		arena.WithMemoryAcquirer(rc),
		arena.WithCommitHook(metrics.RecordCommit),
		arena.WithRandomAccess(),
	)
	if err != nil {
		return nil, fmt.Errorf("broadphase: root arena: %w", err)
	}

	w := &World{root: root, rc: rc, logger: o.logger, metrics: metrics}
	if err := w.layout(maxEntities, o.scratchSize, buildTree); err != nil {
		_ = root.Release()
		return nil, err
	}

	w.logger.Debug("world created",
		"max_entities", maxEntities,
		"reserved", root.Stats().ReservedBytes,
		"scratch", w.scratch.Cap(),
	)
	return w, nil
}

func (w *World) layout(maxEntities, scratchSize int, buildTree func(*arena.Arena) (*bvh.Tree, error)) error {
	tree, err := buildTree(w.root)
	if err != nil {
		return fmt.Errorf("broadphase: tree: %w", err)
	}
	entities, err := arena.SplitOff[Entity](w.root, maxEntities)
	if err != nil {
		return fmt.Errorf("broadphase: entity array: %w", err)
	}

	if scratchSize <= 0 {
		scratchSize = usable(w.root.Remaining())
	}
	scratch, err := w.root.Split(scratchSize, arena.DefaultAlignment)
	if err != nil {
		return fmt.Errorf("broadphase: scratch arena: %w", err)
	}

	w.tree = tree
	w.entities = entities
	w.scratch = scratch
	return nil
}

// Add inserts the entity at position with radius and returns its id, which
// is its insertion index.
func (w *World) Add(position bvh.Vector, radius float32) (uint32, error) {
	start := time.Now()
	id, err := w.add(NewEntity(position, radius))
	w.metrics.RecordInsert(time.Since(start), err)
	w.logger.LogInsert(context.Background(), id, err)
	return id, err
}

func (w *World) add(e Entity) (uint32, error) {
	if w.isClosed() {
		return 0, ErrClosed
	}

	n := w.entities.Len()
	if n == w.entities.Cap() {
		return 0, &arena.CapacityError{Op: "add", Requested: 1, Available: 0}
	}
	id := uint32(n) //nolint:gosec // capacity fits in uint32

	if _, err := w.tree.Insert(id, e.Bounds); err != nil {
		return 0, err
	}
	if err := w.entities.Push(e); err != nil {
		return 0, err
	}
	return id, nil
}

// Entity returns the entity with the given id.
func (w *World) Entity(id uint32) (Entity, error) {
	if int64(id) >= int64(w.entities.Len()) {
		return Entity{}, &UnknownEntityError{ID: id, Len: w.entities.Len()}
	}
	return w.entities.At(int(id)), nil
}

// Entities returns all entities indexed by id. The slice aliases arena
// memory and is valid until Close.
func (w *World) Entities() []Entity {
	return w.entities.Items()
}

// Len returns the number of entities.
func (w *World) Len() int {
	return w.entities.Len()
}

// Cap returns the maximum number of entities.
func (w *World) Cap() int {
	return w.entities.Cap()
}

// Tree returns the world's BVH.
func (w *World) Tree() *bvh.Tree {
	return w.tree
}

// Scratch returns the arena collision passes allocate their results from.
func (w *World) Scratch() *arena.Arena {
	return w.scratch
}

// Stats reports the memory usage of the root arena.
func (w *World) Stats() arena.Stats {
	return w.root.Stats()
}

func (w *World) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Close releases the whole reservation. Every slice handed out by the world
// is invalid afterwards. Close is idempotent.
func (w *World) Close() error {
	if w == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.root.Release()
}
