// Package broadphase finds colliding spheres with a dynamic bounding volume
// hierarchy whose memory comes entirely from one reserved address range.
//
// # Quick Start
//
//	w, err := broadphase.New(1024)
//	if err != nil { ... }
//	defer w.Close()
//
//	for _, s := range spheres {
//	    if _, err := w.Add(s.Center, s.Radius); err != nil { ... }
//	}
//
//	report, err := w.FindCollisions(ctx)
//	report.WriteTo(os.Stdout)
//
// # Memory Model
//
// A World reserves address space up front (1 GiB by default) and commits
// pages only as they are touched. The reservation is carved into regions
// with arena splitting:
//
//	root arena
//	├── bvh node array     2*maxEntities nodes
//	├── bvh traversal stack
//	├── entity array       maxEntities entities
//	└── scratch arena      everything else
//
// Regions never move, so pointers and slices into them stay valid until
// Close. Writing past a region's capacity is ErrCapacityExceeded, never a
// relocation.
//
// # Collision Passes
//
// FindCollisions queries the tree once per entity (broad phase) and keeps
// the candidates whose spheres overlap (narrow phase). Results accumulate in
// a temporary arena split from the scratch arena and are copied into the
// Report before the arena is cleared.
//
// FindCollisionsParallel produces the same Report with several goroutines.
// Each worker owns a traversal stack and a scratch arena, all split before
// the workers start; the tree is shared read-only.
//
// # Persistence
//
//	mgr := persistence.NewManager(blobstore.NewLocalStore("./snapshots"))
//	name, err := w.Save(ctx, mgr)
//	restored, err := broadphase.Load(ctx, mgr, name)
//
// # Observability
//
//   - Logger: structured logging via log/slog
//   - MetricsCollector: per-operation hooks; see metrics/prom for Prometheus
package broadphase
