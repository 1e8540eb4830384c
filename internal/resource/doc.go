// Package resource enforces process-wide budgets for the broad phase.
//
// A Controller manages three resources:
//
//   - Memory: bytes committed by arenas (non-blocking, fail-fast)
//   - Workers: concurrent collision workers
//   - IO: snapshot upload and download throughput (token bucket)
//
// # Memory
//
// Arenas charge every granule they commit through AcquireMemory. The call
// never blocks; a refusal surfaces as a reservation failure on the arena
// operation that needed the pages:
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 30})
//	a, err := arena.New(64<<30, arena.WithMemoryAcquirer(rc))
//
// # Workers
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
// # IO
//
//	w := resource.NewRateLimitedWriter(ctx, dst, rc)
//
// All methods are safe for concurrent use and treat a nil Controller as
// unlimited.
package resource
