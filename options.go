package broadphase

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/broadphase/arena"
)

// DefaultReserveSize is the address space a World reserves when none is
// configured. Only the pages actually touched are committed.
const DefaultReserveSize = 1 << 30

type options struct {
	reserveSize      int
	commitSize       int
	memoryLimit      int64
	scratchSize      int
	maxWorkers       int
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a World.
type Option func(*options)

// WithReserveSize sets the address space reserved for the world's root arena.
// It must cover the tree, the entity array and the scratch arena.
func WithReserveSize(bytes int) Option {
	return func(o *options) {
		o.reserveSize = bytes
	}
}

// WithCommitSize sets the granularity at which the root arena commits pages.
func WithCommitSize(bytes int) Option {
	return func(o *options) {
		o.commitSize = bytes
	}
}

// WithMemoryLimit caps the bytes the world may commit. Zero means unlimited.
// Exceeding the cap surfaces as ErrReservationFailure.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithScratchSize sets the size of the scratch arena used by collision
// passes. By default the scratch arena takes whatever the reservation has
// left once the tree and the entity array are placed.
func WithScratchSize(bytes int) Option {
	return func(o *options) {
		o.scratchSize = bytes
	}
}

// WithMaxWorkers caps the goroutines FindCollisionsParallel may run at once.
// Zero or a negative value means GOMAXPROCS, which is also the default.
func WithMaxWorkers(n int) Option {
	return func(o *options) {
		o.maxWorkers = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &broadphase.BasicMetricsCollector{}
//	w, _ := broadphase.New(1024, broadphase.WithMetricsCollector(metrics))
//	// ... use w ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, Avg latency: %dns\n", stats.QueryCount, stats.QueryAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
//	logger := broadphase.NewJSONLogger(slog.LevelInfo)
//	w, _ := broadphase.New(1024, broadphase.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		reserveSize:      DefaultReserveSize,
		commitSize:       arena.DefaultCommitSize,
		maxWorkers:       runtime.GOMAXPROCS(0),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.maxWorkers <= 0 {
		o.maxWorkers = runtime.GOMAXPROCS(0)
	}
	return o
}
