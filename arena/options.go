package arena

// MemoryAcquirer is charged for every committed granule.
// It is satisfied by *resource.Controller.
type MemoryAcquirer interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// CommitFunc is called after pages have been committed.
type CommitFunc func(bytes int64)

type options struct {
	commitSize int
	acquirer   MemoryAcquirer
	onCommit   CommitFunc
	random     bool
}

// Option configures a root arena.
type Option func(*options)

// WithCommitSize sets the commit granularity. It is rounded up to a multiple
// of the page size.
func WithCommitSize(n int) Option {
	return func(o *options) {
		o.commitSize = n
	}
}

// WithMemoryAcquirer charges committed memory against a budget.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(o *options) {
		o.acquirer = acquirer
	}
}

// WithCommitHook registers fn to observe commits.
func WithCommitHook(fn CommitFunc) Option {
	return func(o *options) {
		o.onCommit = fn
	}
}

// WithRandomAccess advises the kernel that committed pages are read in no
// particular order, which turns off readahead for them.
func WithRandomAccess() Option {
	return func(o *options) {
		o.random = true
	}
}
