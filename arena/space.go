package arena

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/broadphase/internal/conv"
	"github.com/hupe1980/broadphase/internal/mmap"
)

// DefaultCommitSize is the granularity at which pages are committed (512 KiB).
const DefaultCommitSize = 128 * 4 * 1024

// space is one reservation shared by a root arena and every arena split from it.
//
// Committed granules are tracked in a bitmap so that each granule is committed
// exactly once, no matter how many sibling arenas touch it. The mutex makes
// commits from sibling arenas used on different goroutines safe.
type space struct {
	res        *mmap.Reservation
	data       []byte
	size       uint64
	commitSize uint64

	mu        sync.Mutex
	committed *roaring.Bitmap
	charged   int64

	commitCalls    atomic.Uint64
	committedBytes atomic.Uint64
	released       atomic.Bool

	acquirer MemoryAcquirer
	onCommit CommitFunc
	random   bool
}

func newSpace(reserveSize int, o options) (*space, error) {
	if reserveSize <= 0 {
		return nil, fmt.Errorf("%w: reserve size %d", ErrInvalidSize, reserveSize)
	}

	page := mmap.PageSize()
	commitSize := o.commitSize
	if commitSize <= 0 {
		commitSize = DefaultCommitSize
	}
	commitSize = (commitSize + page - 1) / page * page

	// Round the reservation to whole granules so the last granule is never partial.
	granules := (reserveSize + commitSize - 1) / commitSize
	if uint64(granules) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d granules of %d bytes", ErrInvalidSize, granules, commitSize)
	}
	total, err := conv.MulInt(granules, commitSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSize, err)
	}

	res, err := mmap.Reserve(total)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReservationFailure, err)
	}

	size, _ := conv.IntToUint64(res.Size())
	cs, _ := conv.IntToUint64(commitSize)

	return &space{
		res:        res,
		data:       res.Bytes(),
		size:       size,
		commitSize: cs,
		committed:  roaring.New(),
		acquirer:   o.acquirer,
		onCommit:   o.onCommit,
		random:     o.random,
	}, nil
}

func (s *space) granule(off Offset) uint32 {
	return uint32(uint64(off) / s.commitSize) //nolint:gosec // bounded by newSpace
}

// ensure commits every granule overlapping [lo, hi).
func (s *space) ensure(lo, hi Offset) error {
	if hi <= lo {
		return nil
	}
	if s.released.Load() {
		return ErrReleased
	}

	first, last := s.granule(lo), s.granule(hi-1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.covered(first, last) {
		return nil
	}

	for g := first; g <= last; g++ {
		if s.committed.Contains(g) {
			continue
		}
		end := g
		for end < last && !s.committed.Contains(end+1) {
			end++
		}
		if err := s.commitRunLocked(g, end); err != nil {
			return err
		}
		g = end
	}
	return nil
}

func (s *space) covered(first, last uint32) bool {
	want := uint64(last-first) + 1
	have := s.committed.Rank(last)
	if first > 0 {
		have -= s.committed.Rank(first - 1)
	}
	return have == want
}

func (s *space) commitRunLocked(first, last uint32) error {
	off := uint64(first) * s.commitSize
	n := (uint64(last-first) + 1) * s.commitSize
	n = min(n, s.size-off)

	bytes := int64(n) //nolint:gosec // n <= reservation size
	if s.acquirer != nil {
		if err := s.acquirer.AcquireMemory(bytes); err != nil {
			return fmt.Errorf("%w: commit %d bytes at %d: %w", ErrReservationFailure, n, off, err)
		}
	}

	if err := s.res.Commit(int(off), int(n)); err != nil { //nolint:gosec // bounded by reservation size
		if s.acquirer != nil {
			s.acquirer.ReleaseMemory(bytes)
		}
		return fmt.Errorf("%w: %w", ErrReservationFailure, err)
	}

	if s.random {
		// Advice is a hint; a refusal leaves the pages usable.
		_ = s.res.Advise(int(off), int(n), mmap.AccessRandom) //nolint:gosec // bounded by reservation size
	}

	s.committed.AddRange(uint64(first), uint64(last)+1)
	s.charged += bytes
	s.commitCalls.Add(1)
	s.committedBytes.Add(n)

	if s.onCommit != nil {
		s.onCommit(bytes)
	}
	return nil
}

func (s *space) bytes(off Offset, n uint64) []byte {
	return s.data[off : uint64(off)+n : uint64(off)+n]
}

func (s *space) release() error {
	if s.released.Swap(true) {
		return nil
	}

	s.mu.Lock()
	charged := s.charged
	s.charged = 0
	s.committed.Clear()
	s.mu.Unlock()

	if s.acquirer != nil && charged > 0 {
		s.acquirer.ReleaseMemory(charged)
	}
	if err := s.res.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrReservationFailure, err)
	}
	return nil
}
