package arena

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/broadphase/internal/conv"
)

// The typed helpers below place values of T in arena memory. The garbage
// collector does not scan arena memory, so T must not contain Go pointers,
// slices, strings, maps, channels, funcs or interfaces.

func layout[T any]() (size, align int, err error) {
	var zero T
	size = int(unsafe.Sizeof(zero))
	if size == 0 {
		return 0, 0, fmt.Errorf("%w: zero-sized type %T", ErrInvalidSize, zero)
	}
	return size, int(unsafe.Alignof(zero)), nil
}

// AllocSlice allocates n contiguous values of T.
func AllocSlice[T any](a *Arena, n int) (Offset, []T, error) {
	size, align, err := layout[T]()
	if err != nil {
		return 0, nil, err
	}
	total, err := elemBytes(n, size)
	if err != nil {
		return 0, nil, err
	}
	off, err := a.alloc("alloc", total, align)
	if err != nil {
		return 0, nil, err
	}
	if n == 0 {
		return off, nil, nil
	}
	return off, unsafe.Slice((*T)(a.pointer(off)), n), nil
}

// NewValue allocates a single value of T.
func NewValue[T any](a *Arena) (Offset, *T, error) {
	off, s, err := AllocSlice[T](a, 1)
	if err != nil {
		return 0, nil, err
	}
	return off, &s[0], nil
}

// BeginType returns the offset the next value of T would be placed at.
func BeginType[T any](a *Arena) (Offset, error) {
	_, align, err := layout[T]()
	if err != nil {
		return 0, err
	}
	return a.Begin(align)
}

// SplitType splits off an arena sized for n values of T.
func SplitType[T any](a *Arena, n int) (*Arena, error) {
	size, align, err := layout[T]()
	if err != nil {
		return nil, err
	}
	total, err := elemBytes(n, size)
	if err != nil {
		return nil, err
	}
	return a.Split(total, align)
}

// Push appends v at the cursor.
func Push[T any](a *Arena, v T) (Offset, error) {
	off, p, err := NewValue[T](a)
	if err != nil {
		return 0, err
	}
	*p = v
	return off, nil
}

// Pop removes the value of T directly below the cursor and returns it.
func Pop[T any](a *Arena) (T, error) {
	var zero T
	size, _, err := layout[T]()
	if err != nil {
		return zero, err
	}
	off, err := a.PopSize(size)
	if err != nil {
		return zero, err
	}
	return *(*T)(a.pointer(off)), nil
}

// FinishArray shrinks the arena so that it ends right after count values of
// T starting at base.
func FinishArray[T any](a *Arena, base Offset, count int) error {
	size, _, err := layout[T]()
	if err != nil {
		return err
	}
	total, err := elemBytes(count, size)
	if err != nil {
		return err
	}
	return a.ShrinkTo(base + Offset(total))
}

// View returns the n values of T at off. The range must be live.
func View[T any](a *Arena, off Offset, n int) []T {
	size, align, err := layout[T]()
	if err != nil {
		panic(err)
	}
	if n < 0 {
		panic(fmt.Sprintf("arena: negative length %d", n))
	}
	if uint64(off)%uint64(align) != 0 {
		panic(fmt.Sprintf("arena: offset %d not aligned to %d", off, align))
	}
	if n == 0 {
		return nil
	}
	a.checkLive(off, uint64(n)*uint64(size))
	return unsafe.Slice((*T)(a.pointer(off)), n)
}

func elemBytes(n, size int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: count %d", ErrInvalidSize, n)
	}
	total, err := conv.MulInt(n, size)
	if err != nil {
		return 0, fmt.Errorf("%w: %d elements of %d bytes: %w", ErrInvalidSize, n, size, err)
	}
	return total, nil
}
