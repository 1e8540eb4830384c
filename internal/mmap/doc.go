// Package mmap provides reserve/commit access to anonymous virtual memory.
//
// # Overview
//
// A Reservation claims a contiguous range of address space without binding
// physical pages to it. Pages become usable only after Commit is called for
// the sub-range that contains them. This lets callers reserve a theoretical
// worst case (gigabytes) while paying only for what they touch.
//
// # Usage
//
//	r, err := mmap.Reserve(1 << 30)
//	if err != nil { ... }
//	defer r.Close()
//
//	// Bind the first 512 KiB.
//	if err := r.Commit(0, 512<<10); err != nil { ... }
//	data := r.Bytes()[:512<<10]
//
// # Platform Support
//
//   - Unix: mmap(2) with PROT_NONE, committed with mprotect(2), hints via madvise(2)
//   - Windows: VirtualAlloc with MEM_RESERVE, committed with MEM_COMMIT
//   - Other: a zeroed heap slice; Commit is a no-op
//
// # Thread Safety
//
// Commit may be called concurrently for disjoint ranges. Close is idempotent
// and protected by an atomic flag; callers must ensure nothing touches
// Bytes() after Close returns.
package mmap
