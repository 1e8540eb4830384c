package blobstore

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps blobs on the heap. It backs tests and CLI runs that do
// not need snapshots to outlive the process.
//
// Names are kept in a sorted index next to the blob map so List is a range
// scan instead of a full sort.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	names []string
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string][]byte{}}
}

// Open returns a handle to the current contents of name. A later Put does
// not change what the handle reads.
func (m *MemoryStore) Open(_ context.Context, name string) (Blob, error) {
	m.mu.RLock()
	data, ok := m.blobs[name]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return byteBlob(data), nil
}

// Put stores a private copy of data under name.
func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	owned := slices.Clone(data)
	if owned == nil {
		owned = []byte{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[name]; !ok {
		i, _ := slices.BinarySearch(m.names, name)
		m.names = slices.Insert(m.names, i, name)
	}
	m.blobs[name] = owned
	return nil
}

// Delete removes name if present.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[name]; !ok {
		return nil
	}
	delete(m.blobs, name)
	if i, found := slices.BinarySearch(m.names, name); found {
		m.names = slices.Delete(m.names, i, i+1)
	}
	return nil
}

// List returns the names starting with prefix in lexical order.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, _ := slices.BinarySearch(m.names, prefix)
	j := i
	for j < len(m.names) && strings.HasPrefix(m.names[j], prefix) {
		j++
	}
	return slices.Clone(m.names[i:j]), nil
}

// byteBlob serves reads from an immutable byte slice.
type byteBlob []byte

func (b byteBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b byteBlob) Close() error { return nil }

func (b byteBlob) Size() int64 { return int64(len(b)) }
