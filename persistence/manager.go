package persistence

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/broadphase/blobstore"
	"github.com/hupe1980/broadphase/codec"
	"github.com/hupe1980/broadphase/internal/resource"
)

var (
	// ErrManagerClosed is returned when operations are attempted on a closed manager.
	ErrManagerClosed = errors.New("persistence: manager is closed")

	// ErrNoSnapshot is returned by Latest when the store holds no snapshot.
	ErrNoSnapshot = errors.New("persistence: no snapshot")
)

const (
	// DefaultPrefix is the blob name prefix used for snapshots.
	DefaultPrefix = "snapshot-"
	// Extension is appended to every snapshot name.
	Extension = ".bvh"
)

// ManagerOptions configures the persistence manager.
type ManagerOptions struct {
	// Codec compresses the snapshot payload. Default: codec.Default.
	Codec codec.Codec

	// Prefix is prepended to every snapshot name. Default: DefaultPrefix.
	Prefix string

	// Resources throttles snapshot IO. Nil means unthrottled.
	Resources *resource.Controller
}

// Manager saves and loads snapshots on a blob store.
//
// Snapshot names embed a UUIDv7, so the lexical order of List is the order
// in which snapshots were saved. The Manager is safe for concurrent use.
type Manager struct {
	store  blobstore.BlobStore
	codec  codec.Codec
	prefix string
	rc     *resource.Controller

	mu     sync.RWMutex
	closed bool
}

// NewManager creates a new persistence manager on store.
func NewManager(store blobstore.BlobStore, optFns ...func(*ManagerOptions)) *Manager {
	opts := ManagerOptions{
		Codec:  codec.Default,
		Prefix: DefaultPrefix,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	return &Manager{
		store:  store,
		codec:  opts.Codec,
		prefix: opts.Prefix,
		rc:     opts.Resources,
	}
}

// Codec returns the codec used for new snapshots.
func (m *Manager) Codec() codec.Codec {
	return m.codec
}

func (m *Manager) name() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return m.prefix + id.String() + Extension, nil
}

// Save encodes snap and stores it under a fresh name, which it returns.
func (m *Manager) Save(ctx context.Context, snap *Snapshot) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", ErrManagerClosed
	}

	name, err := m.name()
	if err != nil {
		return "", fmt.Errorf("persistence: snapshot name: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(resource.NewRateLimitedWriter(ctx, &buf, m.rc), snap, m.codec); err != nil {
		return "", err
	}

	if err := m.store.Put(ctx, name, buf.Bytes()); err != nil {
		return "", fmt.Errorf("persistence: put %s: %w", name, err)
	}
	return name, nil
}

// Load reads and decodes the snapshot stored under name.
func (m *Manager) Load(ctx context.Context, name string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrManagerClosed
	}

	blob, err := m.store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", name, err)
	}
	defer blob.Close()

	r := bufio.NewReader(resource.NewRateLimitedReader(ctx, &blobReader{ctx: ctx, blob: blob}, m.rc))
	snap, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return snap, nil
}

// List returns the names of all snapshots, oldest first.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrManagerClosed
	}

	names, err := m.store.List(ctx, m.prefix)
	if err != nil {
		return nil, err
	}

	out := names[:0]
	for _, n := range names {
		if strings.HasSuffix(n, Extension) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Latest returns the name of the most recently saved snapshot.
func (m *Manager) Latest(ctx context.Context) (string, error) {
	names, err := m.List(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", ErrNoSnapshot
	}
	return names[len(names)-1], nil
}

// Delete removes the snapshot stored under name.
func (m *Manager) Delete(ctx context.Context, name string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrManagerClosed
	}
	return m.store.Delete(ctx, name)
}

// Retain deletes all but the keep most recent snapshots and returns the
// deleted names.
func (m *Manager) Retain(ctx context.Context, keep int) ([]string, error) {
	names, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(names) <= keep {
		return nil, nil
	}

	stale := names[:len(names)-keep]
	for _, n := range stale {
		if err := m.Delete(ctx, n); err != nil {
			return nil, err
		}
	}
	return stale, nil
}

// Close marks the manager closed. It does not close the store.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// blobReader adapts a Blob to io.Reader.
type blobReader struct {
	ctx  context.Context
	blob blobstore.Blob
	off  int64
}

func (r *blobReader) Read(p []byte) (int, error) {
	if r.off >= r.blob.Size() {
		return 0, io.EOF
	}
	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
