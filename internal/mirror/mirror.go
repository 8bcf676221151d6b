// Package mirror pushes a full copy of the ledger's backing file to a remote
// content store after each write.
//
// The only strategy implemented is whole-file replace: every Sync uploads
// the entire snapshot. A remote that falls behind is caught up by the next
// successful Sync. Nothing is queued or retried after a conflict.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned by Remote.Stat and Remote.Fetch when no
	// object exists at the path.
	ErrNotFound = errors.New("mirror: remote object not found")
	// ErrConflict means the remote revision moved since it was read.
	ErrConflict = errors.New("mirror: remote revision conflict")
	// ErrUnauthorized means the remote rejected the credential.
	ErrUnauthorized = errors.New("mirror: remote rejected credentials")
	// ErrDisabled is returned by Disabled.Sync.
	ErrDisabled = errors.New("mirror: sync disabled")
)

// Source produces the bytes to upload.
type Source interface {
	Snapshot(ctx context.Context) ([]byte, error)
}

// Object is a blob stored on a Remote.
type Object struct {
	Path     string
	Revision string
	Content  []byte
}

// Remote is a content store addressed by path with opaque revision markers.
type Remote interface {
	// Stat returns the current revision of path, or ErrNotFound.
	Stat(ctx context.Context, path string) (string, error)
	// Put creates path when revision is empty, otherwise replaces it only if
	// its current revision equals revision. Returns the new revision.
	Put(ctx context.Context, path string, content []byte, revision string) (string, error)
	// Fetch downloads path.
	Fetch(ctx context.Context, path string) (*Object, error)
}

// Result describes one successful Sync.
type Result struct {
	Path     string        `json:"path"`
	Revision string        `json:"revision"`
	Created  bool          `json:"created"`
	Bytes    int           `json:"bytes"`
	Duration time.Duration `json:"duration"`
}

// Mirror copies local state to a remote.
type Mirror interface {
	Sync(ctx context.Context) (*Result, error)
}

// FileMirror uploads the whole snapshot of source to one remote path.
// Concurrent Sync calls on the same FileMirror run one at a time.
type FileMirror struct {
	mu     sync.Mutex
	source Source
	remote Remote
	path   string
}

var _ Mirror = (*FileMirror)(nil)

func NewFileMirror(source Source, remote Remote, path string) *FileMirror {
	return &FileMirror{source: source, remote: remote, path: path}
}

// Sync reads the snapshot, looks up the remote revision and uploads
// conditionally on it. A conflict is returned to the caller, not retried.
func (m *FileMirror) Sync(ctx context.Context) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()

	blob, err := m.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	rev, err := m.remote.Stat(ctx, m.path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("stat %s: %w", m.path, err)
	}

	newRev, err := m.remote.Put(ctx, m.path, blob, rev)
	if err != nil {
		return nil, fmt.Errorf("put %s: %w", m.path, err)
	}

	return &Result{
		Path:     m.path,
		Revision: newRev,
		Created:  rev == "",
		Bytes:    len(blob),
		Duration: time.Since(start),
	}, nil
}

// Disabled is used when no remote is configured.
type Disabled struct{}

func (Disabled) Sync(context.Context) (*Result, error) {
	return nil, ErrDisabled
}
