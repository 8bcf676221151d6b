package mirror

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bytesSource struct {
	mu   sync.Mutex
	data []byte
	err  error
}

func (s *bytesSource) Snapshot(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]byte(nil), s.data...), nil
}

func (s *bytesSource) set(b string) {
	s.mu.Lock()
	s.data = []byte(b)
	s.mu.Unlock()
}

func TestFileMirrorCreatesThenReplaces(t *testing.T) {
	ctx := context.Background()
	src := &bytesSource{data: []byte("v1")}
	remote := NewDir(t.TempDir(), "")
	m := NewFileMirror(src, remote, "finance_tracker.db")

	first, err := m.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 2, first.Bytes)

	src.set("v2-longer")
	second, err := m.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.NotEqual(t, first.Revision, second.Revision)

	obj, err := remote.Fetch(ctx, "finance_tracker.db")
	require.NoError(t, err)
	assert.Equal(t, "v2-longer", string(obj.Content))
	assert.Equal(t, second.Revision, obj.Revision)
}

func TestFileMirrorSnapshotFailure(t *testing.T) {
	boom := errors.New("disk gone")
	m := NewFileMirror(&bytesSource{err: boom}, NewDir(t.TempDir(), ""), "x.db")

	_, err := m.Sync(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

// staleRemote simulates another writer moving the revision between our
// Stat and Put.
type staleRemote struct {
	*Dir
}

func (r staleRemote) Put(ctx context.Context, path string, content []byte, revision string) (string, error) {
	if _, err := r.Dir.Put(ctx, path, []byte("someone else"), revision); err != nil {
		return "", err
	}
	return r.Dir.Put(ctx, path, content, revision)
}

func TestFileMirrorReportsConflict(t *testing.T) {
	ctx := context.Background()
	m := NewFileMirror(&bytesSource{data: []byte("mine")}, staleRemote{NewDir(t.TempDir(), "")}, "x.db")

	_, err := m.Sync(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTwoSyncsWithStaleRevisionOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	remote := NewDir(t.TempDir(), "")
	_, err := remote.Put(ctx, "x.db", []byte("base"), "")
	require.NoError(t, err)

	rev, err := remote.Stat(ctx, "x.db")
	require.NoError(t, err)

	// both writers read the same revision
	_, errA := remote.Put(ctx, "x.db", []byte("a"), rev)
	_, errB := remote.Put(ctx, "x.db", []byte("b"), rev)

	require.NoError(t, errA)
	assert.ErrorIs(t, errB, ErrConflict)

	obj, err := remote.Fetch(ctx, "x.db")
	require.NoError(t, err)
	assert.Equal(t, "a", string(obj.Content))
}

func TestFileMirrorSerializesConcurrentSyncs(t *testing.T) {
	ctx := context.Background()
	m := NewFileMirror(&bytesSource{data: []byte("same")}, NewDir(t.TempDir(), ""), "x.db")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Sync(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Sync(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
}
