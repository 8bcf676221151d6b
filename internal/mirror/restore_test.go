package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestore(t *testing.T) {
	ctx := context.Background()
	remote := NewDir(t.TempDir(), "k")
	rev, err := remote.Put(ctx, "finance_tracker.db", []byte("remote copy"), "")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "data", "finance_tracker.db")
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
	require.NoError(t, os.WriteFile(dest, []byte("local copy"), 0o600))
	require.NoError(t, os.WriteFile(dest+"-wal", []byte("stale wal"), 0o600))

	obj, err := Restore(ctx, remote, "finance_tracker.db", dest)
	require.NoError(t, err)
	assert.Equal(t, rev, obj.Revision)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "remote copy", string(got))

	_, err = os.Stat(dest + "-wal")
	assert.True(t, os.IsNotExist(err))
}

func TestRestoreMissing(t *testing.T) {
	_, err := Restore(context.Background(), NewDir(t.TempDir(), ""), "x.db", filepath.Join(t.TempDir(), "x.db"))
	assert.ErrorIs(t, err, ErrNotFound)
}
