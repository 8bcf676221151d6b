package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStatMissing(t *testing.T) {
	_, err := NewDir(t.TempDir(), "").Stat(context.Background(), "nope.db")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirCreateRequiresNoRevision(t *testing.T) {
	ctx := context.Background()
	d := NewDir(t.TempDir(), "")

	_, err := d.Put(ctx, "x.db", []byte("1"), "deadbeef")
	assert.ErrorIs(t, err, ErrConflict, "revision given for a missing object")

	_, err = d.Put(ctx, "x.db", []byte("1"), "")
	require.NoError(t, err)

	_, err = d.Put(ctx, "x.db", []byte("2"), "")
	assert.ErrorIs(t, err, ErrConflict, "blind create over an existing object")
}

func TestDirEncryptsAtRest(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d := NewDir(root, "backup-key")

	_, err := d.Put(ctx, "nested/x.db", []byte("SQLite format 3"), "")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(root, "nested", "x.db"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "SQLite")

	obj, err := d.Fetch(ctx, "nested/x.db")
	require.NoError(t, err)
	assert.Equal(t, "SQLite format 3", string(obj.Content))

	_, err = NewDir(root, "wrong-key").Fetch(ctx, "nested/x.db")
	assert.Error(t, err)
}

func TestDirPathStaysInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d := NewDir(filepath.Join(root, "mirror"), "")

	_, err := d.Put(ctx, "../escape.db", []byte("x"), "")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "escape.db"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "mirror", "escape.db"))
	assert.NoError(t, err)
}
