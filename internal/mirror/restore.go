package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Restore downloads path from remote and writes it to dest, replacing any
// existing file. The database at dest must not be open. Stale -wal and -shm
// files next to dest are removed so SQLite does not replay them onto the
// restored copy.
func Restore(ctx context.Context, remote Remote, path, dest string) (*Object, error) {
	obj, err := remote.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}

	if dir := filepath.Dir(dest); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	tmp := dest + ".restore"
	if err := os.WriteFile(tmp, obj.Content, 0o600); err != nil {
		return nil, fmt.Errorf("write %s: %w", tmp, err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dest + suffix); err != nil && !os.IsNotExist(err) {
			_ = os.Remove(tmp)
			return nil, fmt.Errorf("remove %s: %w", dest+suffix, err)
		}
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("rename %s: %w", tmp, err)
	}
	return obj, nil
}
