package mirror

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"finance-tracker/internal/util"

	"github.com/google/uuid"
)

var _ Remote = &Dir{}

// Dir keeps the mirrored blob in a local directory, e.g. a mounted NAS
// share. With an encryption key the stored bytes are AES-GCM encrypted.
// The revision is the SHA-256 of the stored bytes.
type Dir struct {
	root       string
	encryptKey string

	// guards the read-compare-rename in Put within this process
	mu sync.Mutex
}

func NewDir(root, encryptKey string) *Dir {
	return &Dir{root: root, encryptKey: encryptKey}
}

func (d *Dir) file(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if clean == "/" {
		return "", fmt.Errorf("mirror: empty path")
	}
	return filepath.Join(d.root, strings.TrimPrefix(clean, "/")), nil
}

func revisionOf(stored []byte) string {
	sum := sha256.Sum256(stored)
	return hex.EncodeToString(sum[:])
}

func (d *Dir) read(path string) ([]byte, error) {
	name, err := d.file(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}

func (d *Dir) Stat(ctx context.Context, path string) (string, error) {
	b, err := d.read(path)
	if err != nil {
		return "", err
	}
	return revisionOf(b), nil
}

func (d *Dir) Put(ctx context.Context, path string, content []byte, revision string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := d.file(path)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	current, err := d.read(path)
	switch {
	case errors.Is(err, ErrNotFound):
		if revision != "" {
			return "", fmt.Errorf("%w: %s no longer exists", ErrConflict, path)
		}
	case err != nil:
		return "", err
	default:
		if revision == "" {
			return "", fmt.Errorf("%w: %s already exists", ErrConflict, path)
		}
		if revisionOf(current) != revision {
			return "", fmt.Errorf("%w: %s changed since revision %s", ErrConflict, path, revision)
		}
	}

	stored := content
	if d.encryptKey != "" {
		stored, err = util.EncryptAES(d.encryptKey, content)
		if err != nil {
			return "", fmt.Errorf("encrypt: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return "", fmt.Errorf("create mirror dir: %w", err)
	}
	// write aside and rename so readers never see a partial file
	tmp := fmt.Sprintf("%s.%s.tmp", name, uuid.New().String())
	if err := os.WriteFile(tmp, stored, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, name); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", tmp, err)
	}
	return revisionOf(stored), nil
}

func (d *Dir) Fetch(ctx context.Context, path string) (*Object, error) {
	stored, err := d.read(path)
	if err != nil {
		return nil, err
	}
	content := stored
	if d.encryptKey != "" {
		content, err = util.DecryptAES(d.encryptKey, stored)
		if err != nil {
			return nil, fmt.Errorf("decrypt %s: %w", path, err)
		}
	}
	return &Object{Path: path, Revision: revisionOf(stored), Content: content}, nil
}
