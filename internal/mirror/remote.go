package mirror

import (
	"fmt"
	"time"

	"finance-tracker/internal/config"
)

// NewRemote builds the backend named by cfg.Backend. encryptKey only
// applies to the dir backend.
func NewRemote(cfg config.MirrorConfig, encryptKey string) (Remote, error) {
	switch cfg.Backend {
	case "github":
		return NewGitHub(GitHubOptions{
			APIURL:     cfg.APIURL,
			Owner:      cfg.Owner,
			Repo:       cfg.Repo,
			Branch:     cfg.Branch,
			Token:      cfg.Token,
			MaxRetries: cfg.MaxRetries,
			Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		}), nil
	case "dir":
		return NewDir(cfg.Dir, encryptKey), nil
	}
	return nil, fmt.Errorf("mirror: unknown backend %q", cfg.Backend)
}

// New returns a FileMirror over source when mirroring is enabled, and
// Disabled otherwise.
func New(cfg config.MirrorConfig, encryptKey string, source Source) (Mirror, error) {
	if !cfg.Enabled {
		return Disabled{}, nil
	}
	remote, err := NewRemote(cfg, encryptKey)
	if err != nil {
		return nil, err
	}
	return NewFileMirror(source, remote, cfg.Path), nil
}
