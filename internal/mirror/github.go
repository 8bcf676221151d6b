package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v66/github"
)

// check it meets the interface
var _ Remote = &GitHub{}

// GitHubOptions configures the contents API client.
type GitHubOptions struct {
	APIURL     string // defaults to https://api.github.com
	Owner      string
	Repo       string
	Branch     string
	Token      string
	MaxRetries int           // retries for transport errors and 5xx; 0 means one attempt
	Timeout    time.Duration // per request
	Client     *http.Client
	Now        func() time.Time
}

// GitHub stores the blob as a file in a repository through the contents
// API. The file's blob sha is the revision marker.
type GitHub struct {
	client     *github.Client
	owner      string
	repo       string
	branch     string
	maxRetries uint64
	timeout    time.Duration
	now        func() time.Time
}

func NewGitHub(opts GitHubOptions) *GitHub {
	client := github.NewClient(opts.Client)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}
	if base := strings.TrimRight(opts.APIURL, "/"); base != "" {
		if u, err := url.Parse(base + "/"); err == nil {
			client.BaseURL = u
		}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &GitHub{
		client:     client,
		owner:      opts.Owner,
		repo:       opts.Repo,
		branch:     opts.Branch,
		maxRetries: uint64(retries),
		timeout:    opts.Timeout,
		now:        now,
	}
}

func (g *GitHub) Stat(ctx context.Context, path string) (string, error) {
	c, err := g.get(ctx, path)
	if err != nil {
		return "", err
	}
	return c.GetSHA(), nil
}

func (g *GitHub) Fetch(ctx context.Context, path string) (*Object, error) {
	c, err := g.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var data []byte
	if c.GetEncoding() == "none" {
		// files over 1MB come back without inline content
		err = g.call(ctx, func(ctx context.Context) (*github.Response, error) {
			rc, resp, err := g.client.Repositories.DownloadContents(ctx, g.owner, g.repo, path, g.ref())
			if err != nil {
				return resp, err
			}
			defer rc.Close()
			data, err = io.ReadAll(rc)
			return resp, err
		})
		if err != nil {
			return nil, err
		}
	} else {
		s, err := c.GetContent()
		if err != nil {
			return nil, fmt.Errorf("decode content: %w", err)
		}
		data = []byte(s)
	}

	return &Object{Path: path, Revision: c.GetSHA(), Content: data}, nil
}

func (g *GitHub) ref() *github.RepositoryContentGetOptions {
	return &github.RepositoryContentGetOptions{Ref: g.branch}
}

func (g *GitHub) get(ctx context.Context, path string) (*github.RepositoryContent, error) {
	var file *github.RepositoryContent
	err := g.call(ctx, func(ctx context.Context) (*github.Response, error) {
		f, _, resp, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path, g.ref())
		file = f
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("mirror: %s is a directory", path)
	}
	return file, nil
}

func (g *GitHub) Put(ctx context.Context, path string, content []byte, revision string) (string, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(fmt.Sprintf("Update %s on %s", path, g.now().Format(time.RFC3339))),
		Content: content,
	}
	if g.branch != "" {
		opts.Branch = github.String(g.branch)
	}

	var out *github.RepositoryContentResponse
	err := g.call(ctx, func(ctx context.Context) (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		if revision == "" {
			out, resp, err = g.client.Repositories.CreateFile(ctx, g.owner, g.repo, path, opts)
		} else {
			opts.SHA = github.String(revision)
			out, resp, err = g.client.Repositories.UpdateFile(ctx, g.owner, g.repo, path, opts)
		}
		return resp, err
	})
	if err != nil {
		return "", err
	}
	if out == nil || out.Content == nil {
		return "", errors.New("mirror: put response without content")
	}
	return out.Content.GetSHA(), nil
}

// call runs fn, retrying transport errors and 5xx responses. Any other
// failure is mapped to the package errors and returned at once.
func (g *GitHub) call(ctx context.Context, fn func(context.Context) (*github.Response, error)) error {
	op := func() error {
		reqCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		resp, err := fn(reqCtx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if resp == nil || resp.StatusCode >= 500 {
			// they're having trouble, best to retry
			return err
		}
		return backoff.Permanent(statusError(resp.StatusCode, err))
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.maxRetries), ctx)
	return backoff.Retry(op, b)
}

func statusError(status int, err error) error {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, status)
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// 409: sha does not match; 422: sha missing for an existing file
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return fmt.Errorf("mirror: unexpected status %d: %w", status, err)
}
