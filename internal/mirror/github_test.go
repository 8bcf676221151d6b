package mirror

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContent struct {
	SHA      string `json:"sha"`
	Path     string `json:"path"`
	Type     string `json:"type,omitempty"`
	Content  string `json:"content,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

type fakePut struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha"`
}

// fakeContents is a minimal contents API that enforces sha preconditions
// the way GitHub does.
type fakeContents struct {
	t     *testing.T
	token string

	mu    sync.Mutex
	files map[string][]byte
	puts  []fakePut

	failNext atomic.Int32 // respond 503 this many times first
}

func newFakeContents(t *testing.T) (*fakeContents, *httptest.Server) {
	f := &fakeContents{t: t, token: "tkn", files: map[string][]byte{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func blobSHA(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

func (f *fakeContents) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.failNext.Load() > 0 {
		f.failNext.Add(-1)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	const prefix = "/repos/me/ledger/contents/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, prefix)

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		assert.Equal(f.t, "main", r.URL.Query().Get("ref"))
		b, ok := f.files[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		enc := base64.StdEncoding.EncodeToString(b)
		// wrap like the real API
		var wrapped strings.Builder
		for len(enc) > 60 {
			wrapped.WriteString(enc[:60] + "\n")
			enc = enc[60:]
		}
		wrapped.WriteString(enc)
		json.NewEncoder(w).Encode(fakeContent{SHA: blobSHA(b), Path: path, Type: "file", Content: wrapped.String(), Encoding: "base64"})

	case http.MethodPut:
		var req fakePut
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.puts = append(f.puts, req)

		cur, exists := f.files[path]
		switch {
		case exists && req.SHA == "":
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":"\"sha\" wasn't supplied."}`))
			return
		case exists && req.SHA != blobSHA(cur):
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"message":"does not match"}`))
			return
		}
		b, err := base64.StdEncoding.DecodeString(req.Content)
		require.NoError(f.t, err)
		f.files[path] = b

		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]fakeContent{"content": {SHA: blobSHA(b), Path: path, Type: "file"}})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestGitHub(srv *httptest.Server, token string, retries int) *GitHub {
	return NewGitHub(GitHubOptions{
		APIURL:     srv.URL,
		Owner:      "me",
		Repo:       "ledger",
		Branch:     "main",
		Token:      token,
		MaxRetries: retries,
		Timeout:    5 * time.Second,
		Now:        func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) },
	})
}

func TestGitHubCreateThenReplace(t *testing.T) {
	ctx := context.Background()
	fake, srv := newFakeContents(t)
	gh := newTestGitHub(srv, "tkn", 0)

	_, err := gh.Stat(ctx, "finance_tracker.db")
	assert.ErrorIs(t, err, ErrNotFound)

	m := NewFileMirror(&bytesSource{data: []byte(strings.Repeat("x", 200))}, gh, "finance_tracker.db")
	res, err := m.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, res.Created)

	res2, err := m.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, res2.Created)

	require.Len(t, fake.puts, 2)
	assert.Empty(t, fake.puts[0].SHA)
	assert.Equal(t, res.Revision, fake.puts[1].SHA)
	assert.Equal(t, "main", fake.puts[1].Branch)
	assert.Equal(t, "Update finance_tracker.db on 2024-03-01T10:00:00Z", fake.puts[1].Message)

	obj, err := gh.Fetch(ctx, "finance_tracker.db")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 200), string(obj.Content))
}

func TestGitHubStaleRevisionConflicts(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakeContents(t)
	gh := newTestGitHub(srv, "tkn", 0)

	_, err := gh.Put(ctx, "x.db", []byte("base"), "")
	require.NoError(t, err)
	rev, err := gh.Stat(ctx, "x.db")
	require.NoError(t, err)

	_, errA := gh.Put(ctx, "x.db", []byte("a"), rev)
	_, errB := gh.Put(ctx, "x.db", []byte("b"), rev)
	require.NoError(t, errA)
	assert.ErrorIs(t, errB, ErrConflict)

	_, err = gh.Put(ctx, "x.db", []byte("c"), "")
	assert.ErrorIs(t, err, ErrConflict, "blind create over an existing file")
}

func TestGitHubUnauthorized(t *testing.T) {
	_, srv := newFakeContents(t)
	gh := newTestGitHub(srv, "wrong", 0)

	_, err := gh.Stat(context.Background(), "x.db")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGitHubRetriesServerErrors(t *testing.T) {
	fake, srv := newFakeContents(t)
	fake.failNext.Store(1)

	_, err := newTestGitHub(srv, "tkn", 0).Stat(context.Background(), "x.db")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound, "no retries configured, 503 surfaces")

	fake.failNext.Store(1)
	_, err = newTestGitHub(srv, "tkn", 2).Stat(context.Background(), "x.db")
	assert.ErrorIs(t, err, ErrNotFound, "503 retried, then the real answer")
}
