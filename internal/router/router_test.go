package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"finance-tracker/internal/config"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/middleware"
	"finance-tracker/internal/mirror"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, multiUser bool) (*gin.Engine, *ledger.Service) {
	t.Helper()
	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "finance_tracker.db")},
		JWT:      config.JWTConfig{Secret: "test-secret", Issuer: "test", ExpireHours: 1},
		App:      config.AppSubConfig{MultiUser: multiUser, StrictCategories: true},
	}
	store, err := ledger.Open(cfg.Database, ledger.Options{
		StrictCategories: true,
		Hasher:           util.PasswordHasher{Scheme: util.SchemeBcrypt, BcryptCost: 4},
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := ledger.NewService(store, mirror.Disabled{})
	return SetupRouter(cfg, svc), svc
}

func call(t *testing.T, r http.Handler, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func data(m map[string]interface{}) map[string]interface{} {
	d, _ := m["data"].(map[string]interface{})
	return d
}

func login(t *testing.T, r http.Handler, user, pass string) string {
	t.Helper()
	code, out := call(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": user, "password": pass})
	require.Equal(t, http.StatusOK, code, out)
	return data(out)["token"].(string)
}

func TestSingleUserModeIsOpen(t *testing.T) {
	r, _ := newTestRouter(t, false)

	code, _ := call(t, r, http.MethodPost, "/api/transactions", "", gin.H{
		"date": "2024-03-01", "category": "Investment", "subcategory": "MF", "amount": 5000,
	})
	assert.Equal(t, http.StatusOK, code)

	code, out := call(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "x", "password": "y"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.EqualValues(t, util.CodeNotFound, out["code"])
}

func TestMultiUserScopesRowsByOwner(t *testing.T) {
	r, svc := newTestRouter(t, true)

	code, out := call(t, r, http.MethodGet, "/api/transactions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.EqualValues(t, util.CodeAuth, out["code"])

	for _, u := range []string{"alice", "bob"} {
		code, out = call(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
			"username": u, "password": "password1", "confirm_password": "password1",
		})
		require.Equal(t, http.StatusOK, code, out)
	}

	code, _ = call(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "ALICE", "password": "password1", "confirm_password": "password1",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)

	alice := login(t, r, "alice", "password1")
	bob := login(t, r, "bob", "password1")

	code, out = call(t, r, http.MethodPost, "/api/transactions", alice, gin.H{
		"date": "2024-03-01", "category": "Investment", "subcategory": "MF", "amount": 5000,
	})
	require.Equal(t, http.StatusOK, code, out)
	id := data(out)["transaction"].(map[string]interface{})["id"]

	_, out = call(t, r, http.MethodGet, "/api/transactions", bob, nil)
	assert.EqualValues(t, 0, data(out)["total"])

	_, out = call(t, r, http.MethodDelete, "/api/transactions", bob, gin.H{"ids": []interface{}{id}})
	assert.EqualValues(t, 0, data(out)["deleted"])

	_, out = call(t, r, http.MethodGet, "/api/transactions", alice, nil)
	assert.EqualValues(t, 1, data(out)["total"])

	_, out = call(t, r, http.MethodGet, "/api/me", alice, nil)
	assert.Equal(t, "alice", data(out)["user"].(map[string]interface{})["username"])

	// admins see every row
	_, _, err := svc.RegisterAccount(context.Background(), "root", "password1", true)
	require.NoError(t, err)
	_, out = call(t, r, http.MethodGet, "/api/transactions", login(t, r, "root", "password1"), nil)
	assert.EqualValues(t, 1, data(out)["total"])
}

func TestRequestIDHeader(t *testing.T) {
	r, _ := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "trace-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-1", w.Header().Get(middleware.RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, w.Header().Get(middleware.RequestIDHeader), 36)
}
