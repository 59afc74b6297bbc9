package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) *AdminAuth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD_HASH", string(hash))

	a := NewAdminAuth()
	require.NotNil(t, a)
	return a
}

func TestNewAdminAuthWithoutSecretIsNil(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	assert.Nil(t, NewAdminAuth())
}

func TestCheckPassword(t *testing.T) {
	a := newTestAuth(t)

	assert.NoError(t, a.CheckPassword("admin", "hunter2"))
	assert.Error(t, a.CheckPassword("admin", "wrong"))
	assert.Error(t, a.CheckPassword("intruder", "hunter2"))
}

func TestTokenRoundTrip(t *testing.T) {
	a := newTestAuth(t)

	token, err := a.IssueToken("admin")
	require.NoError(t, err)

	userCtx, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", userCtx.Username)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	a := newTestAuth(t)
	token, err := a.IssueToken("admin")
	require.NoError(t, err)

	other := &AdminAuth{secret: []byte("different-secret"), tokenLifetime: time.Hour}
	_, err = other.VerifyToken(token)
	assert.Error(t, err)
}

func TestMiddlewareRequiresToken(t *testing.T) {
	a := newTestAuth(t)
	mw := RequireAuth(a)

	var sawUser string
	handler := mw.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := ExtractUserFromContext(r.Context()); ok {
			sawUser = user.Username
		}
		w.WriteHeader(http.StatusOK)
	})

	// No token
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/clients", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token in header
	token, err := a.IssueToken("admin")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", sawUser)
}

func TestMiddlewareAcceptsServiceToken(t *testing.T) {
	a := newTestAuth(t)
	t.Setenv("STACKER_SERVICE_TOKEN", "machine-token")
	mw := RequireAuth(a)

	var sawUser string
	handler := mw.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := ExtractUserFromContext(r.Context()); ok {
			sawUser = user.Username
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	req.Header.Set("Authorization", "Bearer machine-token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "service_account", sawUser)
}
