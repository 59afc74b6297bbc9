package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthCodeURLRequestsOfflineAccess(t *testing.T) {
	client := NewOAuthClient(0)
	raw := client.AuthCodeURL("cid", "https://app.example.com/oauth/callback",
		[]string{"https://www.googleapis.com/auth/calendar.readonly"}, "state-token")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "https://app.example.com/oauth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "https://www.googleapis.com/auth/calendar.readonly", q.Get("scope"))
	assert.Equal(t, "state-token", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "true", q.Get("include_granted_scopes"))
}

func TestExchangeSendsAuthorizationCodeGrant(t *testing.T) {
	var form url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer server.Close()

	client := NewOAuthClient(time.Second).WithEndpoints("", server.URL)
	token, err := client.Exchange(context.Background(), "cid", "secret", "https://cb", "the-code")
	require.NoError(t, err)

	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "the-code", form.Get("code"))
	assert.Equal(t, "cid", form.Get("client_id"))
	assert.Equal(t, "secret", form.Get("client_secret"))
	assert.Equal(t, "at-1", token.AccessToken)
	assert.Equal(t, "rt-1", token.RefreshToken)
	assert.False(t, token.ExpiresAt.IsZero())
}

func TestRefreshSendsRefreshTokenGrant(t *testing.T) {
	var form url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-2","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer server.Close()

	client := NewOAuthClient(time.Second).WithEndpoints("", server.URL)
	token, err := client.Refresh(context.Background(), "cid", "secret", "rt-1")
	require.NoError(t, err)

	assert.Equal(t, "refresh_token", form.Get("grant_type"))
	assert.Equal(t, "rt-1", form.Get("refresh_token"))
	assert.Equal(t, "at-2", token.AccessToken)
	assert.Empty(t, token.RefreshToken)
}

func TestTokenErrorSurfacesResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	client := NewOAuthClient(time.Second).WithEndpoints("", server.URL)
	_, err := client.Refresh(context.Background(), "cid", "secret", "stale")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
}
