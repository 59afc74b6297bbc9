// Package google talks to Google's OAuth2 and Calendar v3 REST endpoints.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAuthEndpoint  = "https://accounts.google.com/o/oauth2/auth"
	defaultTokenEndpoint = "https://oauth2.googleapis.com/token"
)

// Token is the token endpoint's response with a resolved expiry.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope,omitempty"`

	ExpiresAt time.Time `json:"-"`
}

// OAuthClient performs the code exchange and refresh grants.
type OAuthClient struct {
	httpClient    *http.Client
	authEndpoint  string
	tokenEndpoint string
}

// NewOAuthClient creates an OAuth client with the given request timeout.
func NewOAuthClient(timeout time.Duration) *OAuthClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OAuthClient{
		httpClient:    &http.Client{Timeout: timeout},
		authEndpoint:  defaultAuthEndpoint,
		tokenEndpoint: defaultTokenEndpoint,
	}
}

// WithEndpoints overrides the Google endpoints. Used by tests.
func (c *OAuthClient) WithEndpoints(authEndpoint, tokenEndpoint string) *OAuthClient {
	if authEndpoint != "" {
		c.authEndpoint = authEndpoint
	}
	if tokenEndpoint != "" {
		c.tokenEndpoint = tokenEndpoint
	}
	return c
}

// AuthCodeURL builds the consent URL for a credential. Offline access is
// requested so a refresh token comes back with the first grant.
func (c *OAuthClient) AuthCodeURL(clientID, redirectURI string, scopes []string, state string) string {
	params := url.Values{}
	params.Set("client_id", clientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(scopes, " "))
	params.Set("state", state)
	params.Set("access_type", "offline")
	params.Set("include_granted_scopes", "true")
	return c.authEndpoint + "?" + params.Encode()
}

// Exchange trades an authorization code for tokens.
func (c *OAuthClient) Exchange(ctx context.Context, clientID, clientSecret, redirectURI, code string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("redirect_uri", redirectURI)
	return c.requestToken(ctx, form)
}

// Refresh obtains a fresh access token from a refresh token.
func (c *OAuthClient) Refresh(ctx context.Context, clientID, clientSecret, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	return c.requestToken(ctx, form)
}

func (c *OAuthClient) requestToken(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token request failed: %s", strings.TrimSpace(string(body)))
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response contained no access_token")
	}
	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	return &token, nil
}
