package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rankrocket/calendar-stacker/internal/models"
)

// Client consumes the stacker backend's REST surface.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// Shared HTTP client with connection pooling
var sharedHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// NewClient creates a backend API client. authToken may be empty when the
// server runs without authentication.
func NewClient(baseURL, authToken string, timeout time.Duration) *Client {
	client := sharedHTTPClient
	if timeout > 0 && timeout != sharedHTTPClient.Timeout {
		client = &http.Client{
			Timeout:   timeout,
			Transport: sharedHTTPClient.Transport,
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		authToken:  authToken,
		httpClient: client,
	}
}

// ListClients fetches all clients.
func (c *Client) ListClients(ctx context.Context) ([]models.Client, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/clients", nil)
	if err != nil {
		return nil, err
	}
	var clients []models.Client
	if err := decodeList(body, &clients); err != nil {
		return nil, fmt.Errorf("decoding client list: %w", err)
	}
	return clients, nil
}

// ListCredentials fetches all OAuth credentials.
func (c *Client) ListCredentials(ctx context.Context) ([]models.OAuthCredential, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/oauth", nil)
	if err != nil {
		return nil, err
	}
	var creds []models.OAuthCredential
	if err := decodeList(body, &creds); err != nil {
		return nil, fmt.Errorf("decoding credential list: %w", err)
	}
	return creds, nil
}

// GetCredential fetches a single credential by id.
func (c *Client) GetCredential(ctx context.Context, id int64) (*models.OAuthCredential, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/oauth/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var cred models.OAuthCredential
	if err := decodeDocument(body, &cred); err != nil {
		return nil, fmt.Errorf("decoding credential: %w", err)
	}
	return &cred, nil
}

// CreateCredential persists a new credential.
func (c *Client) CreateCredential(ctx context.Context, payload models.CredentialPayload) (*models.OAuthCredential, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/oauth", payload)
	if err != nil {
		return nil, err
	}
	var cred models.OAuthCredential
	if err := decodeDocument(body, &cred); err != nil {
		return nil, fmt.Errorf("decoding created credential: %w", err)
	}
	return &cred, nil
}

// UpdateCredential replaces an existing credential.
func (c *Client) UpdateCredential(ctx context.Context, id int64, payload models.CredentialPayload) (*models.OAuthCredential, error) {
	body, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/oauth/%d", id), payload)
	if err != nil {
		return nil, err
	}
	var cred models.OAuthCredential
	if err := decodeDocument(body, &cred); err != nil {
		return nil, fmt.Errorf("decoding updated credential: %w", err)
	}
	return &cred, nil
}

// DeleteCredential removes a credential and returns the backend's
// confirmation message.
func (c *Client) DeleteCredential(ctx context.Context, id int64) (string, error) {
	body, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/oauth/%d", id), nil)
	if err != nil {
		return "", err
	}
	var confirmation struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &confirmation); err != nil {
		return "", nil
	}
	return confirmation.Message, nil
}

// RequestAuthorization asks the backend for a consent URL for the credential.
func (c *Client) RequestAuthorization(ctx context.Context, id int64) (string, error) {
	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/oauth/%d/authorize", id), nil)
	if err != nil {
		return "", err
	}
	var resp struct {
		AuthorizationURL string `json:"authorization_url"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding authorization response: %w", err)
	}
	if resp.AuthorizationURL == "" {
		return "", fmt.Errorf("backend returned no authorization_url")
	}
	return resp.AuthorizationURL, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s", extractErrorMessage(body, resp.StatusCode))
	}
	return body, nil
}

// extractErrorMessage pulls the backend's error text out of a failed response.
// JSON "error" and "message" fields win, then the raw text body, then a
// generic fallback.
func extractErrorMessage(body []byte, status int) string {
	var fields struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &fields); err == nil {
		if fields.Error != "" {
			return fields.Error
		}
		if fields.Message != "" {
			return fields.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("request failed (HTTP %d)", status)
}

// decodeList unmarshals either a bare JSON array or a {data: [...]} envelope
// into out. Both shapes appear across backend revisions; normalizing here
// keeps every downstream component envelope-agnostic.
func decodeList(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return err
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

// decodeDocument unmarshals either a bare JSON object or a {data: {...}}
// envelope into out.
func decodeDocument(body []byte, out any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		return json.Unmarshal(envelope.Data, out)
	}
	return json.Unmarshal(body, out)
}
