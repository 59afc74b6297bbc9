package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rankrocket/calendar-stacker/internal/credential"
	"github.com/rankrocket/calendar-stacker/internal/google"
	"github.com/rankrocket/calendar-stacker/internal/models"
	"github.com/rankrocket/calendar-stacker/internal/oauthstate"
	"github.com/rankrocket/calendar-stacker/internal/storage"
)

// OAuthHandler handles the OAuth credential CRUD endpoints plus the consent
// flow (authorize + callback).
type OAuthHandler struct {
	store  storage.Store
	states oauthstate.Store
	oauth  *google.OAuthClient
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(store storage.Store, states oauthstate.Store, oauth *google.OAuthClient) *OAuthHandler {
	return &OAuthHandler{
		store:  store,
		states: states,
		oauth:  oauth,
	}
}

// HandleCredentials handles GET and POST on /api/oauth
func (h *OAuthHandler) HandleCredentials(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleCredentialByID handles /api/oauth/{id} and /api/oauth/{id}/authorize
func (h *OAuthHandler) HandleCredentialByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDSegment(w, r.URL.Path, "/api/oauth/")
	if !ok {
		return
	}

	if strings.HasSuffix(r.URL.Path, "/authorize") {
		h.handleAuthorize(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		cred, err := h.store.GetCredential(id)
		if err != nil {
			h.credentialNotFound(w, id, err)
			return
		}
		writeJSON(w, http.StatusOK, cred)
	case http.MethodPut:
		h.handleUpdate(w, r, id)
	case http.MethodDelete:
		h.handleDelete(w, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *OAuthHandler) handleList(w http.ResponseWriter, r *http.Request) {
	creds, err := h.store.ListCredentials()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list credentials: %v", err))
		return
	}
	if creds == nil {
		creds = []models.OAuthCredential{}
	}
	writeData(w, http.StatusOK, creds)
}

func (h *OAuthHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	payload, clientID, ok := h.decodePayload(w, r)
	if !ok {
		return
	}

	if _, err := h.store.GetClient(clientID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Client %d not found.", clientID))
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load client: %v", err))
		return
	}

	now := time.Now().UTC()
	cred := &models.OAuthCredential{
		ClientID:           clientID,
		GoogleClientID:     payload.GoogleClientID,
		GoogleClientSecret: payload.GoogleClientSecret,
		Scopes:             payload.Scopes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := h.store.CreateCredential(cred); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create credential: %v", err))
		return
	}
	writeJSON(w, http.StatusCreated, cred)
}

func (h *OAuthHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id int64) {
	existing, err := h.store.GetCredential(id)
	if err != nil {
		h.credentialNotFound(w, id, err)
		return
	}

	payload, clientID, ok := h.decodePayload(w, r)
	if !ok {
		return
	}

	// A secret or scope change invalidates previously granted tokens.
	reconsent := existing.GoogleClientID != payload.GoogleClientID ||
		existing.GoogleClientSecret != payload.GoogleClientSecret

	existing.ClientID = clientID
	existing.GoogleClientID = payload.GoogleClientID
	existing.GoogleClientSecret = payload.GoogleClientSecret
	existing.Scopes = payload.Scopes
	existing.UpdatedAt = time.Now().UTC()
	if reconsent {
		existing.AccessToken = ""
		existing.RefreshToken = ""
		existing.TokenExpiresAt = nil
		existing.IsValid = false
	}

	if err := h.store.UpdateCredential(existing); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to update credential: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (h *OAuthHandler) handleDelete(w http.ResponseWriter, id int64) {
	if _, err := h.store.GetCredential(id); err != nil {
		h.credentialNotFound(w, id, err)
		return
	}
	if err := h.store.DeleteCredential(id); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete credential: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("OAuthCredential %d deleted.", id)})
}

// handleAuthorize handles POST /api/oauth/{id}/authorize: it registers a
// pending flow and hands back the Google consent URL.
func (h *OAuthHandler) handleAuthorize(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cred, err := h.store.GetCredential(id)
	if err != nil {
		h.credentialNotFound(w, id, err)
		return
	}

	state := uuid.New().String()
	flow := oauthstate.PendingFlow{
		State:        state,
		CredentialID: cred.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.states.Save(r.Context(), flow, oauthstate.DefaultTTL); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to register OAuth state: %v", err))
		return
	}

	scopes := cred.Scopes
	if len(scopes) == 0 {
		scopes = []string{credential.DefaultScope}
	}

	authURL := h.oauth.AuthCodeURL(cred.GoogleClientID, h.redirectURI(cred), scopes, state)
	writeJSON(w, http.StatusOK, map[string]string{"authorization_url": authURL})
}

// HandleCallback handles GET /oauth/callback: Google's redirect back with the
// authorization code.
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Authorization denied: %s", errParam))
		return
	}

	state := query.Get("state")
	code := query.Get("code")
	if state == "" || code == "" {
		writeError(w, http.StatusBadRequest, "Missing 'state' or 'code' parameter")
		return
	}

	flow, err := h.states.Consume(r.Context(), state)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or expired OAuth state")
		return
	}

	cred, err := h.store.GetCredential(flow.CredentialID)
	if err != nil {
		h.credentialNotFound(w, flow.CredentialID, err)
		return
	}

	token, err := h.oauth.Exchange(r.Context(), cred.GoogleClientID, cred.GoogleClientSecret, h.redirectURI(cred), code)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Token exchange failed: %v", err))
		return
	}

	cred.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		cred.RefreshToken = token.RefreshToken
	}
	if token.ExpiresIn > 0 {
		expiresAt := token.ExpiresAt
		cred.TokenExpiresAt = &expiresAt
	} else {
		cred.TokenExpiresAt = nil
	}
	cred.IsValid = true
	cred.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateCredential(cred); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to store tokens: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h2>Authorization complete</h2><p>You can close this window and return to the dashboard.</p></body></html>")
}

// decodePayload parses and validates the credential payload shared by create
// and update. client_id travels as a string and is coerced here.
func (h *OAuthHandler) decodePayload(w http.ResponseWriter, r *http.Request) (models.CredentialPayload, int64, bool) {
	var payload models.CredentialPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return payload, 0, false
	}

	if payload.ClientID == "" {
		writeError(w, http.StatusBadRequest, "'client_id' is required.")
		return payload, 0, false
	}
	if payload.GoogleClientID == "" {
		writeError(w, http.StatusBadRequest, "'google_client_id' is required.")
		return payload, 0, false
	}
	if payload.GoogleClientSecret == "" {
		writeError(w, http.StatusBadRequest, "'google_client_secret' is required.")
		return payload, 0, false
	}
	if len(payload.Scopes) == 0 {
		writeError(w, http.StatusBadRequest, "'scopes' is required.")
		return payload, 0, false
	}

	clientID, err := strconv.ParseInt(payload.ClientID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid client_id %q", payload.ClientID))
		return payload, 0, false
	}
	return payload, clientID, true
}

func (h *OAuthHandler) redirectURI(cred *models.OAuthCredential) string {
	if cred.GoogleRedirectURI != "" {
		return cred.GoogleRedirectURI
	}
	if uri := os.Getenv("OAUTH_REDIRECT_URL"); uri != "" {
		return uri
	}
	return "http://localhost:8080/oauth/callback"
}

func (h *OAuthHandler) credentialNotFound(w http.ResponseWriter, id int64, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("OAuthCredential %d not found.", id))
		return
	}
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load credential: %v", err))
}
