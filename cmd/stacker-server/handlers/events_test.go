package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankrocket/calendar-stacker/internal/google"
	"github.com/rankrocket/calendar-stacker/internal/models"
	"github.com/rankrocket/calendar-stacker/internal/storage"
)

// newProxyHandler builds a calendar handler whose Google backend is the given
// fake server, with one client holding a fresh token.
func newProxyHandler(t *testing.T, backend *httptest.Server) (*CalendarHandler, int64) {
	t.Helper()

	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "stacker.json"))
	require.NoError(t, err)

	client := &models.Client{Name: "Acme", Email: "acme@example.com"}
	require.NoError(t, store.CreateClient(client))

	future := time.Now().Add(time.Hour)
	require.NoError(t, store.CreateCredential(&models.OAuthCredential{
		ClientID:       client.ID,
		GoogleClientID: "cid",
		AccessToken:    "fresh-token",
		TokenExpiresAt: &future,
		IsValid:        true,
	}))

	svc := google.NewCalendarService(store, google.NewOAuthClient(time.Second), time.Second).
		WithCalendarBaseURL(backend.URL)
	return NewCalendarHandler(svc, &recordingPublisher{}), client.ID
}

func TestListCalendarsProxy(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/users/me/calendarList", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"primary","summary":"Acme Ops"}]}`))
	}))
	defer backend.Close()

	handler, clientID := newProxyHandler(t, backend)
	rec := doJSON(t, handler.HandleClientCalendars, http.MethodGet,
		fmt.Sprintf("/api/clients/%d/calendars", clientID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Calendar `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "primary", resp.Data[0].ID)
}

func TestEventCRUDProxy(t *testing.T) {
	type call struct{ method, path string }
	var calls []call
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path})
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"evt-1","summary":"Kickoff"}`))
	}))
	defer backend.Close()

	handler, clientID := newProxyHandler(t, backend)
	base := fmt.Sprintf("/api/clients/%d/calendars/primary/events", clientID)

	// Create
	rec := doJSON(t, handler.HandleClientCalendars, http.MethodPost, base,
		models.CalendarEvent{Summary: "Kickoff"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Get
	rec = doJSON(t, handler.HandleClientCalendars, http.MethodGet, base+"/evt-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var event models.CalendarEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	assert.Equal(t, "evt-1", event.ID)

	// Update
	rec = doJSON(t, handler.HandleClientCalendars, http.MethodPut, base+"/evt-1",
		models.CalendarEvent{Summary: "Kickoff (moved)"})
	require.Equal(t, http.StatusOK, rec.Code)

	// Delete
	rec = doJSON(t, handler.HandleClientCalendars, http.MethodDelete, base+"/evt-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.Equal(t, "Event evt-1 deleted.", deleted.Message)

	require.Equal(t, []call{
		{http.MethodPost, "/calendars/primary/events"},
		{http.MethodGet, "/calendars/primary/events/evt-1"},
		{http.MethodPut, "/calendars/primary/events/evt-1"},
		{http.MethodDelete, "/calendars/primary/events/evt-1"},
	}, calls)
}

func TestCreateEventRequiresSummary(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend should not be called")
	}))
	defer backend.Close()

	handler, clientID := newProxyHandler(t, backend)
	rec := doJSON(t, handler.HandleClientCalendars, http.MethodPost,
		fmt.Sprintf("/api/clients/%d/calendars/primary/events", clientID),
		models.CalendarEvent{Description: "no summary"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "'summary' is required.", errorMessage(t, rec))
}

func TestProxyWithoutCredentialFails(t *testing.T) {
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "stacker.json"))
	require.NoError(t, err)
	svc := google.NewCalendarService(store, google.NewOAuthClient(time.Second), time.Second)
	handler := NewCalendarHandler(svc, &recordingPublisher{})

	rec := doJSON(t, handler.HandleClientCalendars, http.MethodGet, "/api/clients/42/calendars", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "no OAuth credentials configured")
}
