package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rankrocket/calendar-stacker/internal/google"
	"github.com/rankrocket/calendar-stacker/internal/models"
)

// Publisher sends a stack request to the sync service's work queue.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, body []byte) error

func (f PublisherFunc) Publish(ctx context.Context, body []byte) error { return f(ctx, body) }

// CalendarHandler proxies calendar and event operations to Google and
// enqueues asynchronous stack jobs.
type CalendarHandler struct {
	calendars *google.CalendarService
	publisher Publisher
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(calendars *google.CalendarService, publisher Publisher) *CalendarHandler {
	return &CalendarHandler{
		calendars: calendars,
		publisher: publisher,
	}
}

// StackEventsRequest is the POST body for a stack job.
type StackEventsRequest struct {
	Events []models.CalendarEvent `json:"events"`
}

// HandleClientCalendars routes /api/clients/{id}/calendars and its subpaths:
//
//	GET    /api/clients/{id}/calendars
//	GET    /api/clients/{id}/calendars/{calID}/events
//	POST   /api/clients/{id}/calendars/{calID}/events
//	GET    /api/clients/{id}/calendars/{calID}/events/{eventID}
//	PUT    /api/clients/{id}/calendars/{calID}/events/{eventID}
//	DELETE /api/clients/{id}/calendars/{calID}/events/{eventID}
//	POST   /api/clients/{id}/calendars/{calID}/stack
func (h *CalendarHandler) HandleClientCalendars(w http.ResponseWriter, r *http.Request) {
	clientID, rest, ok := splitCalendarPath(w, r.URL.Path)
	if !ok {
		return
	}

	if rest == "" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleListCalendars(w, r, clientID)
		return
	}

	calendarID, action, eventID, ok := splitCalendarAction(w, rest)
	if !ok {
		return
	}

	switch action {
	case "events":
		h.handleEvents(w, r, clientID, calendarID, eventID)
	case "stack":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleStack(w, r, clientID, calendarID)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown calendar action %q", action))
	}
}

func (h *CalendarHandler) handleListCalendars(w http.ResponseWriter, r *http.Request, clientID int64) {
	client, err := h.calendars.ClientFor(r.Context(), clientID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	calendars, err := client.ListCalendars(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Failed to list calendars: %v", err))
		return
	}
	if calendars == nil {
		calendars = []models.Calendar{}
	}
	writeData(w, http.StatusOK, calendars)
}

func (h *CalendarHandler) handleEvents(w http.ResponseWriter, r *http.Request, clientID int64, calendarID, eventID string) {
	client, err := h.calendars.ClientFor(r.Context(), clientID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	switch {
	case eventID == "" && r.Method == http.MethodGet:
		events, err := client.ListEvents(r.Context(), calendarID)
		if err != nil {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("Failed to list events: %v", err))
			return
		}
		if events == nil {
			events = []models.CalendarEvent{}
		}
		writeData(w, http.StatusOK, events)
	case eventID == "" && r.Method == http.MethodPost:
		event, ok := decodeEvent(w, r)
		if !ok {
			return
		}
		created, err := client.CreateEvent(r.Context(), calendarID, event)
		if err != nil {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("Failed to create event: %v", err))
			return
		}
		writeJSON(w, http.StatusCreated, created)
	case eventID != "" && r.Method == http.MethodGet:
		event, err := client.GetEvent(r.Context(), calendarID, eventID)
		if err != nil {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("Failed to load event: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, event)
	case eventID != "" && r.Method == http.MethodPut:
		event, ok := decodeEvent(w, r)
		if !ok {
			return
		}
		updated, err := client.UpdateEvent(r.Context(), calendarID, eventID, event)
		if err != nil {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("Failed to update event: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case eventID != "" && r.Method == http.MethodDelete:
		if err := client.DeleteEvent(r.Context(), calendarID, eventID); err != nil {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("Failed to delete event: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Event %s deleted.", eventID)})
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleStack enqueues an asynchronous stack job for the sync service.
func (h *CalendarHandler) handleStack(w http.ResponseWriter, r *http.Request, clientID int64, calendarID string) {
	var req StackEventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Events) == 0 {
		writeError(w, http.StatusBadRequest, "'events' is required.")
		return
	}
	for _, event := range req.Events {
		if event.Summary == "" {
			writeError(w, http.StatusBadRequest, "Every event needs a 'summary'.")
			return
		}
	}

	stackReq := models.StackRequest{
		Action:     "stack_events",
		ClientID:   clientID,
		CalendarID: calendarID,
		Events:     req.Events,
		RequestID:  uuid.New().String(),
	}
	body, err := json.Marshal(stackReq)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to encode stack request: %v", err))
		return
	}

	if err := h.publisher.Publish(r.Context(), body); err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Failed to enqueue stack request: %v", err))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"message":    fmt.Sprintf("Queued %d events for calendar %s.", len(req.Events), calendarID),
		"request_id": stackReq.RequestID,
	})
}

func decodeEvent(w http.ResponseWriter, r *http.Request) (*models.CalendarEvent, bool) {
	var event models.CalendarEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if event.Summary == "" {
		writeError(w, http.StatusBadRequest, "'summary' is required.")
		return nil, false
	}
	return &event, true
}

// splitCalendarPath pulls the client id out of /api/clients/{id}/calendars...
// and returns whatever follows "calendars".
func splitCalendarPath(w http.ResponseWriter, path string) (int64, string, bool) {
	rest := strings.TrimPrefix(path, "/api/clients/")
	idx := strings.Index(rest, "/calendars")
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Not found")
		return 0, "", false
	}
	clientID, err := strconv.ParseInt(rest[:idx], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid id %q", rest[:idx]))
		return 0, "", false
	}
	return clientID, strings.Trim(rest[idx+len("/calendars"):], "/"), true
}

// splitCalendarAction separates "{calID}/events[/{eventID}]" or
// "{calID}/stack" into calendar id, action and optional event id. Calendar
// ids may arrive URL-escaped.
func splitCalendarAction(w http.ResponseWriter, rest string) (string, string, string, bool) {
	var calendarRaw, action, eventID string
	switch {
	case strings.HasSuffix(rest, "/stack"):
		calendarRaw = strings.TrimSuffix(rest, "/stack")
		action = "stack"
	case strings.HasSuffix(rest, "/events"):
		calendarRaw = strings.TrimSuffix(rest, "/events")
		action = "events"
	default:
		idx := strings.Index(rest, "/events/")
		if idx < 0 {
			writeError(w, http.StatusNotFound, "Not found")
			return "", "", "", false
		}
		calendarRaw = rest[:idx]
		action = "events"
		eventID = rest[idx+len("/events/"):]
	}

	calendarID, err := url.PathUnescape(calendarRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid calendar id %q", calendarRaw))
		return "", "", "", false
	}
	if calendarID == "" {
		writeError(w, http.StatusNotFound, "Not found")
		return "", "", "", false
	}
	return calendarID, action, eventID, true
}
