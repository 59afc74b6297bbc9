package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rankrocket/calendar-stacker/internal/google"
	"github.com/rankrocket/calendar-stacker/internal/models"
)

// CalendarClientSource resolves a managed client into an authenticated
// Calendar API client. *google.CalendarService satisfies this.
type CalendarClientSource interface {
	ClientFor(ctx context.Context, clientID int64) (*google.CalendarClient, error)
}

// Service handles stack requests from the work queue.
type Service struct {
	calendars  CalendarClientSource
	apiTimeout time.Duration
}

// NewService creates a new sync service
func NewService(calendars CalendarClientSource, timeout time.Duration) *Service {
	return &Service{
		calendars:  calendars,
		apiTimeout: timeout,
	}
}

// HandleRequest processes incoming RabbitMQ messages
func (s *Service) HandleRequest(d amqp.Delivery) []byte {
	var req models.StackRequest
	if err := json.Unmarshal(d.Body, &req); err != nil {
		response := models.ErrorResponse(models.ErrCodeInvalidRequest, err.Error(), req.RequestID)
		responseBytes, _ := json.Marshal(response)
		return responseBytes
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.apiTimeout)
	defer cancel()

	// Resolve the client's credential into a calendar client (refreshing
	// the token if needed)
	client, err := s.calendars.ClientFor(ctx, req.ClientID)
	if err != nil {
		response := models.ErrorResponse(models.ErrCodeAuthFailed, err.Error(), req.RequestID)
		responseBytes, _ := json.Marshal(response)
		return responseBytes
	}

	var response map[string]interface{}
	switch req.Action {
	case "stack_events":
		response = s.handleStackEvents(ctx, client, req)
	case "list_events":
		response = s.handleListEvents(ctx, client, req)
	case "delete_event":
		response = s.handleDeleteEvent(ctx, client, req)
	default:
		response = models.ErrorResponse(models.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown action: %s", req.Action), req.RequestID)
	}

	responseBytes, _ := json.Marshal(response)
	return responseBytes
}

// handleStackEvents inserts the batch one event at a time. Partial progress
// is reported rather than rolled back, matching how operators retry jobs.
func (s *Service) handleStackEvents(ctx context.Context, client *google.CalendarClient, req models.StackRequest) map[string]interface{} {
	if req.CalendarID == "" {
		return models.ErrorResponse(models.ErrCodeInvalidRequest, "missing calendar_id", req.RequestID)
	}
	if len(req.Events) == 0 {
		return models.ErrorResponse(models.ErrCodeInvalidRequest, "missing events", req.RequestID)
	}

	created := make([]models.CalendarEvent, 0, len(req.Events))
	for i := range req.Events {
		event, err := client.CreateEvent(ctx, req.CalendarID, &req.Events[i])
		if err != nil {
			return models.ErrorResponse(models.ErrCodeAPIError,
				fmt.Sprintf("created %d of %d events, then: %v", len(created), len(req.Events), err),
				req.RequestID)
		}
		created = append(created, *event)
	}

	return models.SuccessResponse(map[string]interface{}{
		"calendar_id": req.CalendarID,
		"created":     created,
	}, req.RequestID)
}

func (s *Service) handleListEvents(ctx context.Context, client *google.CalendarClient, req models.StackRequest) map[string]interface{} {
	if req.CalendarID == "" {
		return models.ErrorResponse(models.ErrCodeInvalidRequest, "missing calendar_id", req.RequestID)
	}

	events, err := client.ListEvents(ctx, req.CalendarID)
	if err != nil {
		return models.ErrorResponse(models.ErrCodeAPIError, err.Error(), req.RequestID)
	}
	return models.SuccessResponse(events, req.RequestID)
}

func (s *Service) handleDeleteEvent(ctx context.Context, client *google.CalendarClient, req models.StackRequest) map[string]interface{} {
	if req.CalendarID == "" {
		return models.ErrorResponse(models.ErrCodeInvalidRequest, "missing calendar_id", req.RequestID)
	}
	if req.EventID == "" {
		return models.ErrorResponse(models.ErrCodeInvalidRequest, "missing event_id", req.RequestID)
	}

	if err := client.DeleteEvent(ctx, req.CalendarID, req.EventID); err != nil {
		return models.ErrorResponse(models.ErrCodeAPIError, err.Error(), req.RequestID)
	}
	return models.SuccessResponse(map[string]string{
		"message": fmt.Sprintf("Event %s deleted.", req.EventID),
	}, req.RequestID)
}
