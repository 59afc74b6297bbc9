package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rankrocket/calendar-stacker/internal/models"
)

const defaultCalendarEndpoint = "https://www.googleapis.com/calendar/v3"

// Shared HTTP client with connection pooling
var sharedHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// CalendarClient wraps the Calendar v3 REST API for one access token.
type CalendarClient struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

// NewCalendarClient creates an authenticated Calendar API client.
func NewCalendarClient(accessToken string, timeout time.Duration) *CalendarClient {
	client := sharedHTTPClient
	if timeout > 0 && timeout != sharedHTTPClient.Timeout {
		client = &http.Client{
			Timeout:   timeout,
			Transport: sharedHTTPClient.Transport,
		}
	}
	return &CalendarClient{
		accessToken: accessToken,
		baseURL:     defaultCalendarEndpoint,
		httpClient:  client,
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *CalendarClient) WithBaseURL(baseURL string) *CalendarClient {
	c.baseURL = baseURL
	return c
}

// ListCalendars lists the calendars visible to the authorized account.
func (c *CalendarClient) ListCalendars(ctx context.Context) ([]models.Calendar, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/me/calendarList", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Items []models.Calendar `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ListEvents lists all events of one calendar.
func (c *CalendarClient) ListEvents(ctx context.Context, calendarID string) ([]models.CalendarEvent, error) {
	body, err := c.do(ctx, http.MethodGet, "/calendars/"+url.PathEscape(calendarID)+"/events", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Items []models.CalendarEvent `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetEvent fetches a single event.
func (c *CalendarClient) GetEvent(ctx context.Context, calendarID, eventID string) (*models.CalendarEvent, error) {
	body, err := c.do(ctx, http.MethodGet, eventPath(calendarID, eventID), nil)
	if err != nil {
		return nil, err
	}
	var event models.CalendarEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateEvent inserts an event into a calendar.
func (c *CalendarClient) CreateEvent(ctx context.Context, calendarID string, event *models.CalendarEvent) (*models.CalendarEvent, error) {
	body, err := c.do(ctx, http.MethodPost, "/calendars/"+url.PathEscape(calendarID)+"/events", event)
	if err != nil {
		return nil, err
	}
	var created models.CalendarEvent
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateEvent replaces an event.
func (c *CalendarClient) UpdateEvent(ctx context.Context, calendarID, eventID string, event *models.CalendarEvent) (*models.CalendarEvent, error) {
	body, err := c.do(ctx, http.MethodPut, eventPath(calendarID, eventID), event)
	if err != nil {
		return nil, err
	}
	var updated models.CalendarEvent
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEvent removes an event.
func (c *CalendarClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	_, err := c.do(ctx, http.MethodDelete, eventPath(calendarID, eventID), nil)
	return err
}

func eventPath(calendarID, eventID string) string {
	return "/calendars/" + url.PathEscape(calendarID) + "/events/" + url.PathEscape(eventID)
}

func (c *CalendarClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
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
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
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
		return nil, fmt.Errorf("calendar API request failed: %s", string(body))
	}
	return body, nil
}
