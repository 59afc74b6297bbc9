package models

import "time"

// Client represents a managed client account whose calendars get stacked.
type Client struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	GoogleAccountEmail string    `json:"google_account_email,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`
}

// OAuthCredential stores a Google OAuth client-secret/scope bundle tied to one client.
// Token fields are backend-owned: they are only populated by the consent callback
// and the refresh path, never by operator input.
type OAuthCredential struct {
	ID                 int64      `json:"id"`
	ClientID           int64      `json:"client_id"`
	GoogleClientID     string     `json:"google_client_id"`
	GoogleClientSecret string     `json:"google_client_secret"`
	GoogleRedirectURI  string     `json:"google_redirect_uri,omitempty"`
	Scopes             []string   `json:"scopes"`
	AccessToken        string     `json:"access_token,omitempty"`
	RefreshToken       string     `json:"refresh_token,omitempty"`
	TokenExpiresAt     *time.Time `json:"token_expires_at,omitempty"`
	IsValid            bool       `json:"is_valid"`
	CreatedAt          time.Time  `json:"created_at,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at,omitempty"`
}

// Calendar represents one entry from a Google calendar list.
type Calendar struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	TimeZone    string `json:"timeZone,omitempty"`
	Primary     bool   `json:"primary,omitempty"`
}

// EventTime is the Google Calendar start/end shape: either a date or a dateTime.
type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// CalendarEvent represents a Google Calendar event document.
type CalendarEvent struct {
	ID          string     `json:"id,omitempty"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       *EventTime `json:"start,omitempty"`
	End         *EventTime `json:"end,omitempty"`
	Status      string     `json:"status,omitempty"`
	HTMLLink    string     `json:"htmlLink,omitempty"`
}
