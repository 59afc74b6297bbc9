package google

import (
	"context"
	"fmt"
	"time"

	"github.com/rankrocket/calendar-stacker/internal/models"
	"github.com/rankrocket/calendar-stacker/internal/storage"
)

// CalendarService resolves a client's stored credential into an authenticated
// Calendar API client, refreshing the access token first when it has expired.
type CalendarService struct {
	store   storage.Store
	oauth   *OAuthClient
	timeout time.Duration

	now func() time.Time

	// newCalendarClient is swapped out by tests to point at a fake server.
	newCalendarClient func(accessToken string) *CalendarClient
}

// NewCalendarService creates a service backed by the given store.
func NewCalendarService(store storage.Store, oauth *OAuthClient, timeout time.Duration) *CalendarService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &CalendarService{
		store:   store,
		oauth:   oauth,
		timeout: timeout,
		now:     time.Now,
	}
	s.newCalendarClient = func(accessToken string) *CalendarClient {
		return NewCalendarClient(accessToken, timeout)
	}
	return s
}

// WithCalendarBaseURL points created calendar clients at baseURL. Used by
// tests.
func (s *CalendarService) WithCalendarBaseURL(baseURL string) *CalendarService {
	timeout := s.timeout
	s.newCalendarClient = func(accessToken string) *CalendarClient {
		return NewCalendarClient(accessToken, timeout).WithBaseURL(baseURL)
	}
	return s
}

// ClientFor returns a Calendar API client for the given managed client,
// refreshing and persisting the stored token if it has expired.
func (s *CalendarService) ClientFor(ctx context.Context, clientID int64) (*CalendarClient, error) {
	cred, err := s.credentialForClient(clientID)
	if err != nil {
		return nil, err
	}
	if cred.AccessToken == "" {
		return nil, fmt.Errorf("client %d has no access token; complete the OAuth flow first", clientID)
	}

	if s.tokenExpired(cred) {
		if cred.RefreshToken == "" {
			return nil, fmt.Errorf("access token for client %d expired and no refresh token is stored", clientID)
		}
		if err := s.refreshCredential(ctx, cred); err != nil {
			return nil, err
		}
	}
	return s.newCalendarClient(cred.AccessToken), nil
}

func (s *CalendarService) credentialForClient(clientID int64) (*models.OAuthCredential, error) {
	creds, err := s.store.ListCredentials()
	if err != nil {
		return nil, err
	}
	for i := range creds {
		if creds[i].ClientID == clientID {
			return &creds[i], nil
		}
	}
	return nil, fmt.Errorf("no OAuth credentials configured for client %d", clientID)
}

// An absent expiry means the token never expires.
func (s *CalendarService) tokenExpired(cred *models.OAuthCredential) bool {
	if cred.TokenExpiresAt == nil {
		return false
	}
	return !cred.TokenExpiresAt.After(s.now())
}

func (s *CalendarService) refreshCredential(ctx context.Context, cred *models.OAuthCredential) error {
	token, err := s.oauth.Refresh(ctx, cred.GoogleClientID, cred.GoogleClientSecret, cred.RefreshToken)
	if err != nil {
		cred.IsValid = false
		if updateErr := s.store.UpdateCredential(cred); updateErr != nil {
			return fmt.Errorf("token refresh failed: %v (and marking credential invalid failed: %v)", err, updateErr)
		}
		return fmt.Errorf("token refresh failed: %w", err)
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
	return s.store.UpdateCredential(cred)
}
