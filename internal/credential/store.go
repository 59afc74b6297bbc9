package credential

import (
	"context"
	"sync"

	"github.com/rankrocket/calendar-stacker/internal/models"
)

// Backend is the REST surface the credential manager consumes.
type Backend interface {
	ListClients(ctx context.Context) ([]models.Client, error)
	ListCredentials(ctx context.Context) ([]models.OAuthCredential, error)
	GetCredential(ctx context.Context, id int64) (*models.OAuthCredential, error)
	CreateCredential(ctx context.Context, payload models.CredentialPayload) (*models.OAuthCredential, error)
	UpdateCredential(ctx context.Context, id int64, payload models.CredentialPayload) (*models.OAuthCredential, error)
	DeleteCredential(ctx context.Context, id int64) (string, error)
	RequestAuthorization(ctx context.Context, id int64) (string, error)
}

// Store caches the last-fetched client and credential lists. Each cache is
// replaced wholesale on a successful fetch and left untouched on failure.
// The store is the single writer for both caches.
type Store struct {
	mu      sync.RWMutex
	backend Backend

	clients     []models.Client
	credentials []models.OAuthCredential

	// onCredentialsReplaced fires after every successful credential refresh,
	// outside the store lock.
	onCredentialsReplaced []func([]models.OAuthCredential)
}

// NewStore creates a store backed by the given REST surface.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// OnCredentialsReplaced registers a hook invoked after each successful
// credential refresh with a copy of the new list.
func (s *Store) OnCredentialsReplaced(fn func([]models.OAuthCredential)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCredentialsReplaced = append(s.onCredentialsReplaced, fn)
}

// RefreshClients fetches all clients. A single best-effort round trip: no
// retries, prior cache kept on failure.
func (s *Store) RefreshClients(ctx context.Context) error {
	clients, err := s.backend.ListClients(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.clients = clients
	s.mu.Unlock()
	return nil
}

// RefreshCredentials fetches all OAuth credentials and fires the replacement
// hooks on success.
func (s *Store) RefreshCredentials(ctx context.Context) error {
	creds, err := s.backend.ListCredentials(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.credentials = creds
	hooks := s.onCredentialsReplaced
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(copyCredentials(creds))
	}
	return nil
}

// Clients returns a copy of the cached client list.
func (s *Store) Clients() []models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Client, len(s.clients))
	copy(out, s.clients)
	return out
}

// Credentials returns a copy of the cached credential list.
func (s *Store) Credentials() []models.OAuthCredential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCredentials(s.credentials)
}

// ClientName resolves a client id against the cached client list. The second
// return is false when the relation cannot be resolved.
func (s *Store) ClientName(id int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}

func copyCredentials(creds []models.OAuthCredential) []models.OAuthCredential {
	out := make([]models.OAuthCredential, len(creds))
	copy(out, creds)
	return out
}
