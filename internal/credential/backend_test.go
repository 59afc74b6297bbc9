package credential_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/rankrocket/calendar-stacker/internal/credential"
	"github.com/rankrocket/calendar-stacker/internal/models"
)

// fakeBackend records calls and serves canned data for component tests.
type fakeBackend struct {
	mu sync.Mutex

	clients     []models.Client
	credentials []models.OAuthCredential

	listClientsErr     error
	listCredentialsErr error

	created       []models.CredentialPayload
	updated       map[int64]models.CredentialPayload
	deleted       []int64
	authorized    []int64
	createErr     error
	updateErr     error
	deleteErr     error
	authorizeErr  error
	authorizeURL  string
	nextCreatedID int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		updated:       make(map[int64]models.CredentialPayload),
		authorizeURL:  "https://accounts.google.com/o/oauth2/auth?state=abc",
		nextCreatedID: 99,
	}
}

func (f *fakeBackend) ListClients(ctx context.Context) ([]models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listClientsErr != nil {
		return nil, f.listClientsErr
	}
	out := make([]models.Client, len(f.clients))
	copy(out, f.clients)
	return out, nil
}

func (f *fakeBackend) ListCredentials(ctx context.Context) ([]models.OAuthCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listCredentialsErr != nil {
		return nil, f.listCredentialsErr
	}
	out := make([]models.OAuthCredential, len(f.credentials))
	copy(out, f.credentials)
	return out, nil
}

func (f *fakeBackend) GetCredential(ctx context.Context, id int64) (*models.OAuthCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.credentials {
		if f.credentials[i].ID == id {
			cred := f.credentials[i]
			return &cred, nil
		}
	}
	return nil, fmt.Errorf("OAuthCredential %d not found", id)
}

func (f *fakeBackend) CreateCredential(ctx context.Context, payload models.CredentialPayload) (*models.OAuthCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, payload)
	return &models.OAuthCredential{ID: f.nextCreatedID, GoogleClientID: payload.GoogleClientID}, nil
}

func (f *fakeBackend) UpdateCredential(ctx context.Context, id int64, payload models.CredentialPayload) (*models.OAuthCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated[id] = payload
	return &models.OAuthCredential{ID: id, GoogleClientID: payload.GoogleClientID}, nil
}

func (f *fakeBackend) DeleteCredential(ctx context.Context, id int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return "", f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return fmt.Sprintf("OAuthCredential %d deleted.", id), nil
}

func (f *fakeBackend) RequestAuthorization(ctx context.Context, id int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.authorizeErr != nil {
		return "", f.authorizeErr
	}
	f.authorized = append(f.authorized, id)
	return f.authorizeURL, nil
}

var _ credential.Backend = (*fakeBackend)(nil)

// noticeRecorder captures notices for assertions.
type noticeRecorder struct {
	mu      sync.Mutex
	notices []credential.Notice
}

func (r *noticeRecorder) Notify(level credential.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, credential.Notice{Level: level, Message: message})
}

func (r *noticeRecorder) last() (credential.Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return credential.Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}
