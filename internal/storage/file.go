package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rankrocket/calendar-stacker/internal/models"
)

// FileStore keeps clients and credentials in a single JSON file. Intended for
// development and tests; Postgres is the production backend.
type FileStore struct {
	mu       sync.RWMutex
	filePath string
	data     fileData
}

type fileData struct {
	NextClientID     int64                    `json:"next_client_id"`
	NextCredentialID int64                    `json:"next_credential_id"`
	Clients          []models.Client          `json:"clients"`
	Credentials      []models.OAuthCredential `json:"credentials"`
}

// NewFileStore loads (or lazily creates) the JSON data file.
func NewFileStore(filePath string) (*FileStore, error) {
	store := &FileStore{
		filePath: filePath,
		data:     fileData{NextClientID: 1, NextCredentialID: 1},
	}
	if err := store.load(); err != nil {
		return nil, fmt.Errorf("failed to load data file: %w", err)
	}
	return store, nil
}

func (s *FileStore) load() error {
	absPath, err := filepath.Abs(s.filePath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse %s: %w", s.filePath, err)
	}
	if data.NextClientID == 0 {
		data.NextClientID = 1
	}
	if data.NextCredentialID == 0 {
		data.NextCredentialID = 1
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// save writes the current data under the lock held by the caller.
func (s *FileStore) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, raw, 0600)
}

// ListClients returns all clients sorted by name.
func (s *FileStore) ListClients() ([]models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Client, len(s.data.Clients))
	copy(out, s.data.Clients)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetClient fetches one client by id.
func (s *FileStore) GetClient(id int64) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.data.Clients {
		if c.ID == id {
			client := c
			return &client, nil
		}
	}
	return nil, ErrNotFound
}

// CreateClient assigns an id and persists the client.
func (s *FileStore) CreateClient(client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	client.ID = s.data.NextClientID
	client.CreatedAt = now
	client.UpdatedAt = now
	s.data.NextClientID++
	s.data.Clients = append(s.data.Clients, *client)
	return s.save()
}

// UpdateClient replaces a stored client.
func (s *FileStore) UpdateClient(client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Clients {
		if s.data.Clients[i].ID == client.ID {
			client.CreatedAt = s.data.Clients[i].CreatedAt
			client.UpdatedAt = time.Now()
			s.data.Clients[i] = *client
			return s.save()
		}
	}
	return ErrNotFound
}

// DeleteClient removes a client and its credentials.
func (s *FileStore) DeleteClient(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	clients := s.data.Clients[:0]
	for _, c := range s.data.Clients {
		if c.ID == id {
			found = true
			continue
		}
		clients = append(clients, c)
	}
	if !found {
		return ErrNotFound
	}
	s.data.Clients = clients

	// Cascade like the Postgres schema does.
	creds := s.data.Credentials[:0]
	for _, cred := range s.data.Credentials {
		if cred.ClientID != id {
			creds = append(creds, cred)
		}
	}
	s.data.Credentials = creds
	return s.save()
}

// ListCredentials returns all credentials ordered by id.
func (s *FileStore) ListCredentials() ([]models.OAuthCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.OAuthCredential, len(s.data.Credentials))
	copy(out, s.data.Credentials)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetCredential fetches one credential by id.
func (s *FileStore) GetCredential(id int64) (*models.OAuthCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cred := range s.data.Credentials {
		if cred.ID == id {
			out := cred
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// CreateCredential assigns an id and persists the credential.
func (s *FileStore) CreateCredential(cred *models.OAuthCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cred.ID = s.data.NextCredentialID
	cred.CreatedAt = now
	cred.UpdatedAt = now
	s.data.NextCredentialID++
	s.data.Credentials = append(s.data.Credentials, *cred)
	return s.save()
}

// UpdateCredential replaces a stored credential.
func (s *FileStore) UpdateCredential(cred *models.OAuthCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Credentials {
		if s.data.Credentials[i].ID == cred.ID {
			cred.CreatedAt = s.data.Credentials[i].CreatedAt
			cred.UpdatedAt = time.Now()
			s.data.Credentials[i] = *cred
			return s.save()
		}
	}
	return ErrNotFound
}

// DeleteCredential removes a credential.
func (s *FileStore) DeleteCredential(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds := s.data.Credentials[:0]
	found := false
	for _, cred := range s.data.Credentials {
		if cred.ID == id {
			found = true
			continue
		}
		creds = append(creds, cred)
	}
	if !found {
		return ErrNotFound
	}
	s.data.Credentials = creds
	return s.save()
}

// Ping always succeeds for the file store.
func (s *FileStore) Ping() error { return nil }

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }
