package storage

import (
	"os"

	"github.com/rankrocket/calendar-stacker/internal/models"
)

// Store is the persistence interface for clients and their OAuth credentials.
type Store interface {
	ListClients() ([]models.Client, error)
	GetClient(id int64) (*models.Client, error)
	CreateClient(client *models.Client) error
	UpdateClient(client *models.Client) error
	DeleteClient(id int64) error

	ListCredentials() ([]models.OAuthCredential, error)
	GetCredential(id int64) (*models.OAuthCredential, error)
	CreateCredential(cred *models.OAuthCredential) error
	UpdateCredential(cred *models.OAuthCredential) error
	DeleteCredential(id int64) error

	Ping() error
	Close() error
}

// NewStoreFromEnv selects the store backend: Postgres when DATABASE_URL is
// set, otherwise a JSON file for development.
func NewStoreFromEnv() (Store, error) {
	if connString := os.Getenv("DATABASE_URL"); connString != "" {
		return NewPostgresStore(connString)
	}

	dataFile := os.Getenv("STACKER_DATA_FILE")
	if dataFile == "" {
		dataFile = "stacker.json"
	}
	return NewFileStore(dataFile)
}

var ErrNotFound = &NotFoundError{}

type NotFoundError struct{}

func (e *NotFoundError) Error() string {
	return "record not found"
}
