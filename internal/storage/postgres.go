package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/rankrocket/calendar-stacker/internal/config"
	"github.com/rankrocket/calendar-stacker/internal/models"
)

// PostgresStore persists clients and OAuth credentials in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a pooled connection and ensures the schema exists.
func NewPostgresStore(connString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(config.EnvInt("DB_MAX_OPEN_CONNS", 25))
	db.SetMaxIdleConns(config.EnvInt("DB_MAX_IDLE_CONNS", 5))
	db.SetConnMaxLifetime(config.EnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute))

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS clients (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL,
		google_account_email VARCHAR(255),
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS oauth_credentials (
		id SERIAL PRIMARY KEY,
		client_id INTEGER NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		google_client_id VARCHAR(256) NOT NULL,
		google_client_secret VARCHAR(256) NOT NULL,
		google_redirect_uri VARCHAR(512),
		scopes TEXT[] NOT NULL,
		access_token TEXT,
		refresh_token TEXT,
		token_expires_at TIMESTAMP,
		is_valid BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_oauth_credentials_client ON oauth_credentials(client_id);
	`

	_, err := s.db.Exec(query)
	return err
}

// ListClients returns all clients ordered by name.
func (s *PostgresStore) ListClients() ([]models.Client, error) {
	rows, err := s.db.Query(`
		SELECT id, name, email, COALESCE(google_account_email, ''), created_at, updated_at
		FROM clients
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.GoogleAccountEmail, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// GetClient fetches one client by id.
func (s *PostgresStore) GetClient(id int64) (*models.Client, error) {
	var c models.Client
	err := s.db.QueryRow(`
		SELECT id, name, email, COALESCE(google_account_email, ''), created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.GoogleAccountEmail, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateClient inserts a client and fills in its assigned id.
func (s *PostgresStore) CreateClient(client *models.Client) error {
	now := time.Now()
	client.CreatedAt = now
	client.UpdatedAt = now
	return s.db.QueryRow(`
		INSERT INTO clients (name, email, google_account_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, client.Name, client.Email, nullableString(client.GoogleAccountEmail), client.CreatedAt, client.UpdatedAt).Scan(&client.ID)
}

// UpdateClient replaces a client's mutable fields.
func (s *PostgresStore) UpdateClient(client *models.Client) error {
	client.UpdatedAt = time.Now()
	res, err := s.db.Exec(`
		UPDATE clients
		SET name = $1, email = $2, google_account_email = $3, updated_at = $4
		WHERE id = $5
	`, client.Name, client.Email, nullableString(client.GoogleAccountEmail), client.UpdatedAt, client.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteClient removes a client; its credentials cascade.
func (s *PostgresStore) DeleteClient(id int64) error {
	res, err := s.db.Exec(`DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

const credentialColumns = `
	id, client_id, google_client_id, google_client_secret,
	COALESCE(google_redirect_uri, ''), scopes,
	COALESCE(access_token, ''), COALESCE(refresh_token, ''),
	token_expires_at, is_valid, created_at, updated_at`

// ListCredentials returns all OAuth credentials.
func (s *PostgresStore) ListCredentials() ([]models.OAuthCredential, error) {
	rows, err := s.db.Query(`SELECT ` + credentialColumns + ` FROM oauth_credentials ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []models.OAuthCredential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, *cred)
	}
	return creds, rows.Err()
}

// GetCredential fetches one credential by id.
func (s *PostgresStore) GetCredential(id int64) (*models.OAuthCredential, error) {
	row := s.db.QueryRow(`SELECT `+credentialColumns+` FROM oauth_credentials WHERE id = $1`, id)
	cred, err := scanCredential(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cred, nil
}

// CreateCredential inserts a credential and fills in its assigned id.
func (s *PostgresStore) CreateCredential(cred *models.OAuthCredential) error {
	now := time.Now()
	cred.CreatedAt = now
	cred.UpdatedAt = now
	return s.db.QueryRow(`
		INSERT INTO oauth_credentials
			(client_id, google_client_id, google_client_secret, google_redirect_uri,
			 scopes, access_token, refresh_token, token_expires_at, is_valid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`,
		cred.ClientID,
		cred.GoogleClientID,
		cred.GoogleClientSecret,
		nullableString(cred.GoogleRedirectURI),
		pq.Array(cred.Scopes),
		nullableString(cred.AccessToken),
		nullableString(cred.RefreshToken),
		nullableTime(cred.TokenExpiresAt),
		cred.IsValid,
		cred.CreatedAt,
		cred.UpdatedAt,
	).Scan(&cred.ID)
}

// UpdateCredential replaces a credential's stored fields.
func (s *PostgresStore) UpdateCredential(cred *models.OAuthCredential) error {
	cred.UpdatedAt = time.Now()
	res, err := s.db.Exec(`
		UPDATE oauth_credentials
		SET client_id = $1, google_client_id = $2, google_client_secret = $3,
			google_redirect_uri = $4, scopes = $5, access_token = $6,
			refresh_token = $7, token_expires_at = $8, is_valid = $9, updated_at = $10
		WHERE id = $11
	`,
		cred.ClientID,
		cred.GoogleClientID,
		cred.GoogleClientSecret,
		nullableString(cred.GoogleRedirectURI),
		pq.Array(cred.Scopes),
		nullableString(cred.AccessToken),
		nullableString(cred.RefreshToken),
		nullableTime(cred.TokenExpiresAt),
		cred.IsValid,
		cred.UpdatedAt,
		cred.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteCredential removes a credential.
func (s *PostgresStore) DeleteCredential(id int64) error {
	res, err := s.db.Exec(`DELETE FROM oauth_credentials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Ping tests the database connection.
func (s *PostgresStore) Ping() error {
	return s.db.Ping()
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*models.OAuthCredential, error) {
	var cred models.OAuthCredential
	var scopes []string
	var expiresAt sql.NullTime
	err := row.Scan(
		&cred.ID,
		&cred.ClientID,
		&cred.GoogleClientID,
		&cred.GoogleClientSecret,
		&cred.GoogleRedirectURI,
		pq.Array(&scopes),
		&cred.AccessToken,
		&cred.RefreshToken,
		&expiresAt,
		&cred.IsValid,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cred.Scopes = scopes
	if expiresAt.Valid {
		t := expiresAt.Time
		cred.TokenExpiresAt = &t
	}
	return &cred, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: val, Valid: true}
}

func nullableTime(val *time.Time) sql.NullTime {
	if val == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *val, Valid: true}
}
