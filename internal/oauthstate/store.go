// Package oauthstate tracks pending consent states between the authorize
// redirect and the provider callback. States are single-use and expire on
// their own.
package oauthstate

import (
	"context"
	"errors"
	"os"
	"time"
)

// DefaultTTL bounds how long a consent flow may stay pending.
const DefaultTTL = 10 * time.Minute

// ErrStateNotFound is returned when a state is unknown, expired or already
// consumed.
var ErrStateNotFound = errors.New("oauth state not found or expired")

// PendingFlow records which credential a consent state belongs to.
type PendingFlow struct {
	State        string    `json:"state"`
	CredentialID int64     `json:"credential_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists pending consent flows.
type Store interface {
	Save(ctx context.Context, flow PendingFlow, ttl time.Duration) error
	// Consume retrieves and deletes a flow so each state is honored once.
	Consume(ctx context.Context, state string) (PendingFlow, error)
	Close() error
}

// NewStoreFromEnv returns a Redis-backed store when REDIS_URL is set,
// otherwise an in-memory one.
func NewStoreFromEnv() (Store, error) {
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		return NewRedisStore(redisURL)
	}
	return NewMemoryStore(), nil
}
