package credential

import (
	"context"
	"fmt"
	"sync"

	"github.com/rankrocket/calendar-stacker/internal/models"
)

// URLOpener hands a URL to a new browsing context. It must not wait for the
// consent flow to finish.
type URLOpener interface {
	OpenURL(url string) error
}

// URLOpenerFunc adapts a function to the URLOpener interface.
type URLOpenerFunc func(url string) error

func (f URLOpenerFunc) OpenURL(url string) error { return f(url) }

// Launcher starts the external OAuth consent flow for persisted credentials.
// Authorization is fire-and-forget: there is no completion callback, only a
// pending marker per credential id that the next successful credential refresh
// clears.
type Launcher struct {
	mu       sync.Mutex
	backend  Backend
	opener   URLOpener
	notifier Notifier
	pending  map[int64]bool
}

// NewLauncher creates a launcher and hooks the pending markers to the store's
// refresh cycle.
func NewLauncher(backend Backend, store *Store, opener URLOpener, notifier Notifier) *Launcher {
	l := &Launcher{
		backend:  backend,
		opener:   opener,
		notifier: notifier,
		pending:  make(map[int64]bool),
	}
	store.OnCredentialsReplaced(func([]models.OAuthCredential) {
		l.clearPending()
	})
	return l
}

// Authorize requests an authorization URL for the credential and opens it.
// On failure no navigation happens. The credential caches are never touched
// here; state changes are only observed via the next refresh.
func (l *Launcher) Authorize(ctx context.Context, id int64) error {
	authURL, err := l.backend.RequestAuthorization(ctx, id)
	if err != nil {
		l.notifier.Notify(LevelError, fmt.Sprintf("Error: %s", err))
		return err
	}
	if err := l.opener.OpenURL(authURL); err != nil {
		l.notifier.Notify(LevelError, fmt.Sprintf("Error: %s", err))
		return err
	}

	l.mu.Lock()
	l.pending[id] = true
	l.mu.Unlock()

	l.notifier.Notify(LevelSuccess, "Authorization started in a new window")
	return nil
}

// Pending reports whether an authorization was launched for the credential and
// no refresh has been observed since.
func (l *Launcher) Pending(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending[id]
}

func (l *Launcher) clearPending() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = make(map[int64]bool)
}
