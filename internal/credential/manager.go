package credential

import (
	"context"
	"fmt"
	"time"
)

// Manager ties the store, form and launcher into the four actions the
// surrounding UI can trigger from a list or form surface.
type Manager struct {
	Store    *Store
	Form     *Form
	Launcher *Launcher

	backend  Backend
	notifier Notifier
}

// NewManager wires up a credential manager against a backend.
func NewManager(backend Backend, opener URLOpener, notifier Notifier) *Manager {
	store := NewStore(backend)
	return &Manager{
		Store:    store,
		Form:     NewForm(backend, store, notifier),
		Launcher: NewLauncher(backend, store, opener, notifier),
		backend:  backend,
		notifier: notifier,
	}
}

// OpenForCreate opens the form with default values.
func (m *Manager) OpenForCreate(ctx context.Context) error {
	return m.Form.Open(ctx, "")
}

// OpenForEdit opens the form pre-filled from the stored credential.
func (m *Manager) OpenForEdit(ctx context.Context, id string) error {
	return m.Form.Open(ctx, id)
}

// Submit persists the current draft.
func (m *Manager) Submit(ctx context.Context) error {
	return m.Form.Submit(ctx)
}

// Authorize starts the external consent flow for a persisted credential.
func (m *Manager) Authorize(ctx context.Context, id int64) error {
	return m.Launcher.Authorize(ctx, id)
}

// Delete removes a credential permanently and refreshes the list. The delete
// is backend-side and irreversible.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	msg, err := m.backend.DeleteCredential(ctx, id)
	if err != nil {
		m.notifier.Notify(LevelError, fmt.Sprintf("Error: %s", err))
		return err
	}
	if msg == "" {
		msg = "OAuth credentials deleted"
	}
	m.notifier.Notify(LevelSuccess, msg)
	if err := m.Store.RefreshCredentials(ctx); err != nil {
		m.notifier.Notify(LevelError, fmt.Sprintf("Error: %s", err))
	}
	return nil
}

// Rows renders the current caches for display.
func (m *Manager) Rows(now time.Time) []Row {
	return Rows(m.Store.Credentials(), m.Store.Clients(), m.Launcher.Pending, now)
}
