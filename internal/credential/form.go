package credential

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rankrocket/calendar-stacker/internal/models"
)

// FormState names the editing workflow states.
type FormState string

const (
	StateIdle       FormState = "idle"
	StateEditing    FormState = "editing"
	StateSubmitting FormState = "submitting"
)

// Draft holds the operator-entered fields of the credential form. An empty ID
// means the credential has not been persisted yet.
type Draft struct {
	ID                 string
	ClientID           string
	GoogleClientID     string
	GoogleClientSecret string
	ScopesText         string
}

// Validate checks a draft without touching the network. It returns a
// *ValidationError naming every missing field, or nil.
func Validate(d Draft) error {
	var missing []string
	if strings.TrimSpace(d.ClientID) == "" {
		missing = append(missing, "client_id")
	}
	if strings.TrimSpace(d.GoogleClientID) == "" {
		missing = append(missing, "google_client_id")
	}
	if strings.TrimSpace(d.GoogleClientSecret) == "" {
		missing = append(missing, "google_client_secret")
	}
	if len(ParseScopes(d.ScopesText)) == 0 {
		missing = append(missing, "scopes")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Form gathers, validates and submits credential drafts. Transitions:
// Idle -> Editing on Open, Editing -> Submitting -> Idle on a successful
// Submit, back to Editing when the submit fails so the input survives.
type Form struct {
	mu       sync.Mutex
	state    FormState
	draft    Draft
	backend  Backend
	store    *Store
	notifier Notifier
}

// NewForm creates an idle form wired to the backend and cache.
func NewForm(backend Backend, store *Store, notifier Notifier) *Form {
	return &Form{
		state:    StateIdle,
		backend:  backend,
		store:    store,
		notifier: notifier,
	}
}

// State returns the current workflow state.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns the current draft.
func (f *Form) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// SetDraft replaces the draft while editing.
func (f *Form) SetDraft(d Draft) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateEditing {
		return
	}
	f.draft = d
}

// Open moves the form into Editing. With an existing id the credential is
// fetched and every field pre-filled, scopes reconstructed one per line;
// otherwise the draft resets to the default scope set. The client list is
// refreshed first so the selection options are current; a stale list is not
// fatal.
func (f *Form) Open(ctx context.Context, existingID string) error {
	if err := f.store.RefreshClients(ctx); err != nil {
		f.notifier.Notify(LevelError, fmt.Sprintf("Error: %s", err))
	}

	draft := Draft{ScopesText: DefaultScope}
	if existingID != "" {
		id, err := strconv.ParseInt(existingID, 10, 64)
		if err != nil {
			f.notifier.Notify(LevelError, fmt.Sprintf("Error: invalid credential id %q", existingID))
			return fmt.Errorf("invalid credential id %q", existingID)
		}
		cred, err := f.backend.GetCredential(ctx, id)
		if err != nil {
			f.notifier.Notify(LevelError, fmt.Sprintf("Error: %s", err))
			return err
		}
		draft = Draft{
			ID:                 existingID,
			ClientID:           strconv.FormatInt(cred.ClientID, 10),
			GoogleClientID:     cred.GoogleClientID,
			GoogleClientSecret: cred.GoogleClientSecret,
			ScopesText:         JoinScopes(cred.Scopes),
		}
	}

	f.mu.Lock()
	f.state = StateEditing
	f.draft = draft
	f.mu.Unlock()
	return nil
}

// Submit validates and persists the current draft. Verb selection follows the
// id: absent means create, present means update of that same resource. On
// success the form closes and the credential cache refreshes; on failure the
// form stays open with the backend's message surfaced verbatim.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateEditing {
		f.mu.Unlock()
		return fmt.Errorf("no draft open")
	}
	draft := f.draft
	f.mu.Unlock()

	if err := Validate(draft); err != nil {
		f.notifier.Notify(LevelError, err.Error())
		return err
	}

	payload := models.CredentialPayload{
		ClientID:           strings.TrimSpace(draft.ClientID),
		GoogleClientID:     strings.TrimSpace(draft.GoogleClientID),
		GoogleClientSecret: strings.TrimSpace(draft.GoogleClientSecret),
		Scopes:             ParseScopes(draft.ScopesText),
	}

	f.setState(StateSubmitting)

	var err error
	if draft.ID == "" {
		_, err = f.backend.CreateCredential(ctx, payload)
	} else {
		var id int64
		id, err = strconv.ParseInt(draft.ID, 10, 64)
		if err == nil {
			_, err = f.backend.UpdateCredential(ctx, id, payload)
		}
	}
	if err != nil {
		// Keep the form open so the operator can correct the input.
		f.setState(StateEditing)
		f.notifier.Notify(LevelError, fmt.Sprintf("Error: %s", err))
		return err
	}

	f.mu.Lock()
	f.state = StateIdle
	f.draft = Draft{}
	f.mu.Unlock()

	f.notifier.Notify(LevelSuccess, "OAuth credentials saved")
	if err := f.store.RefreshCredentials(ctx); err != nil {
		f.notifier.Notify(LevelError, fmt.Sprintf("Error: %s", err))
	}
	return nil
}

// Close abandons the draft and returns to Idle.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateIdle
	f.draft = Draft{}
}

func (f *Form) setState(s FormState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}
