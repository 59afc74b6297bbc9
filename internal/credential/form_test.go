package credential_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankrocket/calendar-stacker/internal/credential"
	"github.com/rankrocket/calendar-stacker/internal/models"
)

func TestValidate(t *testing.T) {
	valid := credential.Draft{
		ClientID:           "7",
		GoogleClientID:     "abc",
		GoogleClientSecret: "xyz",
		ScopesText:         "scope1\nscope2",
	}
	require.NoError(t, credential.Validate(valid))

	tests := []struct {
		name    string
		mutate  func(*credential.Draft)
		missing string
	}{
		{"empty client_id", func(d *credential.Draft) { d.ClientID = "" }, "client_id"},
		{"whitespace client_id", func(d *credential.Draft) { d.ClientID = "   " }, "client_id"},
		{"empty google_client_id", func(d *credential.Draft) { d.GoogleClientID = "" }, "google_client_id"},
		{"empty google_client_secret", func(d *credential.Draft) { d.GoogleClientSecret = " " }, "google_client_secret"},
		{"blank scopes", func(d *credential.Draft) { d.ScopesText = "\n  \n" }, "scopes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := valid
			tt.mutate(&draft)
			err := credential.Validate(draft)
			require.Error(t, err)
			assert.True(t, credential.IsValidationError(err))
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestValidateNamesAllMissingFields(t *testing.T) {
	err := credential.Validate(credential.Draft{})
	require.Error(t, err)
	verr, ok := err.(*credential.ValidationError)
	require.True(t, ok)
	assert.Equal(t, []string{"client_id", "google_client_id", "google_client_secret", "scopes"}, verr.Fields)
}

func TestOpenForCreateResetsDraft(t *testing.T) {
	backend := newFakeBackend()
	backend.clients = []models.Client{{ID: 7, Name: "Acme"}}
	notices := &noticeRecorder{}
	store := credential.NewStore(backend)
	form := credential.NewForm(backend, store, notices)

	require.NoError(t, form.Open(context.Background(), ""))

	assert.Equal(t, credential.StateEditing, form.State())
	draft := form.Draft()
	assert.Empty(t, draft.ID)
	assert.Equal(t, credential.DefaultScope, draft.ScopesText)
	// Client list was refreshed so selection options are current.
	assert.Len(t, store.Clients(), 1)
}

func TestOpenForEditPrefillsDraft(t *testing.T) {
	backend := newFakeBackend()
	backend.credentials = []models.OAuthCredential{{
		ID:                 42,
		ClientID:           7,
		GoogleClientID:     "abc",
		GoogleClientSecret: "xyz",
		Scopes:             []string{"scope1", "scope2"},
	}}
	notices := &noticeRecorder{}
	store := credential.NewStore(backend)
	form := credential.NewForm(backend, store, notices)

	require.NoError(t, form.Open(context.Background(), "42"))

	draft := form.Draft()
	assert.Equal(t, "42", draft.ID)
	assert.Equal(t, "7", draft.ClientID)
	assert.Equal(t, "abc", draft.GoogleClientID)
	assert.Equal(t, "xyz", draft.GoogleClientSecret)
	assert.Equal(t, "scope1\nscope2", draft.ScopesText)
}

func TestOpenForEditUnknownIDReportsError(t *testing.T) {
	backend := newFakeBackend()
	notices := &noticeRecorder{}
	form := credential.NewForm(backend, credential.NewStore(backend), notices)

	err := form.Open(context.Background(), "404")
	require.Error(t, err)
	assert.Equal(t, credential.StateIdle, form.State())

	notice, ok := notices.last()
	require.True(t, ok)
	assert.Equal(t, credential.LevelError, notice.Level)
}

func TestSubmitCreatesWithoutID(t *testing.T) {
	backend := newFakeBackend()
	notices := &noticeRecorder{}
	store := credential.NewStore(backend)
	form := credential.NewForm(backend, store, notices)

	require.NoError(t, form.Open(context.Background(), ""))
	form.SetDraft(credential.Draft{
		ClientID:           "7",
		GoogleClientID:     "abc",
		GoogleClientSecret: "xyz",
		ScopesText:         "scope1\nscope2",
	})
	require.NoError(t, form.Submit(context.Background()))

	require.Len(t, backend.created, 1)
	assert.Empty(t, backend.updated)
	assert.Equal(t, models.CredentialPayload{
		ClientID:           "7",
		GoogleClientID:     "abc",
		GoogleClientSecret: "xyz",
		Scopes:             []string{"scope1", "scope2"},
	}, backend.created[0])

	// Editing surface closed, success reported.
	assert.Equal(t, credential.StateIdle, form.State())
	notice, ok := notices.last()
	require.True(t, ok)
	assert.Equal(t, credential.LevelSuccess, notice.Level)
}

func TestSubmitUpdatesWithID(t *testing.T) {
	backend := newFakeBackend()
	backend.credentials = []models.OAuthCredential{{ID: 42, ClientID: 7, GoogleClientID: "abc", GoogleClientSecret: "xyz", Scopes: []string{"s"}}}
	notices := &noticeRecorder{}
	form := credential.NewForm(backend, credential.NewStore(backend), notices)

	require.NoError(t, form.Open(context.Background(), "42"))
	require.NoError(t, form.Submit(context.Background()))

	assert.Empty(t, backend.created)
	require.Contains(t, backend.updated, int64(42))
}

func TestSubmitValidationFailureSkipsNetwork(t *testing.T) {
	backend := newFakeBackend()
	notices := &noticeRecorder{}
	form := credential.NewForm(backend, credential.NewStore(backend), notices)

	require.NoError(t, form.Open(context.Background(), ""))
	form.SetDraft(credential.Draft{ScopesText: "\n"})

	err := form.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, credential.IsValidationError(err))
	assert.Empty(t, backend.created)
	assert.Empty(t, backend.updated)
	// Form stays open.
	assert.Equal(t, credential.StateEditing, form.State())
}

func TestSubmitBackendFailureKeepsFormOpen(t *testing.T) {
	backend := newFakeBackend()
	backend.createErr = errors.New("Client 7 not found.")
	notices := &noticeRecorder{}
	form := credential.NewForm(backend, credential.NewStore(backend), notices)

	require.NoError(t, form.Open(context.Background(), ""))
	form.SetDraft(credential.Draft{
		ClientID:           "7",
		GoogleClientID:     "abc",
		GoogleClientSecret: "xyz",
		ScopesText:         "scope1",
	})

	err := form.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, credential.StateEditing, form.State())

	// The backend message reaches the operator verbatim.
	notice, ok := notices.last()
	require.True(t, ok)
	assert.Equal(t, credential.LevelError, notice.Level)
	assert.Contains(t, notice.Message, "Client 7 not found.")

	// The draft survives for correction.
	assert.Equal(t, "abc", form.Draft().GoogleClientID)
}

func TestSubmitSuccessTriggersCredentialRefresh(t *testing.T) {
	backend := newFakeBackend()
	notices := &noticeRecorder{}
	store := credential.NewStore(backend)
	form := credential.NewForm(backend, store, notices)

	refreshed := false
	store.OnCredentialsReplaced(func([]models.OAuthCredential) { refreshed = true })

	require.NoError(t, form.Open(context.Background(), ""))
	form.SetDraft(credential.Draft{
		ClientID:           "7",
		GoogleClientID:     "abc",
		GoogleClientSecret: "xyz",
		ScopesText:         "scope1\nscope2",
	})
	require.NoError(t, form.Submit(context.Background()))
	assert.True(t, refreshed)
}
