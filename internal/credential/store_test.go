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

func TestRefreshReplacesCaches(t *testing.T) {
	backend := newFakeBackend()
	backend.clients = []models.Client{{ID: 7, Name: "Acme", Email: "ops@acme.test"}}
	backend.credentials = []models.OAuthCredential{{ID: 1, ClientID: 7, GoogleClientID: "abc"}}

	store := credential.NewStore(backend)
	require.NoError(t, store.RefreshClients(context.Background()))
	require.NoError(t, store.RefreshCredentials(context.Background()))

	assert.Len(t, store.Clients(), 1)
	assert.Len(t, store.Credentials(), 1)

	name, ok := store.ClientName(7)
	assert.True(t, ok)
	assert.Equal(t, "Acme", name)

	_, ok = store.ClientName(8)
	assert.False(t, ok)
}

func TestRefreshFailureLeavesCacheUntouched(t *testing.T) {
	backend := newFakeBackend()
	backend.credentials = []models.OAuthCredential{{ID: 1, ClientID: 7}}

	store := credential.NewStore(backend)
	require.NoError(t, store.RefreshCredentials(context.Background()))
	require.Len(t, store.Credentials(), 1)

	backend.listCredentialsErr = errors.New("backend down")
	err := store.RefreshCredentials(context.Background())
	require.Error(t, err)

	// Prior cache survives the failed fetch.
	assert.Len(t, store.Credentials(), 1)
	assert.Equal(t, int64(1), store.Credentials()[0].ID)
}

func TestRefreshClientsFailureLeavesCacheUntouched(t *testing.T) {
	backend := newFakeBackend()
	backend.clients = []models.Client{{ID: 7, Name: "Acme"}}

	store := credential.NewStore(backend)
	require.NoError(t, store.RefreshClients(context.Background()))

	backend.listClientsErr = errors.New("backend down")
	require.Error(t, store.RefreshClients(context.Background()))
	assert.Len(t, store.Clients(), 1)
}

func TestOnCredentialsReplacedHook(t *testing.T) {
	backend := newFakeBackend()
	backend.credentials = []models.OAuthCredential{{ID: 1}, {ID: 2}}

	store := credential.NewStore(backend)
	var seen [][]models.OAuthCredential
	store.OnCredentialsReplaced(func(creds []models.OAuthCredential) {
		seen = append(seen, creds)
	})

	require.NoError(t, store.RefreshCredentials(context.Background()))
	require.Len(t, seen, 1)
	assert.Len(t, seen[0], 2)

	// A failed refresh must not fire the hook.
	backend.listCredentialsErr = errors.New("backend down")
	require.Error(t, store.RefreshCredentials(context.Background()))
	assert.Len(t, seen, 1)
}

func TestCachedListsAreCopies(t *testing.T) {
	backend := newFakeBackend()
	backend.clients = []models.Client{{ID: 7, Name: "Acme"}}

	store := credential.NewStore(backend)
	require.NoError(t, store.RefreshClients(context.Background()))

	got := store.Clients()
	got[0].Name = "mutated"

	name, _ := store.ClientName(7)
	assert.Equal(t, "Acme", name)
}
