package credential_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rankrocket/calendar-stacker/internal/credential"
	"github.com/rankrocket/calendar-stacker/internal/models"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		cred *models.OAuthCredential
		want credential.Status
	}{
		{"nil credential", nil, credential.StatusNoToken},
		{"no token no expiry", &models.OAuthCredential{}, credential.StatusNoToken},
		{"no token with future expiry", &models.OAuthCredential{TokenExpiresAt: &future}, credential.StatusNoToken},
		{"no token with past expiry", &models.OAuthCredential{TokenExpiresAt: &past}, credential.StatusNoToken},
		{"token without expiry never expires", &models.OAuthCredential{AccessToken: "tok"}, credential.StatusValid},
		{"token with future expiry", &models.OAuthCredential{AccessToken: "tok", TokenExpiresAt: &future}, credential.StatusValid},
		{"token with past expiry", &models.OAuthCredential{AccessToken: "tok", TokenExpiresAt: &past}, credential.StatusExpired},
		{"token expiring exactly now", &models.OAuthCredential{AccessToken: "tok", TokenExpiresAt: &now}, credential.StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, credential.DeriveStatus(tt.cred, now))
		})
	}
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "Valid", credential.StatusValid.Label())
	assert.Equal(t, "Expired", credential.StatusExpired.Label())
	assert.Equal(t, "No Token", credential.StatusNoToken.Label())
}
