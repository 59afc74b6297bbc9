package credential

import (
	"time"

	"github.com/rankrocket/calendar-stacker/internal/models"
)

// Status classifies a credential's authorization freshness.
type Status string

const (
	StatusNoToken Status = "none"
	StatusValid   Status = "valid"
	StatusExpired Status = "expired"
)

// DeriveStatus computes the token status for a credential at the given time.
// A credential without an access token has no status to speak of regardless of
// its expiry value. A present token with no expiry is treated as never
// expiring; "not yet authorized" is always signalled by the missing token, not
// the missing expiry.
func DeriveStatus(cred *models.OAuthCredential, now time.Time) Status {
	if cred == nil || cred.AccessToken == "" {
		return StatusNoToken
	}
	if cred.TokenExpiresAt == nil {
		return StatusValid
	}
	if cred.TokenExpiresAt.After(now) {
		return StatusValid
	}
	return StatusExpired
}

// Label returns the operator-facing name for a status.
func (s Status) Label() string {
	switch s {
	case StatusValid:
		return "Valid"
	case StatusExpired:
		return "Expired"
	default:
		return "No Token"
	}
}
