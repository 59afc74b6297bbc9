package credential

import (
	"time"

	"github.com/rankrocket/calendar-stacker/internal/models"
)

// Row is the display-ready projection of one credential.
type Row struct {
	ID             int64
	ClientName     string
	GoogleClientID string
	Status         Status
	Expiry         string
	Pending        bool
	EmptyState     bool
}

const (
	unknownClientLabel = "Unknown Client"
	noExpiryLabel      = "N/A"
	emptyStateLabel    = "No OAuth credentials configured"
)

// Rows projects the cached lists into table rows. An empty credential list
// yields a single empty-state row rather than no rows at all.
func Rows(creds []models.OAuthCredential, clients []models.Client, pending func(int64) bool, now time.Time) []Row {
	if len(creds) == 0 {
		return []Row{{ClientName: emptyStateLabel, EmptyState: true}}
	}

	names := make(map[int64]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	rows := make([]Row, 0, len(creds))
	for i := range creds {
		cred := &creds[i]
		name, ok := names[cred.ClientID]
		if !ok {
			name = unknownClientLabel
		}
		expiry := noExpiryLabel
		if cred.TokenExpiresAt != nil {
			expiry = cred.TokenExpiresAt.Local().Format("2006-01-02 15:04")
		}
		isPending := false
		if pending != nil {
			isPending = pending(cred.ID)
		}
		rows = append(rows, Row{
			ID:             cred.ID,
			ClientName:     name,
			GoogleClientID: cred.GoogleClientID,
			Status:         DeriveStatus(cred, now),
			Expiry:         expiry,
			Pending:        isPending,
		})
	}
	return rows
}
