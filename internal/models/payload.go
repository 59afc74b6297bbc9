package models

// CredentialPayload is the outgoing body for credential create and update
// calls. The client id travels as a string, matching the representation the
// dashboard's selection surface produces; the backend coerces it to its
// numeric client identifiers.
type CredentialPayload struct {
	ClientID           string   `json:"client_id"`
	GoogleClientID     string   `json:"google_client_id"`
	GoogleClientSecret string   `json:"google_client_secret"`
	Scopes             []string `json:"scopes"`
}
