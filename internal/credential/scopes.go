package credential

import "strings"

// DefaultScope is pre-filled when creating a new credential.
const DefaultScope = "https://www.googleapis.com/auth/calendar.readonly"

// ParseScopes splits scope text on newlines, trims each line and drops blanks.
// Order is preserved; duplicates are not collapsed.
func ParseScopes(text string) []string {
	var scopes []string
	for _, line := range strings.Split(text, "\n") {
		scope := strings.TrimSpace(line)
		if scope == "" {
			continue
		}
		scopes = append(scopes, scope)
	}
	return scopes
}

// JoinScopes renders a scope list back to one-scope-per-line form. Parsing the
// result yields the original list.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, "\n")
}
