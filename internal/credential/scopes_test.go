package credential_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rankrocket/calendar-stacker/internal/credential"
)

func TestParseScopes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"blank lines and padding dropped", "a\n\nb\n  \nc", []string{"a", "b", "c"}},
		{"single scope", credential.DefaultScope, []string{credential.DefaultScope}},
		{"whitespace trimmed, order kept", "  b \n a ", []string{"b", "a"}},
		{"only whitespace", "  \n\t\n", nil},
		{"empty", "", nil},
		{"windows line endings", "a\r\nb", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, credential.ParseScopes(tt.text))
		})
	}
}

func TestScopeRoundTrip(t *testing.T) {
	scopes := credential.ParseScopes("a\n\nb\n  \nc")
	assert.Equal(t, []string{"a", "b", "c"}, scopes)

	rejoined := credential.JoinScopes(scopes)
	assert.Equal(t, scopes, credential.ParseScopes(rejoined))
}
