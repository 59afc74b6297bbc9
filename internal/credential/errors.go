package credential

import (
	"fmt"
	"strings"
)

// ValidationError reports missing or invalid draft fields. It is raised before
// any network call is attempted.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// IsValidationError reports whether err is a local validation failure.
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}
