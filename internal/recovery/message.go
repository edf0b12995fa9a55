package recovery

import (
	"fmt"

	"github.com/vietddude/draftsync/internal/core/domain"
)

var hints = map[domain.ErrorKind]string{
	domain.ErrorKindNetwork:    "Check your internet connection and try again.",
	domain.ErrorKindPermission: "You do not have permission to do this. Contact your administrator.",
	domain.ErrorKindConflict:   "Someone else changed this. Refresh and try again.",
	domain.ErrorKindServer:     "The server had a problem. Try again in a few minutes.",
	domain.ErrorKindUnknown:    "Something went wrong. Try again.",
}

const draftSavedNote = " Your draft has been saved."

// FormatMessage renders err as a user-facing message with a remediation hint.
func FormatMessage(err *domain.ClassifiedError) string {
	if err == nil {
		return ""
	}
	if err.Kind == domain.ErrorKindValidation {
		if err.Field != "" {
			return fmt.Sprintf("Please fix the %s field: %s", err.Field, err.Message)
		}
		return fmt.Sprintf("Please fix your input: %s", err.Message)
	}

	hint, ok := hints[err.Kind]
	if !ok {
		hint = hints[domain.ErrorKindUnknown]
	}
	return hint + draftSavedNote
}
