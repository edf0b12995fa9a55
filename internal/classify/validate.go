package classify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vietddude/draftsync/internal/core/domain"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// ValidationError is input rejected before it is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidatePayload checks payload locally. It returns the first violation.
func ValidatePayload(p domain.AssistantPayload) error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if n := utf8.RuneCountInString(p.Title); n > MaxTitleLength {
		return &ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("must be at most %d characters, got %d", MaxTitleLength, n),
		}
	}
	if n := utf8.RuneCountInString(p.Description); n > MaxDescriptionLength {
		return &ValidationError{
			Field:   "description",
			Message: fmt.Sprintf("must be at most %d characters, got %d", MaxDescriptionLength, n),
		}
	}
	return nil
}
