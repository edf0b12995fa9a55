package domain

import "fmt"

// ErrorKind is the fixed failure taxonomy shared by the synchronous and background paths.
type ErrorKind string

const (
	ErrorKindNetwork    ErrorKind = "network"
	ErrorKindPermission ErrorKind = "permission"
	ErrorKindConflict   ErrorKind = "conflict"
	ErrorKindServer     ErrorKind = "server"
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindUnknown    ErrorKind = "unknown"
)

// ClassifiedError is a raw failure mapped onto ErrorKind. It is never persisted.
type ClassifiedError struct {
	Kind        ErrorKind `json:"kind"`
	Message     string    `json:"message"`
	Recoverable bool      `json:"recoverable"`
	Field       string    `json:"field,omitempty"`
	Cause       error     `json:"-"`
}

func (e *ClassifiedError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s error on %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}
