// Package classify maps raw failures onto the fixed error taxonomy.
//
// Rules are evaluated in order and the first match wins:
//
//	network -> permission -> conflict -> server -> validation -> unknown
//
// Classify is pure: the same error always yields the same kind.
package classify

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	"google.golang.org/grpc/codes"

	"github.com/vietddude/draftsync/internal/core/domain"
	"github.com/vietddude/draftsync/internal/remote"
)

// Context carries optional hints from the call site.
type Context struct {
	// Field names the input the failed operation was about, used when the
	// error itself does not say.
	Field string
}

// Classify maps err to a ClassifiedError. A nil err yields nil; an error that
// is already classified is returned unchanged.
func Classify(err error, hints ...Context) *domain.ClassifiedError {
	if err == nil {
		return nil
	}

	var ce *domain.ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	var hint Context
	if len(hints) > 0 {
		hint = hints[0]
	}

	kind := kindOf(err)
	out := &domain.ClassifiedError{
		Kind:        kind,
		Message:     err.Error(),
		Recoverable: Recoverable(kind),
		Cause:       err,
	}
	if kind == domain.ErrorKindValidation {
		out.Field = fieldOf(err)
		if out.Field == "" {
			out.Field = hint.Field
		}
	}
	return out
}

// Recoverable reports whether errors of kind are worth retrying.
func Recoverable(kind domain.ErrorKind) bool {
	switch kind {
	case domain.ErrorKindPermission, domain.ErrorKindValidation:
		return false
	default:
		return true
	}
}

func kindOf(err error) domain.ErrorKind {
	// Local validation never reached the transport.
	var ve *ValidationError
	if errors.As(err, &ve) {
		return domain.ErrorKindValidation
	}

	code, hasCode := grpcCode(err)
	httpStatus := httpStatusOf(err)
	msg := strings.ToLower(err.Error())

	switch {
	case isNetwork(err, code, hasCode, httpStatus, msg):
		return domain.ErrorKindNetwork
	case isPermission(code, hasCode, httpStatus, msg):
		return domain.ErrorKindPermission
	case isConflict(code, hasCode, httpStatus, msg):
		return domain.ErrorKindConflict
	case isServer(code, hasCode, httpStatus):
		return domain.ErrorKindServer
	case isValidation(code, hasCode, httpStatus):
		return domain.ErrorKindValidation
	default:
		return domain.ErrorKindUnknown
	}
}

var networkHints = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network",
	"timeout",
	"timed out",
	"offline",
	"unexpected eof",
	": eof",
}

func isNetwork(err error, code codes.Code, hasCode bool, httpStatus int, msg string) bool {
	if hasCode {
		return code == codes.Unavailable || code == codes.DeadlineExceeded
	}
	if httpStatus != 0 {
		return false
	}
	if errors.Is(err, remote.ErrOffline) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	for _, h := range networkHints {
		if strings.Contains(msg, h) {
			return true
		}
	}
	return false
}

func isPermission(code codes.Code, hasCode bool, httpStatus int, msg string) bool {
	if hasCode {
		return code == codes.PermissionDenied || code == codes.Unauthenticated
	}
	if httpStatus != 0 {
		return httpStatus == 401 || httpStatus == 403
	}
	return strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "forbidden") ||
		strings.Contains(msg, "unauthorized")
}

func isConflict(code codes.Code, hasCode bool, httpStatus int, msg string) bool {
	if hasCode {
		return code == codes.Aborted || code == codes.AlreadyExists
	}
	if httpStatus != 0 {
		return httpStatus == 409 || httpStatus == 412
	}
	return strings.Contains(msg, "conflict") || strings.Contains(msg, "version mismatch")
}

func isServer(code codes.Code, hasCode bool, httpStatus int) bool {
	if hasCode {
		switch code {
		case codes.Internal, codes.Unknown, codes.DataLoss, codes.ResourceExhausted:
			return true
		}
		return false
	}
	return httpStatus >= 500 && httpStatus <= 599
}

func isValidation(code codes.Code, hasCode bool, httpStatus int) bool {
	if hasCode {
		switch code {
		case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
			return true
		}
		return false
	}
	return httpStatus == 400 || httpStatus == 422
}

func httpStatusOf(err error) int {
	var se *remote.StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

func fieldOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	var se *remote.StatusError
	if errors.As(err, &se) {
		return se.Field
	}
	return grpcField(err)
}
