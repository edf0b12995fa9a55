package classify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vietddude/draftsync/internal/core/domain"
	"github.com/vietddude/draftsync/internal/remote"
)

func badRequest(field string) error {
	st, err := status.New(codes.InvalidArgument, "invalid request").WithDetails(&errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{{Field: field, Description: "too long"}},
	})
	if err != nil {
		panic(err)
	}
	return st.Err()
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantKind  domain.ErrorKind
		wantField string
	}{
		// Network
		{"offline sentinel", fmt.Errorf("create: %w", remote.ErrOffline), domain.ErrorKindNetwork, ""},
		{"econnrefused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), domain.ErrorKindNetwork, ""},
		{"dns error", &net.DNSError{Err: "no such host", Name: "api.example"}, domain.ErrorKindNetwork, ""},
		{"deadline", context.DeadlineExceeded, domain.ErrorKindNetwork, ""},
		{"message heuristic", errors.New("dial tcp 10.0.0.1:443: connection refused"), domain.ErrorKindNetwork, ""},
		{"eof message", errors.New(`Post "https://api.example/assistants": EOF`), domain.ErrorKindNetwork, ""},
		{"unexpected eof message", errors.New("read body: unexpected EOF"), domain.ErrorKindNetwork, ""},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), domain.ErrorKindNetwork, ""},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), domain.ErrorKindNetwork, ""},

		// Permission
		{"http 401", &remote.StatusError{StatusCode: 401, Message: "login"}, domain.ErrorKindPermission, ""},
		{"http 403", &remote.StatusError{StatusCode: 403, Message: "nope"}, domain.ErrorKindPermission, ""},
		{"grpc permission denied", status.Error(codes.PermissionDenied, "nope"), domain.ErrorKindPermission, ""},
		{"grpc unauthenticated", status.Error(codes.Unauthenticated, "who"), domain.ErrorKindPermission, ""},
		{"forbidden message", errors.New("Forbidden"), domain.ErrorKindPermission, ""},

		// Conflict
		{"http 409", &remote.StatusError{StatusCode: 409, Message: "exists"}, domain.ErrorKindConflict, ""},
		{"http 412", &remote.StatusError{StatusCode: 412, Message: "stale"}, domain.ErrorKindConflict, ""},
		{"grpc aborted", status.Error(codes.Aborted, "retry"), domain.ErrorKindConflict, ""},
		{"grpc already exists", status.Error(codes.AlreadyExists, "dup"), domain.ErrorKindConflict, ""},
		{"conflict message", errors.New("write conflict detected"), domain.ErrorKindConflict, ""},

		// Server
		{"http 500", &remote.StatusError{StatusCode: 500, Message: "boom"}, domain.ErrorKindServer, ""},
		{"http 503 with timeout text", &remote.StatusError{StatusCode: 503, Message: "upstream timeout"}, domain.ErrorKindServer, ""},
		{"grpc internal", status.Error(codes.Internal, "boom"), domain.ErrorKindServer, ""},
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "quota"), domain.ErrorKindServer, ""},

		// Validation
		{"http 422 with field", &remote.StatusError{StatusCode: 422, Message: "bad", Field: "title"}, domain.ErrorKindValidation, "title"},
		{"http 400", &remote.StatusError{StatusCode: 400, Message: "bad"}, domain.ErrorKindValidation, ""},
		{"grpc bad request", badRequest("description"), domain.ErrorKindValidation, "description"},
		{"local validation", &ValidationError{Field: "name", Message: "is required"}, domain.ErrorKindValidation, "name"},

		// Unknown
		{"http 404", &remote.StatusError{StatusCode: 404, Message: "missing"}, domain.ErrorKindUnknown, ""},
		{"grpc not found", status.Error(codes.NotFound, "missing"), domain.ErrorKindUnknown, ""},
		{"plain error", errors.New("something odd happened"), domain.ErrorKindUnknown, ""},
		{"word containing eof", errors.New("the name thereof is taken"), domain.ErrorKindUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got == nil {
				t.Fatal("expected classification, got nil")
			}
			if got.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, got.Kind)
			}
			if got.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, got.Field)
			}
			if got.Recoverable != Recoverable(tt.wantKind) {
				t.Errorf("expected recoverable=%v, got %v", Recoverable(tt.wantKind), got.Recoverable)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error should unwrap to the cause")
			}
		})
	}
}

func TestClassify_Recoverability(t *testing.T) {
	want := map[domain.ErrorKind]bool{
		domain.ErrorKindNetwork:    true,
		domain.ErrorKindPermission: false,
		domain.ErrorKindConflict:   true,
		domain.ErrorKindServer:     true,
		domain.ErrorKindValidation: false,
		domain.ErrorKindUnknown:    true,
	}
	for kind, rec := range want {
		if Recoverable(kind) != rec {
			t.Errorf("%s: expected recoverable=%v", kind, rec)
		}
	}
}

func TestClassify_Nil(t *testing.T) {
	if got := Classify(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestClassify_AlreadyClassified(t *testing.T) {
	ce := &domain.ClassifiedError{Kind: domain.ErrorKindConflict, Message: "x", Recoverable: true}
	if got := Classify(fmt.Errorf("wrapped: %w", ce)); got != ce {
		t.Errorf("expected the same classified error back, got %v", got)
	}
}

func TestClassify_FieldHint(t *testing.T) {
	err := &remote.StatusError{StatusCode: 422, Message: "rejected"}
	if got := Classify(err, Context{Field: "instructions"}); got.Field != "instructions" {
		t.Errorf("expected hinted field, got %q", got.Field)
	}

	// Hints never override what the error itself reports.
	err.Field = "title"
	if got := Classify(err, Context{Field: "instructions"}); got.Field != "title" {
		t.Errorf("expected field from error, got %q", got.Field)
	}

	// Hints only apply to validation.
	if got := Classify(errors.New("boom"), Context{Field: "name"}); got.Field != "" {
		t.Errorf("unexpected field on unknown error: %q", got.Field)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	inputs := []error{
		remote.ErrOffline,
		&remote.StatusError{StatusCode: 500},
		status.Error(codes.Aborted, "x"),
		errors.New("???"),
	}
	for _, err := range inputs {
		first := Classify(err).Kind
		for i := 0; i < 100; i++ {
			if k := Classify(err).Kind; k != first {
				t.Fatalf("%v: classification changed from %s to %s", err, first, k)
			}
		}
	}
}

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name      string
		payload   domain.AssistantPayload
		wantField string
	}{
		{"valid", domain.AssistantPayload{Name: "ok", Title: strings.Repeat("a", 100)}, ""},
		{"missing name", domain.AssistantPayload{Name: "  "}, "name"},
		{"title too long", domain.AssistantPayload{Name: "ok", Title: strings.Repeat("a", 101)}, "title"},
		{"multibyte title at limit", domain.AssistantPayload{Name: "ok", Title: strings.Repeat("é", 100)}, ""},
		{"description too long", domain.AssistantPayload{Name: "ok", Description: strings.Repeat("d", 501)}, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayload(tt.payload)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid payload, got %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, ve.Field)
			}
		})
	}
}

func TestValidatePayload_OverLengthTitleIsNotRecoverable(t *testing.T) {
	err := ValidatePayload(domain.AssistantPayload{Name: "Helper", Title: strings.Repeat("t", 150)})

	ce := Classify(err)
	if ce.Kind != domain.ErrorKindValidation {
		t.Fatalf("expected validation, got %s", ce.Kind)
	}
	if ce.Recoverable {
		t.Error("validation must not be recoverable")
	}
	if ce.Field != "title" {
		t.Errorf("expected field title, got %q", ce.Field)
	}
}
