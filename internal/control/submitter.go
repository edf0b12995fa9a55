package control

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vietddude/draftsync/internal/classify"
	"github.com/vietddude/draftsync/internal/core/domain"
	"github.com/vietddude/draftsync/internal/queue"
	"github.com/vietddude/draftsync/internal/recovery"
	"github.com/vietddude/draftsync/internal/remote"
)

// Enqueuer is the write side of queue.Queue used on fallback.
type Enqueuer interface {
	Enqueue(ctx context.Context, tempID string, payload domain.AssistantPayload) error
}

// Executor runs a create with retries and the draft fallback.
type Executor interface {
	ExecuteWithRecovery(
		ctx context.Context,
		op recovery.Operation,
		payload domain.AssistantPayload,
		opts recovery.Options,
	) (*domain.AssistantRecord, error)
}

// Submission is the outcome of one Submit call.
type Submission struct {
	Record *domain.AssistantRecord `json:"record,omitempty"`
	TempID string                  `json:"temp_id"`
	Queued bool                    `json:"queued"`
	Error  *domain.ClassifiedError `json:"error,omitempty"`

	// Message is the user-facing text for Error.
	Message string `json:"message,omitempty"`
}

// Submitter is the synchronous create path.
type Submitter struct {
	service  remote.AssistantService
	executor Executor
	queue    Enqueuer
	newID    func() string
	log      *slog.Logger
}

// NewSubmitter creates a submitter.
func NewSubmitter(service remote.AssistantService, executor Executor, q Enqueuer) *Submitter {
	return &Submitter{
		service:  service,
		executor: executor,
		queue:    q,
		newID:    queue.NewTempID,
		log:      slog.Default().With("component", "submitter"),
	}
}

// Submit validates payload locally and then creates it remotely with
// recovery. The tempId doubles as the idempotency key, so a create that
// reached the server but lost its response is not duplicated when the queued
// copy is replayed. A recoverable failure leaves the payload both in the
// draft slot and in the pending queue; the returned error is then the
// *domain.ClassifiedError and Submission.Queued is true.
func (s *Submitter) Submit(ctx context.Context, payload domain.AssistantPayload) (*Submission, error) {
	tempID := s.newID()
	sub := &Submission{TempID: tempID}

	if err := classify.ValidatePayload(payload); err != nil {
		ce := classify.Classify(err)
		sub.Error = ce
		sub.Message = recovery.FormatMessage(ce)
		s.log.Info("Submission rejected", "field", ce.Field, "error", ce.Message)
		return sub, ce
	}

	op := func(ctx context.Context) (*domain.AssistantRecord, error) {
		return s.service.CreateAssistant(remote.WithIdempotencyKey(ctx, tempID), payload)
	}
	rec, err := s.executor.ExecuteWithRecovery(ctx, op, payload, recovery.Options{})
	if err == nil {
		sub.Record = rec
		s.log.Info("Assistant created", "id", rec.ID, "temp_id", tempID)
		return sub, nil
	}

	var ce *domain.ClassifiedError
	if !errors.As(err, &ce) {
		ce = classify.Classify(err)
	}
	sub.Error = ce
	sub.Message = recovery.FormatMessage(ce)

	if !ce.Recoverable {
		return sub, ce
	}

	// Background sync must not inherit a cancelled request.
	if qerr := s.queue.Enqueue(context.WithoutCancel(ctx), tempID, payload); qerr != nil {
		s.log.Error("Failed to enqueue pending write", "temp_id", tempID, "error", qerr)
		return sub, ce
	}
	sub.Queued = true
	s.log.Info("Submission queued for background sync", "temp_id", tempID, "kind", ce.Kind)
	return sub, ce
}
