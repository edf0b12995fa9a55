// Package recovery wraps the synchronous create call with classification,
// bounded exponential backoff and the draft fallback.
package recovery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/vietddude/draftsync/internal/classify"
	"github.com/vietddude/draftsync/internal/core/domain"
	"github.com/vietddude/draftsync/internal/metrics"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 60 * time.Second
)

// Operation is a single create attempt.
type Operation func(ctx context.Context) (*domain.AssistantRecord, error)

// DraftSaver is the part of the draft store the orchestrator needs.
type DraftSaver interface {
	SaveDraft(ctx context.Context, payload domain.AssistantPayload)
	ClearDraft(ctx context.Context)
}

// Options bound one ExecuteWithRecovery call. Zero values use the defaults;
// a negative BaseDelay retries without waiting.
type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// Field hints which input a validation failure without a field refers to.
	Field string
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.BaseDelay < 0 {
		o.BaseDelay = 0
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	return o
}

// Orchestrator runs create attempts with recovery.
type Orchestrator struct {
	drafts   DraftSaver
	clock    clock.Clock
	defaults Options
	log      *slog.Logger
}

// New creates an orchestrator. defaults fill the zero fields of per-call Options.
func New(drafts DraftSaver, clk clock.Clock, defaults Options) *Orchestrator {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if defaults.BaseDelay == 0 {
		defaults.BaseDelay = DefaultBaseDelay
	}
	return &Orchestrator{
		drafts:   drafts,
		clock:    clk,
		defaults: defaults.withDefaults(),
		log:      slog.Default().With("component", "recovery"),
	}
}

// ExecuteWithRecovery runs op until it succeeds, fails non-recoverably, or
// runs out of attempts. Every terminal failure except validation saves
// payload as a draft before the *domain.ClassifiedError is returned. A
// success clears the draft.
func (o *Orchestrator) ExecuteWithRecovery(
	ctx context.Context,
	op Operation,
	payload domain.AssistantPayload,
	opts Options,
) (*domain.AssistantRecord, error) {
	opts = o.merge(opts)
	strategy := &ExponentialBackoff{
		BaseDelay:   opts.BaseDelay,
		MaxDelay:    opts.MaxDelay,
		MaxAttempts: opts.MaxRetries,
	}

	for attempt := 0; ; attempt++ {
		rec, err := op(ctx)
		if err == nil {
			o.drafts.ClearDraft(ctx)
			return rec, nil
		}

		ce := classify.Classify(err, classify.Context{Field: opts.Field})
		metrics.RecoveryAttempts.WithLabelValues(string(ce.Kind)).Inc()

		if !strategy.ShouldRetry(ce, attempt) {
			return nil, o.fail(ctx, ce, payload, attempt+1)
		}

		delay := strategy.GetDelay(attempt)
		o.log.Debug("Create attempt failed, retrying",
			"attempt", attempt+1,
			"kind", ce.Kind,
			"delay", delay,
			"error", ce.Message,
		)
		if err := o.wait(ctx, delay); err != nil {
			// Keep the last attempt's kind; the cancellation rides along as a cause.
			cancelled := *ce
			cancelled.Cause = errors.Join(ce.Cause, err)
			return nil, o.fail(ctx, &cancelled, payload, attempt+1)
		}
	}
}

func (o *Orchestrator) fail(
	ctx context.Context,
	ce *domain.ClassifiedError,
	payload domain.AssistantPayload,
	attempts int,
) *domain.ClassifiedError {
	if ce.Kind != domain.ErrorKindValidation {
		// The caller's ctx may already be done; the draft must still land.
		o.drafts.SaveDraft(context.WithoutCancel(ctx), payload)
	}
	o.log.Warn("Create failed",
		"kind", ce.Kind,
		"recoverable", ce.Recoverable,
		"attempts", attempts,
		"field", ce.Field,
		"error", ce.Message,
	)
	return ce
}

func (o *Orchestrator) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := o.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}

func (o *Orchestrator) merge(opts Options) Options {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = o.defaults.MaxRetries
	}
	if opts.BaseDelay == 0 {
		opts.BaseDelay = o.defaults.BaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = o.defaults.MaxDelay
	}
	return opts.withDefaults()
}
