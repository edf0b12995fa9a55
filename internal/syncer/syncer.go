// Package syncer drains the pending-write queue in the background.
//
// The orchestrator has two states, idle and syncing. A cycle starts on the
// periodic ticker, on an offline to online transition, or on TriggerSync.
// A trigger that arrives while a cycle runs is dropped; the next tick picks
// up whatever is left. Entries are sent one at a time in queue order.
package syncer

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/vietddude/draftsync/internal/classify"
	"github.com/vietddude/draftsync/internal/core/domain"
	"github.com/vietddude/draftsync/internal/metrics"
	"github.com/vietddude/draftsync/internal/netstatus"
	"github.com/vietddude/draftsync/internal/remote"
)

const (
	DefaultInterval       = 30 * time.Second
	DefaultInterItemDelay = time.Second

	tracerName = "github.com/vietddude/draftsync/internal/syncer"
)

// Queue is the part of queue.Queue the orchestrator drives.
type Queue interface {
	List(ctx context.Context) ([]domain.PendingWrite, error)
	Remove(ctx context.Context, tempID string) error
	UpdateRetry(ctx context.Context, tempID, errMsg string) (*domain.PendingWrite, error)
	IsExhausted(e domain.PendingWrite) bool
}

// Config tunes the orchestrator.
type Config struct {
	Interval       time.Duration
	InterItemDelay time.Duration
}

// Listener receives the results of every completed cycle.
type Listener func(results []domain.SyncResult)

// ListenerID identifies a registered listener.
type ListenerID uint64

// Status is a snapshot of the orchestrator.
type Status struct {
	IsOnline  bool `json:"is_online"`
	IsSyncing bool `json:"is_syncing"`
	IsRunning bool `json:"is_running"`
}

// Orchestrator is the background sync state machine.
type Orchestrator struct {
	queue   Queue
	service remote.AssistantService
	monitor netstatus.Monitor
	clock   clock.WithTicker
	cfg     Config
	tracer  trace.Tracer
	log     *slog.Logger

	syncing atomic.Bool

	// unremoved holds tempIDs created remotely whose queue removal failed.
	// Only the running cycle touches it.
	unremoved map[string]string

	mu          sync.Mutex
	listeners   map[ListenerID]Listener
	nextID      ListenerID
	running     bool
	cancel      context.CancelFunc
	unsubscribe func()
	loopDone    chan struct{}
}

// New creates an orchestrator. A nil clk uses the wall clock.
func New(
	q Queue,
	service remote.AssistantService,
	monitor netstatus.Monitor,
	clk clock.WithTicker,
	cfg Config,
) *Orchestrator {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.InterItemDelay < 0 {
		cfg.InterItemDelay = 0
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Orchestrator{
		queue:     q,
		service:   service,
		monitor:   monitor,
		clock:     clk,
		cfg:       cfg,
		tracer:    otel.Tracer(tracerName),
		log:       slog.Default().With("component", "syncer"),
		listeners: make(map[ListenerID]Listener),
		unremoved: make(map[string]string),
	}
}

// AddListener registers fn for cycle results.
func (o *Orchestrator) AddListener(fn Listener) ListenerID {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	o.listeners[o.nextID] = fn
	return o.nextID
}

// RemoveListener unregisters a listener. Unknown ids are ignored.
func (o *Orchestrator) RemoveListener(id ListenerID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.listeners, id)
}

// Status returns the current state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	running := o.running
	o.mu.Unlock()
	return Status{
		IsOnline:  o.monitor.IsOnline(),
		IsSyncing: o.syncing.Load(),
		IsRunning: running,
	}
}

// Start launches the ticker and the connectivity subscription, and runs a
// first cycle right away. Calling Start twice is a no-op.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.running = true
	o.loopDone = make(chan struct{})

	o.unsubscribe = o.monitor.OnChange(func(online bool) {
		if !online {
			return
		}
		o.log.Info("Connectivity restored, triggering sync")
		go o.background(runCtx, "reconnect")
	})

	ticker := o.clock.NewTicker(o.cfg.Interval)
	go func() {
		defer close(o.loopDone)
		defer ticker.Stop()

		go o.background(runCtx, "start")
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C():
				go o.background(runCtx, "tick")
			}
		}
	}()

	o.log.Info("Sync orchestrator started", "interval", o.cfg.Interval)
}

// Stop cancels the ticker and the connectivity subscription. It does not wait
// for a cycle that is already running; that cycle is left to finish.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	o.cancel()
	o.unsubscribe()
	done := o.loopDone
	o.mu.Unlock()

	<-done
	o.log.Info("Sync orchestrator stopped")
}

// TriggerSync runs one drain cycle now. It returns (nil, false) without doing
// anything when a cycle is already in progress.
func (o *Orchestrator) TriggerSync(ctx context.Context) ([]domain.SyncResult, bool) {
	if !o.syncing.CompareAndSwap(false, true) {
		o.log.Debug("Sync already in progress, trigger dropped")
		return nil, false
	}
	defer o.syncing.Store(false)

	results := o.drain(ctx)
	o.notify(results)
	return results, true
}

// background runs a cycle for an internal trigger. Stopping the orchestrator
// does not abort a cycle that has begun.
func (o *Orchestrator) background(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	if _, ran := o.TriggerSync(context.WithoutCancel(ctx)); ran {
		o.log.Debug("Sync cycle finished", "trigger", trigger)
	}
}

func (o *Orchestrator) drain(ctx context.Context) []domain.SyncResult {
	ctx, span := o.tracer.Start(ctx, "syncer.drain")
	defer span.End()

	start := o.clock.Now()
	defer func() {
		metrics.SyncCycles.Inc()
		metrics.SyncCycleDuration.Observe(o.clock.Since(start).Seconds())
	}()

	results := []domain.SyncResult{}

	if !o.monitor.IsOnline() {
		span.SetAttributes(attribute.Bool("draftsync.online", false))
		o.log.Debug("Offline, skipping sync cycle")
		return results
	}

	entries, err := o.queue.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "list pending writes")
		o.log.Error("Failed to list pending writes", "error", err)
		return results
	}
	span.SetAttributes(attribute.Int("draftsync.queue.size", len(entries)))

	synced := o.retryRemovals(ctx)

	sent := 0
	for _, e := range entries {
		if _, ok := synced[e.TempID]; ok {
			continue
		}
		if o.queue.IsExhausted(e) {
			results = append(results, domain.SyncResult{
				TempID:     e.TempID,
				Status:     domain.SyncStatusExhausted,
				RetryCount: e.RetryCount,
			})
			metrics.SyncResults.WithLabelValues(string(domain.SyncStatusExhausted)).Inc()
			continue
		}

		if sent > 0 && !o.pause(ctx) {
			o.log.Warn("Sync cycle interrupted", "error", ctx.Err())
			break
		}
		sent++

		res := o.send(ctx, e)
		metrics.SyncResults.WithLabelValues(string(res.Status)).Inc()
		results = append(results, res)
	}

	o.log.Info("Sync cycle complete", "entries", len(entries), "results", len(results))
	return results
}

func (o *Orchestrator) send(ctx context.Context, e domain.PendingWrite) domain.SyncResult {
	ctx, span := o.tracer.Start(ctx, "syncer.create",
		trace.WithAttributes(
			attribute.String("draftsync.temp_id", e.TempID),
			attribute.Int("draftsync.retry_count", e.RetryCount),
		),
	)
	defer span.End()

	rec, err := o.service.CreateAssistant(remote.WithIdempotencyKey(ctx, e.TempID), e.Payload)
	if err == nil {
		if rmErr := o.queue.Remove(ctx, e.TempID); rmErr != nil {
			o.unremoved[e.TempID] = rec.ID
			o.log.Error("Failed to remove synced entry", "temp_id", e.TempID, "error", rmErr)
		}
		o.log.Info("Pending write synced", "temp_id", e.TempID, "server_id", rec.ID)
		return domain.SyncResult{
			TempID:     e.TempID,
			Status:     domain.SyncStatusSynced,
			ServerID:   rec.ID,
			RetryCount: e.RetryCount,
		}
	}

	ce := classify.Classify(err)
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, string(ce.Kind))

	retries := e.RetryCount
	updated, uerr := o.queue.UpdateRetry(ctx, e.TempID, ce.Message)
	if uerr != nil {
		o.log.Error("Failed to record retry", "temp_id", e.TempID, "error", uerr)
	} else {
		retries = updated.RetryCount
	}

	o.log.Warn("Pending write failed",
		"temp_id", e.TempID,
		"kind", ce.Kind,
		"retries", retries,
		"error", ce.Message,
	)
	return domain.SyncResult{
		TempID:     e.TempID,
		Status:     domain.SyncStatusFailed,
		Error:      ce,
		RetryCount: retries,
	}
}

// retryRemovals removes entries left behind by an earlier failed Remove. It
// returns every tempID that was already synced so the cycle skips them, even
// those still in the queue.
func (o *Orchestrator) retryRemovals(ctx context.Context) map[string]string {
	if len(o.unremoved) == 0 {
		return nil
	}
	synced := maps.Clone(o.unremoved)
	for tempID, serverID := range synced {
		if err := o.queue.Remove(ctx, tempID); err != nil {
			o.log.Error("Failed to remove synced entry", "temp_id", tempID, "error", err)
			continue
		}
		delete(o.unremoved, tempID)
		o.log.Info("Removed previously synced entry", "temp_id", tempID, "server_id", serverID)
	}
	return synced
}

// pause waits the inter-item delay. It returns false if ctx ends first.
func (o *Orchestrator) pause(ctx context.Context) bool {
	if o.cfg.InterItemDelay <= 0 {
		return ctx.Err() == nil
	}
	t := o.clock.NewTimer(o.cfg.InterItemDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C():
		return true
	}
}

func (o *Orchestrator) notify(results []domain.SyncResult) {
	o.mu.Lock()
	fns := make([]Listener, 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(results)
	}
}
