package control

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/vietddude/draftsync/internal/core/domain"
	"github.com/vietddude/draftsync/internal/draft"
	"github.com/vietddude/draftsync/internal/infra/storage"
	"github.com/vietddude/draftsync/internal/infra/storage/memory"
	"github.com/vietddude/draftsync/internal/queue"
	"github.com/vietddude/draftsync/internal/recovery"
	"github.com/vietddude/draftsync/internal/remote"
)

// =============================================================================
// Mocks
// =============================================================================

type mockService struct {
	mu    sync.Mutex
	calls int
	keys  []string
	err   error
}

func (m *mockService) CreateAssistant(ctx context.Context, p domain.AssistantPayload) (*domain.AssistantRecord, error) {
	key, _ := remote.IdempotencyKey(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.keys = append(m.keys, key)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.AssistantRecord{ID: "srv-1", Name: p.Name}, nil
}

type failingEnqueuer struct{}

func (failingEnqueuer) Enqueue(ctx context.Context, tempID string, p domain.AssistantPayload) error {
	return storage.Wrap("set entries", errors.New("quota exceeded"))
}

type submitFixture struct {
	service   *mockService
	drafts    *draft.Store
	queue     *queue.Queue
	submitter *Submitter
}

func newSubmitFixture() *submitFixture {
	backend := memory.NewMemoryStorage()
	f := &submitFixture{
		service: &mockService{},
		drafts:  draft.NewStore(backend.Namespace(storage.NamespaceDraft), 0, nil),
		queue:   queue.New(backend.Namespace(storage.NamespacePendingQueue), 5, nil),
	}
	exec := recovery.New(f.drafts, nil, recovery.Options{BaseDelay: -1})
	f.submitter = NewSubmitter(f.service, exec, f.queue)
	f.submitter.newID = func() string { return "tmp-fixed" }
	return f
}

func (f *submitFixture) queued(t *testing.T) []domain.PendingWrite {
	t.Helper()
	entries, err := f.queue.List(context.Background())
	if err != nil {
		t.Fatalf("list queue: %v", err)
	}
	return entries
}

// =============================================================================
// Tests
// =============================================================================

func TestSubmit_Success(t *testing.T) {
	f := newSubmitFixture()
	ctx := context.Background()

	sub, err := f.submitter.Submit(ctx, domain.AssistantPayload{Name: "Helper"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Record == nil || sub.Record.ID != "srv-1" {
		t.Fatalf("expected record srv-1, got %+v", sub.Record)
	}
	if sub.Queued {
		t.Error("success must not enqueue")
	}
	if f.service.keys[0] != "tmp-fixed" {
		t.Errorf("expected idempotency key tmp-fixed, got %q", f.service.keys[0])
	}
	if f.drafts.HasDraft(ctx) {
		t.Error("success must leave no draft")
	}
	if n := len(f.queued(t)); n != 0 {
		t.Errorf("expected empty queue, got %d", n)
	}
}

// Over-length title: rejected before any remote call, no draft, no enqueue.
func TestSubmit_ValidationRejectedLocally(t *testing.T) {
	f := newSubmitFixture()
	ctx := context.Background()

	sub, err := f.submitter.Submit(ctx, domain.AssistantPayload{
		Name:  "Helper",
		Title: strings.Repeat("x", 101),
	})

	var ce *domain.ClassifiedError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ClassifiedError, got %v", err)
	}
	if ce.Kind != domain.ErrorKindValidation || ce.Recoverable || ce.Field != "title" {
		t.Errorf("expected non-recoverable validation on title, got %+v", ce)
	}
	if f.service.calls != 0 {
		t.Errorf("expected no remote call, got %d", f.service.calls)
	}
	if sub.Queued || len(f.queued(t)) != 0 {
		t.Error("validation failure must not enqueue")
	}
	if f.drafts.HasDraft(ctx) {
		t.Error("validation failure must not save a draft")
	}
	if !strings.Contains(sub.Message, "title") {
		t.Errorf("message should name the field, got %q", sub.Message)
	}
}

func TestSubmit_RemoteValidationNotQueued(t *testing.T) {
	f := newSubmitFixture()
	f.service.err = &remote.StatusError{StatusCode: http.StatusUnprocessableEntity, Message: "name taken", Field: "name"}

	sub, err := f.submitter.Submit(context.Background(), domain.AssistantPayload{Name: "Helper"})
	if err == nil {
		t.Fatal("expected error")
	}
	if f.service.calls != 1 {
		t.Errorf("validation must not be retried, got %d calls", f.service.calls)
	}
	if sub.Queued || sub.Error.Field != "name" {
		t.Errorf("unexpected submission: %+v", sub)
	}
}

func TestSubmit_NetworkFailureQueuesAndSavesDraft(t *testing.T) {
	f := newSubmitFixture()
	f.service.err = remote.ErrOffline
	ctx := context.Background()
	payload := domain.AssistantPayload{Name: "Helper", Title: "Support"}

	sub, err := f.submitter.Submit(ctx, payload)

	var ce *domain.ClassifiedError
	if !errors.As(err, &ce) || ce.Kind != domain.ErrorKindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
	if f.service.calls != recovery.DefaultMaxRetries {
		t.Errorf("expected %d attempts, got %d", recovery.DefaultMaxRetries, f.service.calls)
	}
	if !sub.Queued || sub.TempID != "tmp-fixed" {
		t.Errorf("expected queued under tmp-fixed, got %+v", sub)
	}
	if !strings.Contains(sub.Message, "draft has been saved") {
		t.Errorf("unexpected message %q", sub.Message)
	}

	entries := f.queued(t)
	if len(entries) != 1 || entries[0].TempID != "tmp-fixed" || entries[0].RetryCount != 0 {
		t.Fatalf("unexpected queue: %+v", entries)
	}
	if got := f.drafts.LoadDraft(ctx); got == nil || got.Title != "Support" {
		t.Errorf("expected draft with the payload, got %+v", got)
	}
}

func TestSubmit_PermissionSavesDraftButNotQueued(t *testing.T) {
	f := newSubmitFixture()
	f.service.err = &remote.StatusError{StatusCode: http.StatusForbidden, Message: "forbidden"}
	ctx := context.Background()

	sub, err := f.submitter.Submit(ctx, domain.AssistantPayload{Name: "Helper"})
	if err == nil {
		t.Fatal("expected error")
	}
	if sub.Error.Kind != domain.ErrorKindPermission {
		t.Errorf("expected permission, got %s", sub.Error.Kind)
	}
	if sub.Queued || len(f.queued(t)) != 0 {
		t.Error("permission failure must not enqueue")
	}
	if !f.drafts.HasDraft(ctx) {
		t.Error("permission failure should keep a draft")
	}
}

func TestSubmit_EnqueueFailureStillReturnsClassifiedError(t *testing.T) {
	f := newSubmitFixture()
	f.service.err = remote.ErrOffline
	f.submitter.queue = failingEnqueuer{}

	sub, err := f.submitter.Submit(context.Background(), domain.AssistantPayload{Name: "Helper"})

	var ce *domain.ClassifiedError
	if !errors.As(err, &ce) || ce.Kind != domain.ErrorKindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
	if sub.Queued {
		t.Error("Queued must be false when the enqueue failed")
	}
}
