package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/draftsync/internal/core/domain"
	"github.com/vietddude/draftsync/internal/netstatus"
	"github.com/vietddude/draftsync/internal/syncer"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeQueue struct {
	entries []domain.PendingWrite
	err     error
}

func (f *fakeQueue) List(ctx context.Context) ([]domain.PendingWrite, error) {
	return f.entries, f.err
}

func (f *fakeQueue) IsExhausted(e domain.PendingWrite) bool { return e.RetryCount >= 5 }

type fakeDrafts struct {
	payload *domain.AssistantPayload
	savedAt time.Time
}

func (f *fakeDrafts) LoadDraft(ctx context.Context) *domain.AssistantPayload { return f.payload }

func (f *fakeDrafts) DraftTimestamp(ctx context.Context) (time.Time, bool) {
	return f.savedAt, f.payload != nil
}

type fakeSyncer struct {
	busy    bool
	results []domain.SyncResult
	calls   int
}

func (f *fakeSyncer) Status() syncer.Status {
	return syncer.Status{IsOnline: true, IsSyncing: f.busy, IsRunning: true}
}

func (f *fakeSyncer) TriggerSync(ctx context.Context) ([]domain.SyncResult, bool) {
	f.calls++
	if f.busy {
		return nil, false
	}
	return f.results, true
}

type fakePinger struct{ err error }

func (f *fakePinger) Health(ctx context.Context) error { return f.err }

type fixture struct {
	queue  *fakeQueue
	drafts *fakeDrafts
	syncer *fakeSyncer
	net    *netstatus.Switch
	store  *fakePinger
	server *Server
}

func newFixture() *fixture {
	f := &fixture{
		queue:  &fakeQueue{},
		drafts: &fakeDrafts{},
		syncer: &fakeSyncer{},
		net:    netstatus.NewSwitch(true),
		store:  &fakePinger{},
	}
	monitor := NewMonitor(f.queue, f.net, f.store)
	f.server = NewServer(monitor, f.queue, f.drafts, f.syncer, 0)
	return f
}

func (f *fixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.Routes().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

// =============================================================================
// Monitor
// =============================================================================

func TestMonitor_Status(t *testing.T) {
	tests := []struct {
		name     string
		online   bool
		entries  []domain.PendingWrite
		storeErr error
		listErr  error
		want     SystemStatus
	}{
		{name: "healthy", online: true, want: StatusHealthy},
		{name: "pending but retrying", online: true, entries: []domain.PendingWrite{{TempID: "a", RetryCount: 2}}, want: StatusHealthy},
		{name: "offline", online: false, want: StatusDegraded},
		{name: "exhausted entry", online: true, entries: []domain.PendingWrite{{TempID: "a", RetryCount: 5}}, want: StatusDegraded},
		{name: "store down", online: true, storeErr: errors.New("ping failed"), want: StatusCritical},
		{name: "queue unreadable", online: true, listErr: errors.New("storage error"), want: StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueue{entries: tt.entries, err: tt.listErr}
			m := NewMonitor(q, netstatus.NewSwitch(tt.online), &fakePinger{err: tt.storeErr})
			report := m.CheckHealth(context.Background())
			if report.Status != tt.want {
				t.Errorf("expected %s, got %s (%+v)", tt.want, report.Status, report)
			}
		})
	}
}

func TestMonitor_NilStore(t *testing.T) {
	m := NewMonitor(&fakeQueue{}, netstatus.NewSwitch(true), nil)
	if got := m.CheckHealth(context.Background()); got.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", got.Status)
	}
}

// =============================================================================
// Routes
// =============================================================================

func TestServer_Health(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	f.store.err = errors.New("down")
	rec = f.do(t, http.MethodGet, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != string(StatusCritical) {
		t.Errorf("expected critical, got %s", body["status"])
	}
}

func TestServer_Status(t *testing.T) {
	f := newFixture()
	f.net.Set(false)

	rec := f.do(t, http.MethodGet, "/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Sync.IsRunning {
		t.Error("expected running")
	}
	if resp.Health.Online || resp.Health.Status != StatusDegraded {
		t.Errorf("expected offline degraded, got %+v", resp.Health)
	}
}

func TestServer_Queue(t *testing.T) {
	f := newFixture()
	f.queue.entries = []domain.PendingWrite{
		{TempID: "tmp-1", RetryCount: 1, Payload: domain.AssistantPayload{Name: "a"}},
		{TempID: "tmp-2", RetryCount: 5, LastError: "http 503", Payload: domain.AssistantPayload{Name: "b"}},
	}

	rec := f.do(t, http.MethodGet, "/queue")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out []QueueEntry
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out[0].TempID != "tmp-1" || out[0].Exhausted {
		t.Errorf("unexpected first entry: %+v", out[0])
	}
	if out[1].TempID != "tmp-2" || !out[1].Exhausted || out[1].LastError != "http 503" {
		t.Errorf("unexpected second entry: %+v", out[1])
	}
}

func TestServer_QueueError(t *testing.T) {
	f := newFixture()
	f.queue.err = errors.New("storage error")
	if rec := f.do(t, http.MethodGet, "/queue"); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestServer_Draft(t *testing.T) {
	f := newFixture()

	if rec := f.do(t, http.MethodGet, "/draft"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without draft, got %d", rec.Code)
	}

	saved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.drafts.payload = &domain.AssistantPayload{Name: "Helper", Title: "Support"}
	f.drafts.savedAt = saved

	rec := f.do(t, http.MethodGet, "/draft")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp DraftResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Payload.Name != "Helper" || !resp.SavedAt.Equal(saved) {
		t.Errorf("unexpected draft: %+v", resp)
	}
}

func TestServer_Sync(t *testing.T) {
	f := newFixture()
	f.syncer.results = []domain.SyncResult{{TempID: "tmp-1", Status: domain.SyncStatusSynced, ServerID: "srv-1"}}

	rec := f.do(t, http.MethodPost, "/sync")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp SyncResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ServerID != "srv-1" {
		t.Errorf("unexpected results: %+v", resp.Results)
	}

	f.syncer.busy = true
	if rec := f.do(t, http.MethodPost, "/sync"); rec.Code != http.StatusConflict {
		t.Errorf("expected 409 while busy, got %d", rec.Code)
	}

	if rec := f.do(t, http.MethodGet, "/sync"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET /sync, got %d", rec.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
