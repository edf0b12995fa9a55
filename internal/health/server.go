package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/draftsync/internal/core/domain"
	"github.com/vietddude/draftsync/internal/syncer"
)

// Server provides the admin HTTP endpoints.
type Server struct {
	monitor *Monitor
	queue   QueueReader
	drafts  DraftReader
	syncer  Syncer
	server  *http.Server
	log     *slog.Logger
}

// QueueEntry is a pending write as shown by GET /queue.
type QueueEntry struct {
	domain.PendingWrite
	Exhausted bool `json:"exhausted"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Sync   syncer.Status `json:"sync"`
	Health Report        `json:"health"`
}

// DraftResponse is the body of GET /draft.
type DraftResponse struct {
	Payload domain.AssistantPayload `json:"payload"`
	SavedAt time.Time               `json:"saved_at"`
}

// SyncResponse is the body of POST /sync.
type SyncResponse struct {
	Results []domain.SyncResult `json:"results"`
}

// NewServer creates the admin server listening on port.
func NewServer(monitor *Monitor, queue QueueReader, drafts DraftReader, s Syncer, port int) *Server {
	srv := &Server{
		monitor: monitor,
		queue:   queue,
		drafts:  drafts,
		syncer:  s,
		log:     slog.Default().With("component", "admin"),
	}
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv
}

// Routes returns the router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/queue", s.handleQueue)
	r.Get("/draft", s.handleDraft)
	r.Post("/sync", s.handleSync)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server. It blocks until Stop is called.
func (s *Server) Start() error {
	s.log.Info("Admin server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve admin http: %w", err)
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())
	status := http.StatusOK
	if report.Status == StatusCritical {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"status": string(report.Status)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Sync:   s.syncer.Status(),
		Health: s.monitor.CheckHealth(r.Context()),
	})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	entries, err := s.queue.List(r.Context())
	if err != nil {
		s.log.Error("Failed to list queue", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]QueueEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, QueueEntry{PendingWrite: e, Exhausted: s.queue.IsExhausted(e)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	payload := s.drafts.LoadDraft(r.Context())
	if payload == nil {
		writeError(w, http.StatusNotFound, errors.New("no draft"))
		return
	}
	savedAt, _ := s.drafts.DraftTimestamp(r.Context())
	writeJSON(w, http.StatusOK, DraftResponse{Payload: *payload, SavedAt: savedAt})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	results, ran := s.syncer.TriggerSync(r.Context())
	if !ran {
		writeError(w, http.StatusConflict, errors.New("sync already in progress"))
		return
	}
	writeJSON(w, http.StatusOK, SyncResponse{Results: results})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
