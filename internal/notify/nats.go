// Package notify publishes sync cycle results to NATS for passive observers.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vietddude/draftsync/internal/core/domain"
)

// DefaultSubject is where cycle results are published.
const DefaultSubject = "draftsync.sync.results"

// Publisher is the part of *nats.Conn the listener needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Config configures the NATS connection.
type Config struct {
	URL            string
	Subject        string
	ConnectTimeout time.Duration
}

// CycleReport is the message body published once per drain cycle.
type CycleReport struct {
	Results     []domain.SyncResult `json:"results"`
	Synced      int                 `json:"synced"`
	Failed      int                 `json:"failed"`
	Exhausted   int                 `json:"exhausted"`
	PublishedAt time.Time           `json:"published_at"`
}

// NATSListener turns cycle results into NATS messages.
type NATSListener struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
	now     func() time.Time
	log     *slog.Logger
}

// NewNATSListener connects to NATS and returns a listener publishing on cfg.Subject.
func NewNATSListener(cfg Config) (*NATSListener, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("draftsync"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	l := NewListener(conn, cfg.Subject)
	l.conn = conn
	return l, nil
}

// NewListener publishes through pub. An empty subject uses DefaultSubject.
func NewListener(pub Publisher, subject string) *NATSListener {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSListener{
		pub:     pub,
		subject: subject,
		now:     time.Now,
		log:     slog.Default().With("component", "notify"),
	}
}

// OnResults publishes one report. It matches syncer.Listener; publish
// failures are logged because observers must never affect the drain.
func (l *NATSListener) OnResults(results []domain.SyncResult) {
	report := CycleReport{
		Results:     results,
		PublishedAt: l.now().UTC(),
	}
	if report.Results == nil {
		report.Results = []domain.SyncResult{}
	}
	for _, r := range results {
		switch r.Status {
		case domain.SyncStatusSynced:
			report.Synced++
		case domain.SyncStatusFailed:
			report.Failed++
		case domain.SyncStatusExhausted:
			report.Exhausted++
		}
	}

	data, err := json.Marshal(report)
	if err != nil {
		l.log.Warn("Failed to encode sync report", "error", err)
		return
	}
	if err := l.pub.Publish(l.subject, data); err != nil {
		l.log.Warn("Failed to publish sync report", "subject", l.subject, "error", err)
		return
	}
	l.log.Debug("Sync report published", "subject", l.subject, "results", len(results))
}

// Close drains and closes the connection, if the listener owns one.
func (l *NATSListener) Close() error {
	if l.conn == nil {
		return nil
	}
	if err := l.conn.Drain(); err != nil {
		l.conn.Close()
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}
	return nil
}
