package netstatus

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"k8s.io/utils/clock"
)

const (
	DefaultProbeInterval = 10 * time.Second
	DefaultProbeTimeout  = 3 * time.Second
)

// Prober polls a URL and treats any response below 500 as online.
type Prober struct {
	url      string
	interval time.Duration
	client   *http.Client
	clock    clock.WithTicker
	st       *state
	log      *slog.Logger
}

// NewProber creates a prober. It starts optimistic (online) until the first probe.
func NewProber(url string, interval, timeout time.Duration, clk clock.WithTicker) *Prober {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Prober{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
		clock:    clk,
		st:       newState(true),
		log:      slog.Default().With("component", "netstatus"),
	}
}

func (p *Prober) IsOnline() bool { return p.st.get() }

func (p *Prober) OnChange(fn func(bool)) func() { return p.st.subscribe(fn) }

// Run probes immediately and then every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) error {
	p.log.Info("Starting network prober", "url", p.url, "interval", p.interval)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("Network prober stopped")
			return nil
		case <-ticker.C():
			p.Check(ctx)
		}
	}
}

// Check probes once, updates the state and returns it.
func (p *Prober) Check(ctx context.Context) bool {
	online := p.probe(ctx)
	if ctx.Err() != nil {
		// Shutdown is not an outage.
		return p.st.get()
	}
	if p.st.set(online) {
		p.log.Info("Connectivity changed", "online", online)
	}
	return online
}

func (p *Prober) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.log.Warn("Invalid probe url", "url", p.url, "error", err)
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug("Probe failed", "error", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}
