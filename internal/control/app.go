// Package control wires the subsystem together and owns the submission flow.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/vietddude/draftsync/internal/core/config"
	"github.com/vietddude/draftsync/internal/draft"
	"github.com/vietddude/draftsync/internal/health"
	redisclient "github.com/vietddude/draftsync/internal/infra/redis"
	"github.com/vietddude/draftsync/internal/infra/storage"
	"github.com/vietddude/draftsync/internal/infra/storage/memory"
	"github.com/vietddude/draftsync/internal/infra/storage/postgres"
	"github.com/vietddude/draftsync/internal/infra/storage/sqlite"
	"github.com/vietddude/draftsync/internal/netstatus"
	"github.com/vietddude/draftsync/internal/notify"
	"github.com/vietddude/draftsync/internal/preset"
	"github.com/vietddude/draftsync/internal/queue"
	"github.com/vietddude/draftsync/internal/recovery"
	"github.com/vietddude/draftsync/internal/remote"
	"github.com/vietddude/draftsync/internal/syncer"
)

const shutdownTimeout = 5 * time.Second

// Options override parts of the wiring.
type Options struct {
	// Monitor replaces the configured connectivity source.
	Monitor netstatus.Monitor

	// Clock drives every timer and TTL. Defaults to the wall clock.
	Clock clock.WithTicker
}

// App holds every component of a running draftsync instance.
type App struct {
	cfg *config.AppConfig

	backend storage.Backend
	db      *postgres.DB
	remote  remote.Client
	network netstatus.Monitor
	prober  *netstatus.Prober

	Drafts    *draft.Store
	Queue     *queue.Queue
	Presets   *preset.Loader
	Recovery  *recovery.Orchestrator
	Syncer    *syncer.Orchestrator
	Submitter *Submitter

	healthMon    *health.Monitor
	healthServer *health.Server
	notifier     *notify.NATSListener
	log          *slog.Logger
}

// NewApp builds the application from cfg. Nothing runs until Run.
func NewApp(ctx context.Context, cfg *config.AppConfig, opts Options) (*App, error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	a := &App{cfg: cfg, log: slog.Default().With("component", "app")}

	// 1. Storage
	if err := a.openStorage(ctx); err != nil {
		return nil, err
	}

	// 2. Connectivity
	switch {
	case opts.Monitor != nil:
		a.network = opts.Monitor
	case cfg.Network.ProbeURL != "":
		a.prober = netstatus.NewProber(
			cfg.Network.ProbeURL,
			cfg.Network.ProbeInterval,
			cfg.Network.ProbeTimeout,
			clk,
		)
		a.network = a.prober
	default:
		a.log.Info("No probe url configured, assuming online")
		a.network = netstatus.NewSwitch(true)
	}

	// 3. Remote service
	client, err := newRemote(cfg.Remote)
	if err != nil {
		_ = a.backend.Close()
		return nil, err
	}
	a.remote = remote.NewOfflineGuard(client, a.network.IsOnline)

	// 4. Local stores
	a.Drafts = draft.NewStore(a.backend.Namespace(storage.NamespaceDraft), cfg.Draft.TTL, clk)
	a.Queue = queue.New(a.backend.Namespace(storage.NamespacePendingQueue), cfg.Sync.MaxRetries, clk)
	presetCache := preset.NewCache(
		a.backend.Namespace(storage.NamespacePreset),
		cfg.Preset.TTL,
		clk,
		preset.WithCheckInterval(cfg.Preset.CheckInterval),
	)
	a.Presets = preset.NewLoader(presetCache, a.remote)

	// 5. Synchronous and background paths
	a.Recovery = recovery.New(a.Drafts, clk, recovery.Options{
		MaxRetries: cfg.Recovery.MaxRetries,
		BaseDelay:  cfg.Recovery.BaseDelay,
		MaxDelay:   cfg.Recovery.MaxDelay,
	})
	a.Submitter = NewSubmitter(a.remote, a.Recovery, a.Queue)
	a.Syncer = syncer.New(a.Queue, a.remote, a.network, clk, syncer.Config{
		Interval:       cfg.Sync.Interval,
		InterItemDelay: cfg.Sync.InterItemDelay,
	})

	// 6. Observers
	if cfg.NATS.URL != "" {
		n, err := notify.NewNATSListener(notify.Config{URL: cfg.NATS.URL, Subject: cfg.NATS.Subject})
		if err != nil {
			a.log.Warn("Failed to connect to NATS, sync results will not be published", "error", err)
		} else {
			a.notifier = n
			a.Syncer.AddListener(n.OnResults)
		}
	}

	var pinger health.Pinger
	if p, ok := a.backend.(health.Pinger); ok {
		pinger = p
	}
	a.healthMon = health.NewMonitor(a.Queue, a.network, pinger)
	a.healthServer = health.NewServer(a.healthMon, a.Queue, a.Drafts, a.Syncer, cfg.Server.Port)

	return a, nil
}

func (a *App) openStorage(ctx context.Context) error {
	switch driver := strings.ToLower(a.cfg.Storage.Driver); driver {
	case "memory":
		a.backend = memory.NewMemoryStorage()
	case "sqlite", "":
		b, err := sqlite.Open(a.cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open sqlite store: %w", err)
		}
		a.backend = b
	case "postgres":
		db, err := postgres.NewDB(ctx, a.cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		a.db = db
		a.backend = postgres.NewBackend(db)
	case "redis":
		c, err := redisclient.NewClient(a.cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to init redis: %w", err)
		}
		a.backend = c
	default:
		return fmt.Errorf("unsupported storage driver %q", driver)
	}
	a.log.Info("Storage ready", "driver", a.cfg.Storage.Driver)
	return nil
}

func newRemote(cfg config.RemoteConfig) (remote.Client, error) {
	switch strings.ToLower(cfg.Transport) {
	case "http", "":
		if cfg.BaseURL == "" {
			return nil, errors.New("remote.base_url is required for the http transport")
		}
		return remote.NewHTTPClient(cfg.BaseURL, cfg.Timeout), nil
	case "grpc":
		if cfg.GRPCTarget == "" {
			return nil, errors.New("remote.grpc_target is required for the grpc transport")
		}
		c, err := remote.NewGRPCClient(cfg.GRPCTarget, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create grpc client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported remote transport %q", cfg.Transport)
	}
}

// Network returns the connectivity source in use.
func (a *App) Network() netstatus.Monitor { return a.network }

// Health returns the current health report.
func (a *App) Health(ctx context.Context) health.Report { return a.healthMon.CheckHealth(ctx) }

// Probe refreshes connectivity once when a prober is configured. One-shot
// commands call it so they do not act on the optimistic initial state.
func (a *App) Probe(ctx context.Context) bool {
	if a.prober == nil {
		return a.network.IsOnline()
	}
	return a.prober.Check(ctx)
}

// Run starts the prober, the sync orchestrator and the admin server, and
// blocks until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if a.prober != nil {
		g.Go(func() error { return a.prober.Run(gctx) })
	}
	if a.db != nil {
		a.db.StartMetricsCollector(gctx)
	}

	g.Go(func() error {
		a.Syncer.Start(gctx)
		<-gctx.Done()
		a.Syncer.Stop()
		return nil
	})

	g.Go(a.healthServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.healthServer.Stop(shutdownCtx)
	})

	a.log.Info("draftsync running", "port", a.cfg.Server.Port, "storage", a.cfg.Storage.Driver)
	if err := g.Wait(); err != nil {
		return err
	}
	a.log.Info("draftsync stopped")
	return nil
}

// Close releases connections. Call it after Run returns.
func (a *App) Close() error {
	var errs []error
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.remote.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close remote client: %w", err))
	}
	if err := a.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
	}
	return errors.Join(errs...)
}
