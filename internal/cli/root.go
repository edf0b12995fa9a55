package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/draftsync/internal/control"
	"github.com/vietddude/draftsync/internal/core/config"
	"github.com/vietddude/draftsync/internal/netstatus"
)

var (
	cfgPath string
	isDebug bool
	offline bool
)

var rootCmd = &cobra.Command{
	Use:   "draftsync",
	Short: "Offline-first assistant submission and sync",
	Long: `draftsync creates assistant records against a remote service, keeping a local draft
and a durable queue of pending writes that are synced once connectivity returns.`,
	Run: runDaemon,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "treat the remote service as unreachable")
}

// loadConfig reads .env and the config file, then sets up logging.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
	return cfg
}

// openApp loads config and builds the application. Callers must Close it.
func openApp(ctx context.Context) *control.App {
	cfg := loadConfig()

	var opts control.Options
	if offline {
		opts.Monitor = netstatus.NewSwitch(false)
	}

	app, err := control.NewApp(ctx, cfg, opts)
	if err != nil {
		slog.Error("Failed to initialize draftsync", "error", err)
		os.Exit(1)
	}
	return app
}

func closeApp(app *control.App) {
	if err := app.Close(); err != nil {
		slog.Warn("Error during close", "error", err)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
