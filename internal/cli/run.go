package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync orchestrator, the network prober and the admin server",
	Run:   runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := openApp(ctx)
	defer closeApp(app)

	slog.Info("draftsync started", "config", cfgPath)

	if err := app.Run(ctx); err != nil {
		slog.Error("draftsync failed", "error", err)
		closeApp(app)
		os.Exit(1)
	}
}
