package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/draftsync/internal/queue"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and manage pending writes",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending writes in sync order",
	Args:  cobra.NoArgs,
	Run:   runQueueList,
}

var queueRequeueCmd = &cobra.Command{
	Use:   "requeue [temp_id]",
	Short: "Reset the retry count of a pending write so it is synced again",
	Args:  cobra.ExactArgs(1),
	Run:   runQueueRequeue,
}

var queueRemoveCmd = &cobra.Command{
	Use:   "remove [temp_id]",
	Short: "Drop a pending write without sending it",
	Args:  cobra.ExactArgs(1),
	Run:   runQueueRemove,
}

func init() {
	queueCmd.AddCommand(queueListCmd, queueRequeueCmd, queueRemoveCmd)
	rootCmd.AddCommand(queueCmd)
}

func runQueueList(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := openApp(ctx)
	defer closeApp(app)

	entries, err := app.Queue.List(ctx)
	if err != nil {
		slog.Error("Failed to list queue", "error", err)
		closeApp(app)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "TEMP ID\tNAME\tRETRIES\tSTATE\tENQUEUED\tLAST ERROR")
	for _, e := range entries {
		state := "pending"
		if app.Queue.IsExhausted(e) {
			state = "exhausted"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\t%s\n",
			e.TempID,
			e.Payload.Name,
			e.RetryCount,
			app.Queue.MaxRetries(),
			state,
			e.EnqueuedAt.Format(time.RFC3339),
			e.LastError,
		)
	}
	_ = w.Flush()
}

func runQueueRequeue(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := openApp(ctx)
	defer closeApp(app)

	if err := app.Queue.Requeue(ctx, args[0]); err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			fmt.Printf("No pending write with id %s\n", args[0])
		} else {
			slog.Error("Failed to requeue", "error", err)
		}
		closeApp(app)
		os.Exit(1)
	}
	fmt.Printf("Requeued %s\n", args[0])
}

func runQueueRemove(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := openApp(ctx)
	defer closeApp(app)

	if _, err := app.Queue.Get(ctx, args[0]); errors.Is(err, queue.ErrNotFound) {
		fmt.Printf("No pending write with id %s\n", args[0])
		closeApp(app)
		os.Exit(1)
	}
	if err := app.Queue.Remove(ctx, args[0]); err != nil {
		slog.Error("Failed to remove pending write", "error", err)
		closeApp(app)
		os.Exit(1)
	}
	fmt.Printf("Removed %s\n", args[0])
}
