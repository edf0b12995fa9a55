package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity, storage health and queue state",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := openApp(ctx)
	defer closeApp(app)

	app.Probe(ctx)
	report := app.Health(ctx)
	hasDraft := app.Drafts.HasDraft(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "STATUS\tONLINE\tSTORAGE\tPENDING\tEXHAUSTED\tDRAFT")
	storage := "ok"
	if !report.StorageOK {
		storage = report.StorageError
	}
	_, _ = fmt.Fprintf(w, "%s\t%t\t%s\t%d\t%d\t%t\n",
		report.Status,
		report.Online,
		storage,
		report.PendingWrites,
		report.ExhaustedWrites,
		hasDraft,
	)
	_ = w.Flush()
}
