package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one drain cycle of the pending queue now",
	Args:  cobra.NoArgs,
	Run:   runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := openApp(ctx)
	defer closeApp(app)

	if !app.Probe(ctx) {
		fmt.Println("Offline, nothing sent")
		return
	}

	results, ran := app.Syncer.TriggerSync(ctx)
	if !ran {
		fmt.Println("A sync is already in progress")
		return
	}
	if len(results) == 0 {
		fmt.Println("Queue is empty")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "TEMP ID\tSTATUS\tSERVER ID\tRETRIES\tERROR")
	for _, r := range results {
		msg := ""
		if r.Error != nil {
			msg = r.Error.Error()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.TempID, r.Status, r.ServerID, r.RetryCount, msg)
	}
	_ = w.Flush()
}
