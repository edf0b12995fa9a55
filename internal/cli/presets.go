package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List assistant presets, served from the local cache when fresh",
	Args:  cobra.NoArgs,
	Run:   runPresets,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

func runPresets(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := openApp(ctx)
	defer closeApp(app)

	app.Probe(ctx)
	presets, err := app.Presets.Load(ctx)
	if err != nil {
		slog.Error("Failed to load presets", "error", err)
		closeApp(app)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, p := range presets {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.Description)
	}
	_ = w.Flush()
}
