package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/draftsync/internal/core/domain"
)

var submitCmd = &cobra.Command{
	Use:   "submit [payload.json|-]",
	Short: "Create an assistant, falling back to draft and queue when the remote is unavailable",
	Args:  cobra.ExactArgs(1),
	Run:   runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) {
	payload, err := readPayload(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	app := openApp(ctx)
	defer closeApp(app)

	app.Probe(ctx)
	sub, err := app.Submitter.Submit(ctx, payload)
	printJSON(sub)

	switch {
	case err == nil:
		slog.Info("Assistant created", "id", sub.Record.ID)
	case sub.Queued:
		fmt.Fprintln(os.Stderr, sub.Message)
		fmt.Fprintf(os.Stderr, "Queued as %s; it will be sent when the connection returns.\n", sub.TempID)
	default:
		fmt.Fprintln(os.Stderr, sub.Message)
		closeApp(app)
		os.Exit(1)
	}
}

func readPayload(path string) (domain.AssistantPayload, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return domain.AssistantPayload{}, err
		}
		defer f.Close()
		r = f
	}

	var p domain.AssistantPayload
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return domain.AssistantPayload{}, fmt.Errorf("failed to decode payload: %w", err)
	}
	return p, nil
}
