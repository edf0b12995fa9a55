package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/draftsync/internal/health"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect or discard the autosaved draft",
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved draft",
	Args:  cobra.NoArgs,
	Run:   runDraftShow,
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the saved draft",
	Args:  cobra.NoArgs,
	Run:   runDraftClear,
}

func init() {
	draftCmd.AddCommand(draftShowCmd, draftClearCmd)
	rootCmd.AddCommand(draftCmd)
}

func runDraftShow(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := openApp(ctx)
	defer closeApp(app)

	payload := app.Drafts.LoadDraft(ctx)
	if payload == nil {
		fmt.Println("No draft saved")
		return
	}
	savedAt, _ := app.Drafts.DraftTimestamp(ctx)
	printJSON(health.DraftResponse{Payload: *payload, SavedAt: savedAt})
}

func runDraftClear(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := openApp(ctx)
	defer closeApp(app)

	if !app.Drafts.HasDraft(ctx) {
		fmt.Println("No draft saved")
		return
	}
	app.Drafts.ClearDraft(ctx)
	if app.Drafts.HasDraft(ctx) {
		fmt.Fprintln(os.Stderr, "Draft could not be cleared")
		closeApp(app)
		os.Exit(1)
	}
	fmt.Println("Draft cleared")
}
