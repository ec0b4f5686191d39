package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driving"
)

var (
	syncWatch        bool
	syncHistoryLimit int
)

var syncCmd = &cobra.Command{
	Use:   "sync [source-id]",
	Short: "Synchronise documents from sources",
	Long: `Triggers document synchronisation from configured sources.
If a source ID is provided, only that source is synchronised.
Otherwise, all sources are synchronised.

With --watch, after the initial sync the command keeps running and
applies change events from watch-capable sources as they happen.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

var syncHistoryCmd = &cobra.Command{
	Use:   "history [source-id]",
	Short: "Show recent sync runs",
	Long: `Lists recent synchronisation runs, newest first.
If a source ID is provided, only runs for that source are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSyncHistory,
}

func init() {
	syncCmd.Flags().BoolVar(&syncWatch, "watch", false, "keep watching for changes after the sync")
	syncHistoryCmd.Flags().IntVarP(&syncHistoryLimit, "limit", "n", 20, "maximum number of runs to show")
	syncCmd.AddCommand(syncHistoryCmd)
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		// Sync specific source
		sourceID := args[0]
		cmd.Printf("Synchronising source: %s...\n", sourceID)

		if err := syncWithProgress(ctx, cmd, syncOrchestrator, sourceID); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		cmd.Printf("Source %s synchronised successfully.\n", sourceID)
	} else {
		// Sync all sources
		cmd.Println("Synchronising all sources...")

		if err := syncOrchestrator.SyncAll(ctx); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		cmd.Println("All sources synchronised successfully.")
	}

	if syncWatch {
		cmd.Println("Watching for changes. Press Ctrl+C to stop.")
		if err := syncOrchestrator.Watch(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("watch failed: %w", err)
		}
	}

	return nil
}

func runSyncHistory(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	sourceID := ""
	if len(args) > 0 {
		sourceID = args[0]
	}

	logs, err := syncOrchestrator.History(context.Background(), sourceID, syncHistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to list sync history: %w", err)
	}

	if len(logs) == 0 {
		cmd.Println("No sync runs recorded.")
		return nil
	}

	cmd.Println("Sync history:")
	cmd.Println()
	for i := range logs {
		run := &logs[i]

		cmd.Printf("  %s  %s (%s)\n",
			run.StartedAt.Format("2006-01-02 15:04:05"), run.SourceName, run.SourceType)
		cmd.Printf("    Status: %s", run.Status)
		if run.Status != domain.SyncStatusRunning {
			cmd.Printf(" in %s", run.Duration().Round(time.Millisecond))
		}
		cmd.Println()
		cmd.Printf("    Documents: %d synced (%d added, %d updated, %d deleted)\n",
			run.DocumentsSynced, run.DocumentsAdded, run.DocumentsUpdated, run.DocumentsDeleted)
		if run.Message != "" {
			cmd.Printf("    Message: %s\n", run.Message)
		}
		cmd.Println()
	}

	return nil
}

// syncWithProgress runs sync while displaying progress updates.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	syncOrch driving.SyncOrchestrator,
	sourceID string,
) error {
	// Start sync in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- syncOrch.Sync(ctx, sourceID)
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case err := <-errCh:
			// Print final status (ignore status error - best effort)
			status, statusErr := syncOrch.Status(ctx, sourceID)
			if statusErr == nil && status != nil && status.DocumentsProcessed > 0 {
				cmd.Printf("\rProcessed %d documents (%d errors)\n",
					status.DocumentsProcessed, status.ErrorCount)
			}
			return err
		case <-ticker.C:
			// Check progress (ignore status error - best effort)
			status, statusErr := syncOrch.Status(ctx, sourceID)
			if statusErr == nil && status != nil && status.DocumentsProcessed > lastCount {
				cmd.Printf("\rProcessing... %d documents", status.DocumentsProcessed)
				lastCount = status.DocumentsProcessed
			}
		}
	}
}
