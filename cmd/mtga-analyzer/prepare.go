package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mtga-analyzer/backend/internal/health"
)

var prepareTimeout time.Duration

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Run one-shot preparation and exit",
	Long: `Prepare readies the configured dependencies: it creates the Postgres
card_cache table when that backend is selected and probes the cache and
upstream clients otherwise.

The command runs once, prints a JSON result to stdout, and exits 0 on
success or non-zero on failure.`,
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().DurationVar(&prepareTimeout, "timeout", 30*time.Second, "overall preparation timeout")
}

func runPrepare(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), prepareTimeout)
	defer cancel()
	defer closeApp()

	slog.Info("starting preparation")

	result, err := app.checker.Prepare(ctx)
	if err != nil {
		printJSON(cmd.OutOrStdout(), map[string]string{"status": health.StatusError, "error": err.Error()})
		return fmt.Errorf("preparation failed: %w", err)
	}

	printJSON(cmd.OutOrStdout(), result)
	if result.Status == health.StatusError {
		return fmt.Errorf("preparation completed with errors")
	}

	slog.Info("preparation completed successfully")
	return nil
}

// closeApp releases dependencies at the end of a one-shot command.
func closeApp() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Close(ctx); err != nil {
		slog.Warn("closing dependencies", "err", err)
	}
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		// Fallback to plain text if JSON encoding somehow fails.
		fmt.Fprintf(w, `{"status":%q}`+"\n", health.StatusError)
	}
}
