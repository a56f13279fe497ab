package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var probeTimeout time.Duration

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Probe every dependency once and exit",
	Long: `Probe runs the same checks as GET /health/deep, prints the results as
JSON, and exits non-zero if any dependency is unhealthy.`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 10*time.Second, "overall probe timeout")
}

func runProbe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
	defer cancel()
	defer closeApp()

	probes := app.checker.RunDeepHealth(ctx)
	printJSON(cmd.OutOrStdout(), probes)

	var failed []string
	for name, p := range probes {
		if !p.OK {
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return fmt.Errorf("unhealthy dependencies: %v", failed)
	}
	return nil
}
