package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/raphaelgruber/chatroom-go/internal/metrics"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server runtime statistics",
	Long: `Show in-memory server statistics since the last restart: store and
classifier call counts, failures and latency, and how many messages were
stored with the default label because classification failed.

Examples:
  chatroom stats
  chatroom stats --json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := apiClient.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("get server stats: %w", err)
	}

	p := newPrinter(cmd.OutOrStdout())
	if jsonOutput {
		return p.writeJSON(stats)
	}
	printServerStats(p, stats)
	return nil
}

// printServerStats displays server runtime statistics.
func printServerStats(p printer, stats *metrics.Snapshot) {
	fmt.Fprintln(p.w, p.title("Server Statistics (in-memory, since restart)"))
	fmt.Fprintf(p.w, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(p.w, "Uptime: %.1f seconds\n", stats.UptimeSeconds)
	fmt.Fprintf(p.w, "Degraded sends: %d\n", stats.DegradedSends)

	ops := make([]string, 0, len(stats.Operations))
	for op := range stats.Operations {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	for _, op := range ops {
		fmt.Fprintf(p.w, "\n%s:\n", op)
		printOpStats(p.w, stats.Operations[op])
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Failures: %d, Total: %dms\n", op.Count, op.Failures, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
