package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpequegn/ubench/internal/analyzer"
	"github.com/jpequegn/ubench/internal/storage"
)

var trendFlags struct {
	history   string
	name      string
	limit     int
	pruneDays int
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show the performance trend for a named run across history",
	Long: `trend loads past ns/call results recorded with "run --history" and
reports whether the named benchmark is improving, degrading, or stable.

Example:
  ubench trend --history runs.db --name noop`,
	RunE:          runTrend,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(trendCmd)

	f := trendCmd.Flags()
	f.StringVar(&trendFlags.history, "history", "", "SQLite path written by a prior run --history")
	f.StringVar(&trendFlags.name, "name", "", "benchmark name to analyze")
	f.IntVar(&trendFlags.limit, "limit", 0, "limit to the N most recent runs (0 = all)")
	f.IntVar(&trendFlags.pruneDays, "prune-days", 0, "before analyzing, delete runs older than N days (0 = skip)")
}

func runTrend(cmd *cobra.Command, args []string) error {
	if trendFlags.history == "" {
		return fmt.Errorf("trend: --history is required")
	}
	if trendFlags.name == "" {
		return fmt.Errorf("trend: --name is required")
	}

	backing, err := storage.NewSQLiteStorage(trendFlags.history)
	if err != nil {
		return fmt.Errorf("trend: %w", err)
	}
	defer backing.Close()

	if err := backing.Init(); err != nil {
		return fmt.Errorf("trend: %w", err)
	}

	// Route Prune and Trend through the Trend cache. The cache lives only
	// for this invocation, which makes a single Trend lookup, so it saves
	// no SQLite read here; Prune clears it.
	var st storage.Storage = storage.NewCachedStorage(backing, 100, time.Minute)

	if trendFlags.pruneDays > 0 {
		if err := st.Prune(trendFlags.pruneDays); err != nil {
			return fmt.Errorf("trend: %w", err)
		}
	}

	history, err := st.Trend(trendFlags.name, trendFlags.limit)
	if err != nil {
		return fmt.Errorf("trend: %w", err)
	}
	if len(history) == 0 {
		fmt.Fprintf(os.Stdout, "no runs recorded for %q\n", trendFlags.name)
		return nil
	}

	result, err := analyzer.NewBasicTrendAnalyzer().CalculateTrend(history, 3)
	if err != nil {
		fmt.Fprintf(os.Stdout, "%s: %v\n", trendFlags.name, err)
		return nil
	}

	fmt.Fprintf(os.Stdout, "%s: %s (slope=%.4f ns/day, r2=%.3f, change=%.2f%%, n=%d, %s -> %s)\n",
		result.Name, result.Direction, result.Slope, result.RSquared, result.ChangePercent,
		result.DataPoints, result.StartTime.Format("2006-01-02"), result.EndTime.Format("2006-01-02"))

	anomalies := analyzer.NewBasicTrendAnalyzer().DetectAnomalies(history, 2.0)
	for _, a := range anomalies {
		fmt.Fprintf(os.Stdout, "  anomaly: %s %.0fns/call (z=%.2f, %s)\n", a.Timestamp.Format("2006-01-02 15:04"), a.Value, a.ZScore, a.Severity)
	}

	return nil
}
