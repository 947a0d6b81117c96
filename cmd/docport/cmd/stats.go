package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacnlabs/docport/internal/config"
	"github.com/jacnlabs/docport/internal/telemetry"
)

func newStatsCmd() *cobra.Command {
	var opts scopeOptions
	var topTerms int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show recorded query statistics",
		Long: `Show query telemetry recorded by past searches: the latency
histogram and index build count for one scope, plus the most frequent
query terms and recent zero-result queries across all scopes.

All metrics are read from the local SQLite file; nothing leaves the
machine.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, opts, topTerms)
		},
	}

	addScopeFlags(cmd, &opts)
	cmd.Flags().IntVar(&topTerms, "terms", 10, "Number of top query terms to show")

	return cmd
}

func runStats(cmd *cobra.Command, opts scopeOptions, topTerms int) error {
	sc, err := opts.resolve()
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.DBPath == "" {
		return fmt.Errorf("telemetry is disabled")
	}
	if _, err := os.Stat(cfg.Telemetry.DBPath); os.IsNotExist(err) {
		return fmt.Errorf("no telemetry recorded yet")
	}

	store, err := telemetry.OpenStore(cfg.Telemetry.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	counts, err := store.GetLatencyCounts(sc.Key())
	if err != nil {
		return err
	}
	builds, err := store.BuildCount(sc.Key())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Scope %s\n", sc.Key())
	fmt.Fprintf(out, "  index builds: %d\n", builds)
	fmt.Fprintln(out, "  query latency:")
	for _, b := range []struct {
		bucket telemetry.LatencyBucket
		label  string
	}{
		{telemetry.BucketP10, "<10ms"},
		{telemetry.BucketP50, "10-50ms"},
		{telemetry.BucketP100, "50-100ms"},
		{telemetry.BucketP500, "100-500ms"},
		{telemetry.BucketP1000, ">=500ms"},
	} {
		fmt.Fprintf(out, "    %-10s %d\n", b.label, counts[b.bucket])
	}

	terms, err := store.TopTerms(topTerms)
	if err != nil {
		return err
	}
	if len(terms) > 0 {
		fmt.Fprintln(out, "\nTop query terms:")
		for _, t := range terms {
			fmt.Fprintf(out, "  %s\n", t)
		}
	}

	zeros, err := store.ZeroResultQueries()
	if err != nil {
		return err
	}
	if len(zeros) > 0 {
		fmt.Fprintln(out, "\nRecent zero-result queries:")
		for _, q := range zeros {
			fmt.Fprintf(out, "  [%s] %s\n", q.ScopeKey, q.Query)
		}
	}
	return nil
}
