package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacnlabs/docport/internal/index"
	"github.com/jacnlabs/docport/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	scopeOptions
	topK          int
	offline       bool
	includeGlobal bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a scope's documents",
		Long: `Search one scope's documents with hybrid retrieval.

Combines BM25 keyword matching and semantic similarity, fused by
Reciprocal Rank Fusion. The index is built on first use and cached.

Examples:
  docport search "payment deadlines"
  docport search --tenant acme "refund policy" -k 8
  docport search --tenant acme --user alice "meeting notes"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	addScopeFlags(cmd, &opts.scopeOptions)
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", index.DefaultTopK, "Number of results (1-10)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use static embeddings (skip Ollama)")
	cmd.Flags().BoolVarP(&opts.includeGlobal, "global", "g", false, "Also search the shared global corpus")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	sc, err := opts.resolve()
	if err != nil {
		return err
	}

	app, err := newApp(ctx, opts.offline)
	if err != nil {
		return err
	}
	defer app.Close()

	results, err := app.manager.Query(ctx, sc, query, opts.topK, opts.includeGlobal)
	if err != nil {
		return err
	}

	ui.NewRenderer(cmd.OutOrStdout()).SearchResults(results)
	return nil
}
