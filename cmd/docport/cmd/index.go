package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacnlabs/docport/internal/index"
)

func newIndexCmd() *cobra.Command {
	var opts scopeOptions
	var offline bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or rebuild the index for a scope",
		Long: `Build or rebuild the hybrid index for one scope.

Discards any cached index for the scope and rebuilds from the documents
currently on disk. Run after uploading or removing PDFs.

Examples:
  docport index
  docport index --tenant acme
  docport index --tenant acme --user alice`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd, opts, offline)
		},
	}

	addScopeFlags(cmd, &opts)
	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings (skip Ollama)")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, opts scopeOptions, offline bool) error {
	sc, err := opts.resolve()
	if err != nil {
		return err
	}

	app, err := newApp(ctx, offline)
	if err != nil {
		return err
	}
	defer app.Close()

	idx, err := app.manager.Rebuild(ctx, sc)
	if err != nil {
		return fmt.Errorf("index %s: %w", sc.Key(), err)
	}

	out := cmd.OutOrStdout()
	if idx.State() == index.StateEmpty {
		fmt.Fprintf(out, "Scope %s has no documents; index is empty.\n", sc.Key())
		return nil
	}
	fmt.Fprintf(out, "Indexed scope %s: %d documents, %d chunks.\n",
		sc.Key(), idx.DocumentCount(), idx.ChunkCount())
	return nil
}
