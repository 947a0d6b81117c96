package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacnlabs/docport/internal/index"
	"github.com/jacnlabs/docport/internal/rag"
	"github.com/jacnlabs/docport/internal/ui"
)

func newAskCmd() *cobra.Command {
	var opts scopeOptions
	var topK int
	var offline bool
	var includeGlobal bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question over a scope's documents",
		Long: `Ask a question and get an answer grounded in the scope's documents.

Retrieves the most relevant chunks, filters them by score, and asks
the completion model to answer from that context only. Citations name
the source file and page.

Requires the completion API key (GROQ_API_KEY by default).

Examples:
  docport ask "what is the notice period?"
  docport ask --tenant acme "when does the contract renew?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cmd, strings.Join(args, " "), opts, topK, offline, includeGlobal)
		},
	}

	addScopeFlags(cmd, &opts)
	cmd.Flags().IntVarP(&topK, "top-k", "k", index.DefaultTopK, "Chunks to retrieve (1-10)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings (skip Ollama)")
	cmd.Flags().BoolVarP(&includeGlobal, "global", "g", false, "Also draw context from the shared global corpus")

	return cmd
}

func runAsk(ctx context.Context, cmd *cobra.Command, question string, opts scopeOptions, topK int, offline, includeGlobal bool) error {
	sc, err := opts.resolve()
	if err != nil {
		return err
	}

	app, err := newApp(ctx, offline)
	if err != nil {
		return err
	}
	defer app.Close()

	client, err := app.completionClient()
	if err != nil {
		return err
	}

	pipeline := rag.NewPipeline(app.manager, client,
		rag.WithScoreThreshold(app.cfg.Search.ScoreThreshold),
		rag.WithGlobalCorpus(includeGlobal))

	answer, err := pipeline.Ask(ctx, sc, question, topK)
	if err != nil {
		return err
	}

	ui.NewRenderer(cmd.OutOrStdout()).Answer(answer)
	return nil
}
