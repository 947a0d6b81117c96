package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacnlabs/docport/internal/config"
	"github.com/jacnlabs/docport/internal/document"
	"github.com/jacnlabs/docport/internal/embed"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and service availability",
		Long: `Show the effective configuration and whether the external
services docport depends on (Ollama, ocrmypdf, the completion API key)
are reachable from this machine.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd)
		},
	}
}

func runStatus(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Data directory:   %s\n", cfg.Paths.DataDir)
	fmt.Fprintf(out, "Global docs:      %s (%d files)\n", cfg.Paths.DocsDir, countPDFs(cfg.Paths.DocsDir))
	fmt.Fprintf(out, "Tenant uploads:   %s (%d tenants)\n", cfg.Paths.UploadsDir, countDirs(cfg.Paths.UploadsDir))
	fmt.Fprintf(out, "Fusion weights:   %.0f%% lexical / %.0f%% semantic (rrf k=%d)\n",
		cfg.Search.LexicalWeight*100, cfg.Search.SemanticWeight*100, cfg.Search.RRFConstant)
	fmt.Fprintf(out, "Chunking:         %d chars, %d overlap\n", cfg.Search.ChunkSize, cfg.Search.ChunkOverlap)

	fmt.Fprintf(out, "Embeddings:       %s (%s) %s\n",
		cfg.Embeddings.Provider, cfg.Embeddings.Model, checkEmbeddings(ctx, cfg))
	fmt.Fprintf(out, "OCR:              %s\n", checkOCR())
	fmt.Fprintf(out, "Completion:       %s (%s) %s\n",
		cfg.Completion.Model, cfg.Completion.BaseURL, checkAPIKey(cfg.Completion.APIKeyEnv))

	if cfg.Telemetry.Enabled {
		fmt.Fprintf(out, "Telemetry:        %s\n", cfg.Telemetry.DBPath)
	} else {
		fmt.Fprintln(out, "Telemetry:        disabled")
	}
	return nil
}

func checkEmbeddings(ctx context.Context, cfg *config.Config) string {
	embedder, err := embed.NewEmbedder(ctx, embed.FactoryConfig{
		Provider:   cfg.Embeddings.Provider,
		Model:      cfg.Embeddings.Model,
		OllamaHost: cfg.Embeddings.OllamaHost,
		Dimensions: cfg.Embeddings.Dimensions,
		BatchSize:  cfg.Embeddings.BatchSize,
		Timeout:    cfg.Embeddings.Timeout,
		CacheSize:  cfg.Embeddings.CacheSize,
	})
	if err != nil {
		return fmt.Sprintf("[unavailable: %v]", err)
	}
	defer embedder.Close()
	if !embedder.Available(ctx) {
		return "[unavailable]"
	}
	return "[ok]"
}

func checkOCR() string {
	if document.NewExecOCR(defaultOCRLanguage).Available() {
		return "ocrmypdf [ok]"
	}
	return "ocrmypdf not found; scanned PDFs will not be searchable"
}

func checkAPIKey(envName string) string {
	if os.Getenv(envName) == "" {
		return fmt.Sprintf("[%s not set]", envName)
	}
	return "[key set]"
}

func countPDFs(dir string) int {
	names, err := listPDFs(dir)
	if err != nil {
		return 0
	}
	return len(names)
}

func countDirs(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			n++
		}
	}
	return n
}
