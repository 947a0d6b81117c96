package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jacnlabs/docport/internal/chunk"
	"github.com/jacnlabs/docport/internal/config"
	"github.com/jacnlabs/docport/internal/document"
	"github.com/jacnlabs/docport/internal/embed"
	"github.com/jacnlabs/docport/internal/index"
	"github.com/jacnlabs/docport/internal/llm"
	"github.com/jacnlabs/docport/internal/scope"
	"github.com/jacnlabs/docport/internal/searcher"
	"github.com/jacnlabs/docport/internal/telemetry"
)

// defaultOCRLanguage covers the Portuguese and English corpora tenants
// typically upload.
const defaultOCRLanguage = "por+eng"

// scopeOptions holds the scope-selection flags shared by most commands.
type scopeOptions struct {
	tenant string
	user   string
}

func addScopeFlags(cmd *cobra.Command, opts *scopeOptions) {
	cmd.Flags().StringVarP(&opts.tenant, "tenant", "t", "", "Tenant ID (empty selects the global corpus)")
	cmd.Flags().StringVarP(&opts.user, "user", "u", "", "Username within the tenant")
}

// resolve maps the flags to a scope. --user without --tenant is an error.
func (o scopeOptions) resolve() (scope.Scope, error) {
	switch {
	case o.tenant == "" && o.user != "":
		return scope.Scope{}, fmt.Errorf("--user requires --tenant")
	case o.tenant == "":
		return scope.Global(), nil
	case o.user == "":
		return scope.Tenant(o.tenant), nil
	default:
		return scope.TenantUser(o.tenant, o.user), nil
	}
}

// app wires the retrieval pipeline for one command invocation.
type app struct {
	cfg      *config.Config
	layout   scope.Layout
	manager  *index.Manager
	recorder *telemetry.Recorder
	embedder embed.Embedder
}

// newApp loads configuration and assembles loader, chunker, embedder,
// and index manager. Pass offline=true to force static embeddings.
func newApp(ctx context.Context, offline bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if offline {
		cfg.Embeddings.Provider = embed.ProviderStatic
	}

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
		return nil, err
	}

	splitter, err := chunk.NewSplitter(cfg.Search.ChunkSize, cfg.Search.ChunkOverlap)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	loader := document.NewLoader(
		document.NewPDFExtractor(),
		document.WithOCR(document.NewExecOCR(defaultOCRLanguage)),
		document.WithLoaderLogger(slog.Default()),
	)

	layout := scope.Layout{
		DocsDir:    cfg.Paths.DocsDir,
		UploadsDir: cfg.Paths.UploadsDir,
	}

	builder := index.NewCorpusBuilder(layout, loader, splitter, embedder,
		index.WithSearchWeights(searcher.Weights{
			Lexical:  cfg.Search.LexicalWeight,
			Semantic: cfg.Search.SemanticWeight,
		}),
		index.WithRRFConstant(cfg.Search.RRFConstant),
		index.WithBuilderLogger(slog.Default()),
	)

	managerOpts := []index.ManagerOption{index.WithManagerLogger(slog.Default())}
	var recorder *telemetry.Recorder
	if cfg.Telemetry.Enabled {
		recorder = telemetry.NewRecorder()
		managerOpts = append(managerOpts, index.WithObserver(recorder))
	}

	return &app{
		cfg:      cfg,
		layout:   layout,
		manager:  index.NewManager(builder, managerOpts...),
		recorder: recorder,
		embedder: embedder,
	}, nil
}

// completionClient builds the LLM client for ask and prompt commands.
func (a *app) completionClient() (*llm.Client, error) {
	return llm.NewClient(llm.Config{
		BaseURL:     a.cfg.Completion.BaseURL,
		Model:       a.cfg.Completion.Model,
		APIKeyEnv:   a.cfg.Completion.APIKeyEnv,
		Temperature: a.cfg.Completion.Temperature,
		Timeout:     a.cfg.Completion.Timeout,
	})
}

// Close flushes telemetry and releases the embedder.
func (a *app) Close() {
	if a.recorder != nil && a.cfg.Telemetry.DBPath != "" {
		store, err := telemetry.OpenStore(a.cfg.Telemetry.DBPath)
		if err != nil {
			slog.Warn("telemetry store unavailable", slog.String("error", err.Error()))
		} else {
			if err := a.recorder.Flush(store); err != nil {
				slog.Warn("telemetry flush failed", slog.String("error", err.Error()))
			}
			_ = store.Close()
		}
	}
	_ = a.embedder.Close()
}
