package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jacnlabs/docport/internal/llm"
	"github.com/jacnlabs/docport/internal/scope"
	"github.com/jacnlabs/docport/internal/searcher"
)

// Retriever is the slice of the index manager the pipeline needs.
type Retriever interface {
	Query(ctx context.Context, sc scope.Scope, query string, k int, includeGlobal bool) ([]searcher.Result, error)
}

// NotFoundAnswer is returned when retrieval produces nothing worth
// citing. No completion call is made in that case.
const NotFoundAnswer = "I could not find relevant information in the available documents."

const systemPrompt = "You are a document assistant. Answer the question using only the " +
	"provided context blocks. Each block starts with a [[SOURCE: file, PAGE: n]] tag; " +
	"cite the sources you used. If the context does not contain the answer, say so " +
	"plainly instead of guessing."

// Answer is the result of one Ask call.
type Answer struct {
	// Text is the answer body.
	Text string

	// Sources are the cited documents in retrieval order.
	Sources []Source

	// Degraded is true when retrieval succeeded but answer generation
	// failed, so Text carries a fallback instead of a model answer.
	Degraded bool
}

// Pipeline wires the index manager and the completion client into the
// ask flow.
type Pipeline struct {
	manager       Retriever
	client        llm.CompletionClient
	threshold     float64
	includeGlobal bool
	logger        *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithScoreThreshold overrides the default relevance cutoff.
func WithScoreThreshold(threshold float64) PipelineOption {
	return func(p *Pipeline) { p.threshold = threshold }
}

// WithGlobalCorpus also searches the shared global corpus and merges
// its results with the scope's.
func WithGlobalCorpus(include bool) PipelineOption {
	return func(p *Pipeline) { p.includeGlobal = include }
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline builds the ask pipeline.
func NewPipeline(manager Retriever, client llm.CompletionClient, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		manager:   manager,
		client:    client,
		threshold: DefaultScoreThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ask retrieves context for the question within the scope and asks the
// model to answer from it. Retrieval failures are errors; completion
// failures degrade to a sourced fallback answer so the user still gets
// the citations.
func (p *Pipeline) Ask(ctx context.Context, sc scope.Scope, question string, k int) (*Answer, error) {
	results, err := p.manager.Query(ctx, sc, question, k, p.includeGlobal)
	if err != nil {
		return nil, err
	}

	relevant := FilterByScore(results, p.threshold)
	if len(relevant) == 0 {
		return &Answer{Text: NotFoundAnswer}, nil
	}

	contextText, sources := BuildContext(relevant)
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)},
	}

	text, err := p.client.Complete(ctx, messages)
	if err != nil {
		p.logger.Warn("answer generation failed, returning sources only",
			"scope", sc.Key(), "error", err)
		return &Answer{
			Text: "I found relevant passages but could not generate an answer. " +
				"Consult the cited sources directly.",
			Sources:  sources,
			Degraded: true,
		}, nil
	}
	return &Answer{Text: text, Sources: sources}, nil
}
