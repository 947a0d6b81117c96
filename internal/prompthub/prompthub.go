// Package prompthub generates ready-to-use professional prompts on a
// user-supplied topic. Unlike the ask flow it is not grounded in the
// document corpus; it only drives the completion model with a curated
// template.
package prompthub

import (
	"context"
	"fmt"
	"strings"

	porterr "github.com/jacnlabs/docport/internal/errors"
	"github.com/jacnlabs/docport/internal/llm"
)

const systemTemplate = "You are a prompt engineering assistant. Produce one " +
	"high-quality, reusable prompt that a professional can paste into an AI " +
	"assistant. The prompt must state a role, the task, the expected output " +
	"format, and constraints. Return only the prompt text, no commentary."

const userTemplate = "Topic: %s\nRequested by: %s\n\nWrite the prompt in English."

// Hub generates prompts through a completion client.
type Hub struct {
	client llm.CompletionClient
}

// New creates a Hub.
func New(client llm.CompletionClient) *Hub {
	return &Hub{client: client}
}

// Generate produces a professional prompt for the topic. The username
// personalizes the template and may be empty.
func (h *Hub) Generate(ctx context.Context, topic, username string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", porterr.New(porterr.ErrCodeInvalidInput, "topic must not be empty", nil)
	}
	if username == "" {
		username = "a professional user"
	}

	prompt, err := h.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemTemplate},
		{Role: llm.RoleUser, Content: fmt.Sprintf(userTemplate, topic, username)},
	})
	if err != nil {
		return "", err
	}
	return prompt, nil
}
