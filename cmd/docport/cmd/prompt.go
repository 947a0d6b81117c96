package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacnlabs/docport/internal/config"
	"github.com/jacnlabs/docport/internal/llm"
	"github.com/jacnlabs/docport/internal/prompthub"
)

func newPromptCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "prompt <topic>",
		Short: "Generate a reusable prompt for a topic",
		Long: `Generate a structured, reusable prompt for a given topic.

The prompt hub asks the completion model to draft a professional
prompt template that can be saved and shared.

Examples:
  docport prompt "quarterly sales report summary"
  docport prompt "contract risk review" --username "Ana Souza"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrompt(cmd.Context(), cmd, strings.Join(args, " "), username)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Requesting user's display name")

	return cmd
}

func runPrompt(ctx context.Context, cmd *cobra.Command, topic, username string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.Completion.BaseURL,
		Model:       cfg.Completion.Model,
		APIKeyEnv:   cfg.Completion.APIKeyEnv,
		Temperature: cfg.Completion.Temperature,
		Timeout:     cfg.Completion.Timeout,
	})
	if err != nil {
		return err
	}

	text, err := prompthub.New(client).Generate(ctx, topic, username)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
