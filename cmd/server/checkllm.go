package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ashureev/storyscribe/internal/config"
	"github.com/ashureev/storyscribe/internal/llm"
	"github.com/ashureev/storyscribe/internal/prompting"
	"github.com/spf13/cobra"
)

func newCheckLLMCmd() *cobra.Command {
	var genre, mood string

	cmd := &cobra.Command{
		Use:   "check-llm",
		Short: "Verify the completion model configuration with one test prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return runCheckLLM(cmd.Context(), cmd.OutOrStdout(), cfg.OpenAI, genre, mood)
		},
	}

	cmd.Flags().StringVar(&genre, "genre", prompting.DefaultGenre, "Genre for the test prompt")
	cmd.Flags().StringVar(&mood, "mood", prompting.MoodDeepReflection, "Mood for the test prompt")
	return cmd
}

func maskKey(key string) string {
	if key == "" {
		return "NOT SET"
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 12) + key[len(key)-4:]
}

func runCheckLLM(ctx context.Context, out io.Writer, cfg config.OpenAIConfig, genre, mood string) error {
	fmt.Fprintf(out, "Endpoint:    %s\n", cfg.Endpoint)
	fmt.Fprintf(out, "Deployment:  %s\n", cfg.Deployment)
	fmt.Fprintf(out, "API version: %s\n", cfg.APIVersion)
	fmt.Fprintf(out, "API key:     %s\n", maskKey(cfg.APIKey))

	client, err := llm.NewAzureFromConfig(cfg, nil)
	if err != nil {
		return fmt.Errorf("create completion client: %w", err)
	}

	gen := prompting.NewGenerator(prompting.WithCompleter(client, client.Deployment()))
	gp := gen.GenerateForGenre(ctx, prompting.GenreRequest{Genre: genre, Mood: mood})
	if gp.Error != "" {
		return fmt.Errorf("completion failed: %s", gp.Error)
	}

	fmt.Fprintf(out, "\nPrompt (%s, %s):\n%s\n", gp.Genre, gp.Mood, gp.Prompt)
	if gp.Tokens != nil {
		fmt.Fprintf(out, "Tokens used: %d (prompt %d, completion %d)\n", gp.Tokens.Total, gp.Tokens.Prompt, gp.Tokens.Completion)
	}
	return nil
}
