package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/storyscribe/internal/config"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// AzureClient implements Completer against an Azure OpenAI deployment.
type AzureClient struct {
	client     openai.Client
	deployment string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewAzureFromConfig builds an Azure OpenAI completer.
// Returns ErrNotConfigured when the endpoint or API key is absent so callers
// can run without the model.
func NewAzureFromConfig(cfg config.OpenAIConfig, logger *slog.Logger) (*AzureClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint == "" {
		return nil, ErrNotConfigured
	}
	if cfg.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not found in environment")
		return nil, ErrNotConfigured
	}
	if cfg.Deployment == "" {
		return nil, fmt.Errorf("%w: deployment is required", ErrNotConfigured)
	}

	opts := []option.RequestOption{
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
		// Failures go straight to the static fallback.
		option.WithMaxRetries(0),
	}

	return &AzureClient{
		client:     openai.NewClient(opts...),
		deployment: cfg.Deployment,
		timeout:    cfg.Timeout,
		logger:     logger,
	}, nil
}

// Deployment returns the configured model deployment name.
func (c *AzureClient) Deployment() string {
	return c.deployment
}

// Complete sends one system and one user message and returns the trimmed reply.
func (c *AzureClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.deployment),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	params.Temperature = openai.Float(req.Temperature)

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("azure openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("azure openai: %w: empty choices", ErrEmptyCompletion)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, fmt.Errorf("azure openai: %w", ErrEmptyCompletion)
	}

	c.logger.Debug("Completion finished",
		"deployment", c.deployment,
		"latency_ms", time.Since(start).Milliseconds(),
		"total_tokens", resp.Usage.TotalTokens,
	)

	model := resp.Model
	if model == "" {
		model = c.deployment
	}
	return &Response{
		Text:  text,
		Model: model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Ensure AzureClient implements Completer.
var _ Completer = (*AzureClient)(nil)
