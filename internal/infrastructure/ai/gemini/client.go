// Package gemini adapts the Gemini vision model to the extraction, audit
// and assistant ports.
package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/rmarchais/facturx-backend/internal/infrastructure/resilience"
)

const defaultModel = "gemini-3-flash-preview"

// missingKeyPlaceholder keeps the client constructible without credentials.
// Calls then fail with an auth error and the pipeline degrades to the
// fallback synthesizer instead of refusing to boot.
const missingKeyPlaceholder = "MISSING_KEY_PLACEHOLDER"

type Client struct {
	genai    *genai.Client
	model    string
	executor *resilience.Executor
}

func New(ctx context.Context, apiKey, model string, executor *resilience.Executor) (*Client, error) {
	if apiKey == "" {
		slog.Warn("gemini_api_key_missing", "mode", "degraded")
		apiKey = missingKeyPlaceholder
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{genai: client, model: model, executor: executor}, nil
}

// generate runs one model call through the resilience executor when one is
// configured.
func (c *Client) generate(ctx context.Context, operation string, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	var text string
	call := func(callCtx context.Context) error {
		resp, err := c.genai.Models.GenerateContent(callCtx, c.model, contents, config)
		if err != nil {
			return fmt.Errorf("gemini %s: %w", operation, err)
		}
		text = resp.Text()
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	return text, nil
}
