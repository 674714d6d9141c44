// Package genai wraps the Gemini API behind a single-completion
// interface so worker services can be tested against fakes.
package genai

import (
	"context"
	"time"

	googlegenai "google.golang.org/genai"

	"magicbus-backend/internal/common/errors"
)

// Model produces one completion for a system/user prompt pair.
type Model interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type Client struct {
	client  *googlegenai.Client
	model   string
	timeout time.Duration
}

func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	client, err := googlegenai.NewClient(ctx, &googlegenai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, errors.NewModelCallFailedError(err)
	}
	return &Client{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Complete sends one turn to the model and returns the raw response
// text. Every call is bounded by the configured timeout.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*googlegenai.Content{
		{
			Role:  "user",
			Parts: []*googlegenai.Part{{Text: userPrompt}},
		},
	}

	cfg := &googlegenai.GenerateContentConfig{
		SystemInstruction: &googlegenai.Content{
			Parts: []*googlegenai.Part{{Text: systemPrompt}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.NewModelTimeoutError()
		}
		return "", errors.NewModelCallFailedError(err)
	}
	return resp.Text(), nil
}
