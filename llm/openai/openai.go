// Package openai provides an llm.Client backed by the OpenAI Chat
// Completions API. The adapter maps one Complete call to one non-streaming
// chat completion request.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/noteflow-ai/noteflow/core"
	"github.com/noteflow-ai/noteflow/llm"
)

// Options configure the OpenAI client adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal; extend via
// functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Client wraps the OpenAI Chat Completions API behind the generic llm.Client interface.
type Client struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI client using the official SDK (API key from env).
func New(optFns ...func(o *Options)) *Client {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an adapter from an existing SDK client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.2,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// Complete implements llm.Client with a single non-streaming completion.
func (c *Client) Complete(ctx context.Context, systemPrompt string, msgs []core.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(systemPrompt, msgs),
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api error: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Info implements llm.Client.
func (c *Client) Info() llm.Info {
	return llm.Info{Name: c.opts.Model, Provider: "openai"}
}

// buildMessages converts the system prompt plus history into chat messages.
// Unknown roles degrade to user.
func buildMessages(systemPrompt string, msgs []core.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if systemPrompt != "" {
		out = append(out, openai.SystemMessage(systemPrompt))
	}
	for _, m := range msgs {
		if m.Text == "" {
			continue
		}
		switch m.Role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(m.Text))
		case core.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Text))
		default:
			out = append(out, openai.UserMessage(m.Text))
		}
	}
	return out
}
