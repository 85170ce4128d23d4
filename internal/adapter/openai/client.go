// Package openai adapts the OpenAI API (or any compatible endpoint) to the
// retrieval Embedder and Completer interfaces.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"estudio/internal/retrieval"
)

const (
	DefaultEmbeddingModel  = "text-embedding-ada-002"
	DefaultCompletionModel = "gpt-3.5-turbo"
)

var ErrMissingAPIKey = errors.New("openai api key not configured")

type Options struct {
	APIKey          string
	BaseURL         string
	EmbeddingModel  string
	CompletionModel string
}

type Client struct {
	client          oai.Client
	embeddingModel  string
	completionModel string
}

// NewClient never retries: a failed call aborts the question.
func NewClient(opts Options, extra ...option.RequestOption) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = DefaultEmbeddingModel
	}
	if opts.CompletionModel == "" {
		opts.CompletionModel = DefaultCompletionModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	reqOpts = append(reqOpts, extra...)

	return &Client{
		client:          oai.NewClient(reqOpts...),
		embeddingModel:  opts.EmbeddingModel,
		completionModel: opts.CompletionModel,
	}, nil
}

func (c *Client) Embed(ctx context.Context, text string) (retrieval.Vector, error) {
	slog.DebugContext(ctx, "embedding content", "provider", "openai", "model", c.embeddingModel, "length", len(text))

	res, err := c.client.Embeddings.New(ctx, oai.EmbeddingNewParams{
		Input: oai.EmbeddingNewParamsInputUnion{OfString: oai.String(text)},
		Model: oai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(res.Data) == 0 || len(res.Data[0].Embedding) == 0 {
		return nil, errors.New("openai embeddings: empty result")
	}
	return retrieval.Vector(res.Data[0].Embedding), nil
}

func (c *Client) Complete(ctx context.Context, msgs []retrieval.Message) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model:    oai.ChatModel(c.completionModel),
		Messages: make([]oai.ChatCompletionMessageParamUnion, 0, len(msgs)),
	}
	for _, m := range msgs {
		switch m.Role {
		case retrieval.RoleSystem:
			params.Messages = append(params.Messages, oai.SystemMessage(m.Content))
		case retrieval.RoleAssistant:
			params.Messages = append(params.Messages, oai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, oai.UserMessage(m.Content))
		}
	}

	out, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai chat completion: no choices in response")
	}
	return out.Choices[0].Message.Content, nil
}
