package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"estudio/internal/retrieval"
)

const (
	DefaultEmbeddingModel  = "gemini-embedding-001"
	DefaultCompletionModel = "gemini-1.5-flash"
)

var ErrMissingAPIKey = errors.New("gemini api key not configured")

type Options struct {
	APIKey          string
	EmbeddingModel  string
	CompletionModel string
}

type Client struct {
	client          *genai.Client
	embeddingModel  string
	completionModel string
}

func NewClient(ctx context.Context, opts Options, extra ...option.ClientOption) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = DefaultEmbeddingModel
	}
	if opts.CompletionModel == "" {
		opts.CompletionModel = DefaultCompletionModel
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(opts.APIKey)}, extra...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		client:          client,
		embeddingModel:  opts.EmbeddingModel,
		completionModel: opts.CompletionModel,
	}, nil
}

func (c *Client) Close() error { return c.client.Close() }

func (c *Client) Embed(ctx context.Context, text string) (retrieval.Vector, error) {
	slog.DebugContext(ctx, "embedding content", "provider", "gemini", "model", c.embeddingModel, "length", len(text))

	res, err := c.client.EmbeddingModel(c.embeddingModel).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("gemini embed: empty embedding received")
	}

	vec := make(retrieval.Vector, len(res.Embedding.Values))
	for i, v := range res.Embedding.Values {
		vec[i] = float64(v)
	}
	return vec, nil
}

// Complete maps system messages to the model's system instruction and
// replays the rest as chat history.
func (c *Client) Complete(ctx context.Context, msgs []retrieval.Message) (string, error) {
	model := c.client.GenerativeModel(c.completionModel)

	var system []genai.Part
	var turns []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case retrieval.RoleSystem:
			system = append(system, genai.Text(m.Content))
		case retrieval.RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(turns) == 0 {
		return "", errors.New("gemini complete: no user message")
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}

	chat := model.StartChat()
	chat.History = turns[:len(turns)-1]
	resp, err := chat.SendMessage(ctx, turns[len(turns)-1].Parts...)
	if err != nil {
		return "", fmt.Errorf("gemini complete: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini complete: no candidates in response")
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}
