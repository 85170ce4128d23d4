// Package llm picks the embedding and completion backend from the stored
// settings on every call, so key or model changes apply without a restart.
package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"google.golang.org/api/option"

	"estudio/internal/adapter/gemini"
	"estudio/internal/adapter/openai"
	"estudio/internal/config"
	"estudio/internal/retrieval"
	"estudio/internal/settings"
)

type SettingsSource interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

type backend interface {
	retrieval.Embedder
	retrieval.Completer
}

type Options struct {
	OpenAIBaseURL string
	GeminiOptions []option.ClientOption
}

type Provider struct {
	settings SettingsSource
	opts     Options

	mu      sync.Mutex
	current backend
	key     settings.Settings
}

func NewProvider(set SettingsSource, opts Options) *Provider {
	return &Provider{settings: set, opts: opts}
}

func (p *Provider) Embed(ctx context.Context, text string) (retrieval.Vector, error) {
	b, err := p.backend(ctx)
	if err != nil {
		return nil, err
	}
	return b.Embed(ctx, text)
}

func (p *Provider) Complete(ctx context.Context, msgs []retrieval.Message) (string, error) {
	b, err := p.backend(ctx)
	if err != nil {
		return "", err
	}
	return b.Complete(ctx, msgs)
}

func (p *Provider) backend(ctx context.Context) (backend, error) {
	s, err := p.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	want := clientKey(s)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.key == want {
		return p.current, nil
	}

	next, err := p.build(ctx, want)
	if err != nil {
		return nil, err
	}

	if c, ok := p.current.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("failed to close previous llm client", "error", err)
		}
	}
	p.current = next
	p.key = want
	return next, nil
}

func (p *Provider) build(ctx context.Context, s settings.Settings) (backend, error) {
	switch s.Provider {
	case config.ProviderGemini:
		return gemini.NewClient(ctx, gemini.Options{
			APIKey:          s.APIKey(),
			EmbeddingModel:  s.EmbeddingModel,
			CompletionModel: s.CompletionModel,
		}, p.opts.GeminiOptions...)
	case config.ProviderOpenAI, "":
		return openai.NewClient(openai.Options{
			APIKey:          s.APIKey(),
			BaseURL:         p.opts.OpenAIBaseURL,
			EmbeddingModel:  s.EmbeddingModel,
			CompletionModel: s.CompletionModel,
		})
	}
	return nil, fmt.Errorf("unknown llm provider %q", s.Provider)
}

// clientKey keeps only the fields that require a new client.
func clientKey(s *settings.Settings) settings.Settings {
	return settings.Settings{
		Provider:        s.Provider,
		OpenAIAPIKey:    s.OpenAIAPIKey,
		GeminiAPIKey:    s.GeminiAPIKey,
		EmbeddingModel:  s.EmbeddingModel,
		CompletionModel: s.CompletionModel,
	}
}
