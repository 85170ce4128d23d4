package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"estudio/internal/forms"
)

var ErrInvalidSettings = errors.New("invalid settings")

const maskPrefix = "****"

// Settings tune the question-answering pipeline at runtime.
type Settings struct {
	ID              int    `json:"-"`
	Provider        string `json:"provider" form:"provider" validate:"oneof=openai gemini"`
	OpenAIAPIKey    string `json:"openai_api_key"`
	GeminiAPIKey    string `json:"gemini_api_key"`
	EmbeddingModel  string `json:"embedding_model" form:"embedding_model" validate:"required,max=100"`
	CompletionModel string `json:"completion_model" form:"completion_model" validate:"required,max=100"`
	ChunkMaxTokens  int    `json:"chunk_max_tokens" form:"chunk_max_tokens" validate:"min=1,max=8000"`
	ChunkCap        int    `json:"chunk_cap" form:"chunk_cap" validate:"min=1,max=500"`
}

// APIKey returns the key of the active provider.
func (s *Settings) APIKey() string {
	if s.Provider == "gemini" {
		return s.GeminiAPIKey
	}
	return s.OpenAIAPIKey
}

// Masked hides all but the last four characters of each key.
func (s Settings) Masked() Settings {
	s.OpenAIAPIKey = mask(s.OpenAIAPIKey)
	s.GeminiAPIKey = mask(s.GeminiAPIKey)
	return s
}

func mask(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return maskPrefix
	}
	return maskPrefix + key[len(key)-4:]
}

func isMasked(key string) bool { return strings.HasPrefix(key, maskPrefix) }

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	return s.repo.Get(ctx)
}

// Update keeps the stored keys when the caller echoes back a masked value
// or leaves them blank.
func (s *Service) Update(ctx context.Context, set *Settings) error {
	if err := forms.Validate(set); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	if set.OpenAIAPIKey == "" || isMasked(set.OpenAIAPIKey) || set.GeminiAPIKey == "" || isMasked(set.GeminiAPIKey) {
		current, err := s.repo.Get(ctx)
		if err != nil {
			return err
		}
		if set.OpenAIAPIKey == "" || isMasked(set.OpenAIAPIKey) {
			set.OpenAIAPIKey = current.OpenAIAPIKey
		}
		if set.GeminiAPIKey == "" || isMasked(set.GeminiAPIKey) {
			set.GeminiAPIKey = current.GeminiAPIKey
		}
	}
	return s.repo.Update(ctx, set)
}

// Seed fills blank stored values from defaults, typically the environment.
func (s *Service) Seed(ctx context.Context, defaults Settings) error {
	current, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}

	changed := false
	fill := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
			changed = true
		}
	}
	fill(&current.Provider, defaults.Provider)
	fill(&current.OpenAIAPIKey, defaults.OpenAIAPIKey)
	fill(&current.GeminiAPIKey, defaults.GeminiAPIKey)
	fill(&current.EmbeddingModel, defaults.EmbeddingModel)
	fill(&current.CompletionModel, defaults.CompletionModel)
	if current.ChunkMaxTokens <= 0 && defaults.ChunkMaxTokens > 0 {
		current.ChunkMaxTokens = defaults.ChunkMaxTokens
		changed = true
	}
	if current.ChunkCap <= 0 && defaults.ChunkCap > 0 {
		current.ChunkCap = defaults.ChunkCap
		changed = true
	}

	if !changed {
		return nil
	}
	return s.repo.Update(ctx, current)
}
