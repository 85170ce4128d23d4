package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"estudio/internal/middleware"
	"estudio/internal/settings"
	"estudio/internal/text"
)

const (
	DefaultMaxChunks   = 30
	DefaultCallTimeout = 60 * time.Second
)

type DocumentExtractor interface {
	Extract(path string) (text.Extraction, error)
}

type SettingsSource interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// Options are the fallbacks used when no settings row overrides them.
type Options struct {
	MaxTokens   int
	MaxChunks   int
	CallTimeout time.Duration
	Tokenizer   text.Tokenizer
}

type Answer struct {
	Text           string
	Document       string
	Question       string
	ChunkIndex     int
	ChunkText      string
	Score          float64
	ChunksTotal    int
	ChunksEmbedded int
	Warnings       []string
}

type Service struct {
	embedder  Embedder
	completer Completer
	extractor DocumentExtractor
	settings  SettingsSource
	logger    *QueryLogger
	opts      Options
}

func NewService(e Embedder, c Completer, x DocumentExtractor, set SettingsSource, l *QueryLogger, opts Options) *Service {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = text.DefaultMaxTokens
	}
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = DefaultMaxChunks
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = text.EstimateTokenizer{}
	}
	if x == nil {
		x = text.NewExtractor(false)
	}
	return &Service{embedder: e, completer: c, extractor: x, settings: set, logger: l, opts: opts}
}

// Ask answers question from the newest document in dir. Nothing is cached
// between calls: every question re-reads, re-chunks and re-embeds.
func (s *Service) Ask(ctx context.Context, dir, question string) (answer *Answer, err error) {
	start := time.Now()
	entry := QueryLogEntry{Question: question, ChunkIndex: -1}

	defer func() {
		if s.logger == nil {
			return
		}
		if err != nil {
			entry.Error = err.Error()
		}
		entry.Duration = time.Since(start)
		entry.CorrelationID = middleware.GetCorrelationID(ctx)
		s.logger.Log(entry)
	}()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	path, err := LatestDocument(dir)
	if err != nil {
		return nil, err
	}
	entry.Document = filepath.Base(path)

	ex, err := s.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", entry.Document, err)
	}
	entry.Degraded = ex.Degraded

	res := &Answer{Document: entry.Document, Question: question}
	if ex.Degraded {
		slog.WarnContext(ctx, "document extraction degraded", "document", entry.Document, "reason", ex.Reason())
		res.Warnings = append(res.Warnings, "El documento se leyó solo en parte: "+ex.Reason())
	}
	if strings.TrimSpace(ex.Text) == "" {
		return nil, ErrEmptyDocument
	}

	maxTokens, maxChunks := s.limits(ctx)
	chunks := text.NewChunker(maxTokens, s.opts.Tokenizer).Split(ex.Text)
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}
	res.ChunksTotal = len(chunks)
	entry.ChunksTotal = len(chunks)

	if len(chunks) > maxChunks {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("Solo se consideraron los primeros %d de %d fragmentos del documento.", maxChunks, len(chunks)))
		chunks = chunks[:maxChunks]
	}

	vectors := make([]Vector, 0, len(chunks))
	for _, c := range chunks {
		v, err := s.embed(ctx, c.Text)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c.Index, err)
		}
		vectors = append(vectors, v)
	}
	res.ChunksEmbedded = len(vectors)
	entry.ChunksEmbedded = len(vectors)

	qv, err := s.embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("question: %w", err)
	}

	match, err := Rank(vectors, qv)
	if err != nil {
		return nil, err
	}
	entry.ChunkIndex = match.Index
	entry.Score = match.Score

	top := chunks[match.Index]
	reply, err := s.complete(ctx, BuildPrompt(top.Text, question))
	if err != nil {
		return nil, err
	}

	res.Text = reply
	res.ChunkIndex = match.Index
	res.ChunkText = top.Text
	res.Score = match.Score
	return res, nil
}

func (s *Service) limits(ctx context.Context) (maxTokens, maxChunks int) {
	maxTokens, maxChunks = s.opts.MaxTokens, s.opts.MaxChunks
	if s.settings == nil {
		return
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to load settings, using defaults", "error", err)
		return
	}
	if cfg.ChunkMaxTokens > 0 {
		maxTokens = cfg.ChunkMaxTokens
	}
	if cfg.ChunkCap > 0 {
		maxChunks = cfg.ChunkCap
	}
	return
}

func (s *Service) embed(ctx context.Context, input string) (Vector, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	v, err := s.embedder.Embed(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingService, err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrEmbeddingService)
	}
	return v, nil
}

func (s *Service) complete(ctx context.Context, msgs []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	out, err := s.completer.Complete(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompletionService, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: empty response", ErrCompletionService)
	}
	return out, nil
}

