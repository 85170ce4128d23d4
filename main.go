package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"estudio/internal/adapter/llm"
	"estudio/internal/app"
	"estudio/internal/config"
	"estudio/internal/logger"
	"estudio/internal/text"
)

func main() {
	slog.SetDefault(logger.New(os.Stdout, slog.LevelInfo))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Database & migrations
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("failed to bootstrap", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()

	// 2. Tokenizer
	var tok text.Tokenizer
	if tk, err := text.NewTiktokenTokenizer(text.DefaultEncoding); err != nil {
		slog.Warn("tiktoken unavailable, estimating tokens from length", "error", err)
		tok = text.EstimateTokenizer{}
	} else {
		tok = tk
	}

	// 3. Application
	application, err := app.New(ctx, cfg, deps.DB, app.Options{
		Tokenizer: tok,
		LLM:       llm.Options{OpenAIBaseURL: cfg.OpenAIBaseURL},
	})
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
