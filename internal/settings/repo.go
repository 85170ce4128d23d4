package settings

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Get(ctx context.Context) (*Settings, error) {
	s := &Settings{}
	query := `SELECT id, provider, openai_api_key, gemini_api_key, embedding_model, completion_model, chunk_max_tokens, chunk_cap FROM settings WHERE id = 1`
	err := r.db.QueryRowContext(ctx, query).Scan(&s.ID, &s.Provider, &s.OpenAIAPIKey, &s.GeminiAPIKey, &s.EmbeddingModel, &s.CompletionModel, &s.ChunkMaxTokens, &s.ChunkCap)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepo) Update(ctx context.Context, s *Settings) error {
	query := `
		UPDATE settings
		SET provider = $1, openai_api_key = $2, gemini_api_key = $3, embedding_model = $4, completion_model = $5, chunk_max_tokens = $6, chunk_cap = $7, updated_at = NOW()
		WHERE id = 1
	`
	_, err := r.db.ExecContext(ctx, query, s.Provider, s.OpenAIAPIKey, s.GeminiAPIKey, s.EmbeddingModel, s.CompletionModel, s.ChunkMaxTokens, s.ChunkCap)
	return err
}
