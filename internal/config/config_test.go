package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estudio/internal/config"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "test-host", cfg.DBHost)
	assert.Equal(t, 500, cfg.ChunkMaxTokens)
	assert.Equal(t, 30, cfg.ChunkCap)
	assert.Equal(t, "text-embedding-ada-002", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-3.5-turbo", cfg.CompletionModel)
	assert.Equal(t, config.ProviderOpenAI, cfg.LLMProvider)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	err := os.WriteFile(".env", []byte("DB_HOST=loaded-from-file"), 0o644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "loaded-from-file", cfg.DBHost)
	// godotenv.Load sets the process env; keep later tests clean.
	os.Unsetenv("DB_HOST")
}

func TestLoadConfig_QuestionAnswering(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("CHUNK_CAP", "12")
	t.Setenv("STRICT_EXTRACTION", "true")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, 12, cfg.ChunkCap)
	assert.True(t, cfg.StrictExtraction)
}

func TestLoadConfig_InvalidProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "bedrock")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

func TestNormalizeDatabaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@h:5432/db", "postgresql://u:p@h:5432/db?sslmode=require"},
		{"postgresql://u:p@h/db?connect_timeout=5", "postgresql://u:p@h/db?connect_timeout=5&sslmode=require"},
		{"postgres://u:p@h/db?sslmode=disable", "postgresql://u:p@h/db?sslmode=disable"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, config.NormalizeDatabaseURL(tt.in))
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := config.Config{DBHost: "h", DBPort: 5432, DBUser: "u", DBPass: "p", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", cfg.DSN())

	cfg.DatabaseURL = "postgres://u:secret@h/d"
	assert.Equal(t, "postgresql://u:secret@h/d?sslmode=require", cfg.DSN())
	assert.NotContains(t, cfg.RedactedDSN(), "secret")
}

func TestConfig_Dirs(t *testing.T) {
	cfg := config.Config{StaticDir: "static"}
	assert.Equal(t, "static/ia", cfg.IADir())
	assert.Equal(t, "static/formatos", cfg.FormatosDir())
	assert.Equal(t, "static/documentos", cfg.DocumentosDir())
}
