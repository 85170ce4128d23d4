package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	// DatabaseURL takes precedence over the discrete DB_* keys.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"postgres"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"estudio"`
	DBPass      string `envconfig:"DB_PASS" default:"password"`
	DBName      string `envconfig:"DB_NAME" default:"estudio"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`

	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Server
	ServerPort      int    `envconfig:"SERVER_PORT" default:"8080"`
	SessionSecret   string `envconfig:"SESSION_SECRET" default:"clave"`
	MaxUploadSizeMB int64  `envconfig:"MAX_UPLOAD_SIZE_MB" default:"50"`
	StaticDir       string `envconfig:"STATIC_DIR" default:"static"`
	QueryLogPath    string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	// Question answering
	LLMProvider           string `envconfig:"LLM_PROVIDER" default:"openai"`
	OpenAIAPIKey          string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL         string `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel        string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`
	CompletionModel       string `envconfig:"COMPLETION_MODEL" default:"gpt-3.5-turbo"`
	GeminiAPIKey          string `envconfig:"GEMINI_API_KEY"`
	GeminiEmbeddingModel  string `envconfig:"GEMINI_EMBEDDING_MODEL" default:"gemini-embedding-001"`
	GeminiCompletionModel string `envconfig:"GEMINI_COMPLETION_MODEL" default:"gemini-1.5-flash"`
	ChunkMaxTokens        int    `envconfig:"CHUNK_MAX_TOKENS" default:"500"`
	ChunkCap              int    `envconfig:"CHUNK_CAP" default:"30"`
	LLMTimeoutSeconds     int    `envconfig:"LLM_TIMEOUT_SECONDS" default:"30"`
	StrictExtraction      bool   `envconfig:"STRICT_EXTRACTION" default:"false"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may already be set by the platform; a missing .env is fine.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	_ = godotenv.Load(filepath.Join(cwd, "../.env"))

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		if c.DBHost == "" {
			return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
		}
		if c.DBUser == "" {
			return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
		}
		if c.DBName == "" {
			return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
		}
	}
	if c.ChunkMaxTokens <= 0 {
		return fmt.Errorf("%w: CHUNK_MAX_TOKENS must be positive", ErrInvalidValue)
	}
	if c.ChunkCap <= 0 {
		return fmt.Errorf("%w: CHUNK_CAP must be positive", ErrInvalidValue)
	}
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("%w: LLM_PROVIDER %q", ErrInvalidValue, c.LLMProvider)
	}
	return nil
}

// DSN returns the connection string handed to lib/pq.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return NormalizeDatabaseURL(c.DatabaseURL)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName, c.DBSSLMode)
}

// NormalizeDatabaseURL rewrites the legacy postgres:// scheme and forces TLS
// unless the URL already states an sslmode.
func NormalizeDatabaseURL(raw string) string {
	u := raw
	if strings.HasPrefix(u, "postgres://") {
		u = "postgresql://" + strings.TrimPrefix(u, "postgres://")
	}
	if strings.Contains(u, "sslmode=") {
		return u
	}
	if strings.Contains(u, "?") {
		return u + "&sslmode=require"
	}
	return u + "?sslmode=require"
}

func (c *Config) IADir() string         { return filepath.Join(c.StaticDir, "ia") }
func (c *Config) FormatosDir() string   { return filepath.Join(c.StaticDir, "formatos") }
func (c *Config) DocumentosDir() string { return filepath.Join(c.StaticDir, "documentos") }

// RedactedDSN hides the password for logging.
func (c *Config) RedactedDSN() string {
	if c.DatabaseURL == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s", c.DBHost, c.DBPort, c.DBUser, c.DBName)
	}
	u, err := url.Parse(NormalizeDatabaseURL(c.DatabaseURL))
	if err != nil {
		return "<unparseable DATABASE_URL>"
	}
	return u.Redacted()
}
