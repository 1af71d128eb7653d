package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	// Optional hosted store. Leaving DB_HOST empty disables persistence;
	// the pipeline result is unaffected.
	DBHost string `envconfig:"DB_HOST" default:""`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"briefly"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"briefly"`

	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Models. An empty GEMINI_API_KEY puts every model-backed stage on its
	// local fallback path instead of failing the run.
	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	ModelSmall     string `envconfig:"MODEL_SMALL" default:"gemini-2.0-flash"`
	ModelMain      string `envconfig:"MODEL_MAIN" default:"gemini-1.5-pro"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`

	// Vector store backend: memory, sqlite or weaviate.
	VectorBackend  string `envconfig:"VECTOR_BACKEND" default:"memory"`
	VectorDBPath   string `envconfig:"VECTOR_DB_PATH" default:"data/vectors.db"`
	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	// Search/content provider.
	WikiAPIURL        string  `envconfig:"WIKI_API_URL" default:"https://en.wikipedia.org/w/api.php"`
	WikiRatePerSecond float64 `envconfig:"WIKI_RATE_PER_SECOND" default:"5"`
	MaxPageChars      int     `envconfig:"MAX_PAGE_CHARS" default:"4000"`

	// Pipeline knobs.
	ChunkWindow   int `envconfig:"CHUNK_WINDOW" default:"800"`
	ChunkOverlap  int `envconfig:"CHUNK_OVERLAP" default:"120"`
	RetrieveTopK  int `envconfig:"RETRIEVE_TOP_K" default:"15"`
	ContextBudget int `envconfig:"CONTEXT_BUDGET" default:"12000"`
	CitationLimit int `envconfig:"CITATION_LIMIT" default:"5"`
	QuizSize      int `envconfig:"QUIZ_SIZE" default:"5"`
	PerQueryLimit int `envconfig:"PER_QUERY_LIMIT" default:"1"`

	// Optional event bus. Empty NSQD_HOST disables publishing.
	NSQDHost string `envconfig:"NSQD_HOST" default:""`

	// Server
	ServerPort   int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
	FetchRetryAttempts         int `envconfig:"FETCH_RETRY_ATTEMPTS" default:"3"`
	FetchRetryDelayMillis      int `envconfig:"FETCH_RETRY_DELAY_MILLIS" default:"800"`
}

func Load() (*Config, error) {
	// Env vars may also be set in the shell, so a missing .env is fine.
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
	switch c.VectorBackend {
	case "memory", "sqlite", "weaviate":
	default:
		return fmt.Errorf("%w: VECTOR_BACKEND must be memory, sqlite or weaviate", ErrMissingRequired)
	}
	if c.ChunkOverlap >= c.ChunkWindow {
		return fmt.Errorf("%w: CHUNK_OVERLAP must be smaller than CHUNK_WINDOW", ErrMissingRequired)
	}
	if c.StoreEnabled() {
		if c.DBUser == "" {
			return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
		}
		if c.DBName == "" {
			return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
		}
	}
	return nil
}

// StoreEnabled reports whether the optional hosted store is configured.
func (c *Config) StoreEnabled() bool {
	return c.DBHost != ""
}

// EventsEnabled reports whether the run-completed event bus is configured.
func (c *Config) EventsEnabled() bool {
	return c.NSQDHost != ""
}
