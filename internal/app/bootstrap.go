package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"briefly/internal/adapter/gemini"
	wstore "briefly/internal/adapter/weaviate"
	"briefly/internal/config"
	"briefly/internal/vecstore"
)

// Dependencies holds every external resource the app wires against. DB,
// NSQProducer, Embedder and the generators are nil when their backing
// service is not configured; the pipeline degrades instead of failing.
type Dependencies struct {
	DB          *sql.DB
	Store       vecstore.Store
	NSQProducer *nsq.Producer

	Embedder       *gemini.Embedder
	SmallGenerator *gemini.Generator
	MainGenerator  *gemini.Generator
}

// Close releases adapter connections. Safe on a partially built value.
func (d *Dependencies) Close() {
	if d.Embedder != nil {
		_ = d.Embedder.Close()
	}
	if d.SmallGenerator != nil {
		_ = d.SmallGenerator.Close()
	}
	if d.MainGenerator != nil {
		_ = d.MainGenerator.Close()
	}
	if d.NSQProducer != nil {
		d.NSQProducer.Stop()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}
	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second

	if cfg.StoreEnabled() {
		db, err := openDatabase(cfg, retryDelay)
		if err != nil {
			return nil, err
		}
		deps.DB = db
	} else {
		slog.Info("DB_HOST not set, persistence disabled")
	}

	store, err := openVectorStore(ctx, cfg, retryDelay)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Store = store

	if cfg.GeminiAPIKey != "" {
		embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("gemini embedder error: %w", err)
		}
		deps.Embedder = embedder

		small, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.ModelSmall)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("gemini generator error: %w", err)
		}
		deps.SmallGenerator = small

		mainGen, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.ModelMain)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("gemini generator error: %w", err)
		}
		deps.MainGenerator = mainGen
	} else {
		slog.Info("GEMINI_API_KEY not set, model-backed stages use local fallbacks")
	}

	if cfg.EventsEnabled() {
		producer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("nsq producer error: %w", err)
		}
		deps.NSQProducer = producer
	}

	return deps, nil
}

func openDatabase(cfg *config.Config, retryDelay time.Duration) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		_ = db.Close()
		return nil, fmt.Errorf("migration up error: %w", err)
	}
	slog.Info("migrations applied")

	return db, nil
}

func openVectorStore(ctx context.Context, cfg *config.Config, retryDelay time.Duration) (vecstore.Store, error) {
	switch cfg.VectorBackend {
	case "sqlite":
		store, err := vecstore.NewSQLiteStore(cfg.VectorDBPath)
		if err != nil {
			return nil, fmt.Errorf("sqlite vector store error: %w", err)
		}
		return store, nil

	case "weaviate":
		client, err := weaviate.NewClient(weaviate.Config{
			Host:   cfg.WeaviateHost,
			Scheme: cfg.WeaviateScheme,
		})
		if err != nil {
			return nil, fmt.Errorf("weaviate client error: %w", err)
		}
		store := wstore.NewStore(client)
		if err := ensureSchemaWithRetry(ctx, store, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
			return nil, fmt.Errorf("weaviate schema error: %w", err)
		}
		return store, nil

	default:
		return vecstore.NewMemoryStore(), nil
	}
}

func ensureSchemaWithRetry(ctx context.Context, store *wstore.Store, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = store.EnsureSchema(ctx); err == nil {
			return nil
		}
		if i < attempts-1 {
			slog.Warn("failed to ensure weaviate schema, retrying...", "attempt", i+1, "error", err)
			time.Sleep(delay)
		}
	}
	return err
}
