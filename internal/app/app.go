// Package app assembles the configured dependencies into the HTTP service:
// adapters, pipeline services, feature handlers, routes.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"briefly/features/brief"
	"briefly/features/research"
	"briefly/features/stats"
	"briefly/internal/adapter/wikipedia"
	"briefly/internal/config"
	"briefly/internal/events"
	"briefly/internal/ingest"
	"briefly/internal/middleware"
	"briefly/internal/quiz"
	"briefly/internal/retrieval"
	"briefly/internal/synthesis"
)

type App struct {
	Handler  http.Handler
	Research *research.Service

	port int
}

func New(cfg *config.Config, deps *Dependencies) (*App, error) {
	// Interface slots stay untyped-nil when the adapter is absent, so the
	// services' nil checks behave.
	var (
		queryEmbedder retrieval.Embedder
		batchEmbedder ingest.BatchEmbedder
		smallChat     quiz.ChatModel
		mainChat      synthesis.Generator
	)
	if deps.Embedder != nil {
		queryEmbedder = deps.Embedder
		batchEmbedder = deps.Embedder
	}
	if deps.SmallGenerator != nil {
		smallChat = deps.SmallGenerator
	}
	if deps.MainGenerator != nil {
		mainChat = deps.MainGenerator
	}

	wiki := wikipedia.NewClient(
		wikipedia.WithAPIURL(cfg.WikiAPIURL),
		wikipedia.WithRateLimit(cfg.WikiRatePerSecond),
		wikipedia.WithRetry(cfg.FetchRetryAttempts, time.Duration(cfg.FetchRetryDelayMillis)*time.Millisecond),
		wikipedia.WithMaxPageChars(cfg.MaxPageChars),
	)

	ingestor := ingest.New(wiki, batchEmbedder, deps.Store,
		ingest.WithChunking(cfg.ChunkWindow, cfg.ChunkOverlap),
		ingest.WithEmbedRetry(cfg.FetchRetryAttempts, time.Duration(cfg.FetchRetryDelayMillis)*time.Millisecond),
	)

	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(queryEmbedder, deps.Store, queryLogger)

	synthesizer := synthesis.New(retrievalService, mainChat,
		synthesis.WithTopK(cfg.RetrieveTopK),
		synthesis.WithContextBudget(cfg.ContextBudget),
		synthesis.WithCitationCap(cfg.CitationLimit),
	)

	quizzes := quiz.New(smallChat)
	publisher := events.NewPublisher(deps.NSQProducer)

	var (
		repo         brief.Repository
		topicCounter stats.TopicRepo
	)
	if deps.DB != nil {
		pg := brief.NewPostgresRepo(deps.DB)
		repo = pg
		topicCounter = pg
	}

	researchService := research.NewService(ingestor, synthesizer, quizzes, deps.Store,
		repo, publisher, cfg.PerQueryLimit, cfg.QuizSize)
	researchHandler := research.NewHandler(researchService)
	briefHandler := brief.NewHandler(repo)
	statsHandler := stats.NewHandler(topicCounter, deps.Store)

	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("POST /research", middleware.CorrelationID(enableCORS(researchHandler.Run)))
	mux.Handle("GET /briefs/{id}", middleware.CorrelationID(enableCORS(briefHandler.GetBrief)))
	mux.Handle("GET /topics", middleware.CorrelationID(enableCORS(briefHandler.ListTopics)))
	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:  mux,
		Research: researchService,
		port:     cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
