package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"knowledgehub/features/document"
	"knowledgehub/features/query"
	"knowledgehub/internal/adapter/gemini"
	"knowledgehub/internal/adapter/reranker"
	"knowledgehub/internal/config"
	"knowledgehub/internal/extract"
	"knowledgehub/internal/middleware"
	"knowledgehub/internal/retrieval"
	"knowledgehub/internal/summarize"
	"knowledgehub/internal/throttle"
)

type App struct {
	Handler http.Handler
	port    int
}

// New wires the ingestion and retrieval services from the bootstrapped
// dependencies. All collaborators are injected here; nothing reads config or
// globals below this point.
func New(cfg *config.Config, deps *Dependencies) (*App, error) {
	embedder := gemini.NewEmbedder(deps.Gemini, cfg.EmbeddingModel, cfg.EmbeddingDim)
	llm := gemini.NewLLM(deps.Gemini, cfg.GenerationModel)

	pacer := throttle.New(time.Duration(cfg.SummaryPacingMs) * time.Millisecond)
	summarizer := summarize.New(llm, pacer, cfg.SummaryChunkSize, cfg.SummarySynthesizeFinal)
	extractor := extract.NewExtractor(llm)

	// Feature: Document ingestion
	docRepo := document.NewPostgresRepo(deps.DB)
	docService := document.NewService(
		docRepo, deps.Store, deps.Store, deps.Graph,
		embedder, summarizer, extractor,
		cfg.IndexChunkSize, cfg.RetryAttempts,
	)
	docHandler := document.NewHandler(docService)

	// Feature: Query
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	rerankerClient := reranker.NewClient(cfg.RerankProvider, cfg.RerankAPIKey)
	retrievalService := retrieval.NewService(
		embedder, deps.Store, deps.Graph, llm, rerankerClient,
		cfg.Mode(), cfg.SearchAlpha, cfg.SearchTopK, queryLogger,
	)
	queryHandler := query.NewHandler(retrievalService)

	// Middleware: CORS
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

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /documents", middleware.CorrelationID(enableCORS(docHandler.Create)))
	mux.Handle("POST /documents/graph", middleware.CorrelationID(enableCORS(docHandler.CreateGraph)))
	mux.Handle("GET /documents", middleware.CorrelationID(enableCORS(docHandler.List)))
	mux.Handle("GET /documents/{id}", middleware.CorrelationID(enableCORS(docHandler.Get)))

	mux.Handle("GET /search/fulltext", middleware.CorrelationID(enableCORS(queryHandler.FullText)))
	mux.Handle("GET /search/semantic", middleware.CorrelationID(enableCORS(queryHandler.Semantic)))
	mux.Handle("GET /search/graph", middleware.CorrelationID(enableCORS(queryHandler.Graph)))
	mux.Handle("POST /ask", middleware.CorrelationID(enableCORS(queryHandler.Ask)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{Handler: mux, port: cfg.ServerPort}, nil
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
