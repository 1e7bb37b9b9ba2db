// Package main implements the askstack API server: a thin RAG backend that
// retrieves context snippets from a hosted search index and answers queries
// through a hosted chat-completion service.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/AskStackAI/askstack/engine/chat"
	"github.com/AskStackAI/askstack/engine/rag"
	"github.com/AskStackAI/askstack/engine/search"
	"github.com/AskStackAI/askstack/pkg/cred"
	"github.com/AskStackAI/askstack/pkg/metrics"
	"github.com/AskStackAI/askstack/pkg/mid"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()

	// --- Search index client ---
	searchClient := search.NewClient(search.Options{
		Endpoint:       cfg.SearchEndpoint,
		Index:          cfg.SearchIndex,
		Credential:     cred.NewHeaderKey("api-key", cfg.SearchAPIKey),
		SemanticConfig: cfg.SemanticConfig,
		AnswerCount:    cfg.AnswerCount,
		Logger:         logger,
	})
	logger.Info("search client ready",
		"index", cfg.SearchIndex, "mode", string(searchClient.Mode()))

	// --- Chat-completion client ---
	chatClient := chat.NewClient(chat.Options{
		Endpoint:   cfg.ChatEndpoint,
		APIVersion: cfg.ChatAPIVersion,
		Model:      cfg.ChatModel,
		Credential: chatCredential(cfg),
		Logger:     logger,
	})
	logger.Info("chat client ready", "model", cfg.ChatModel)

	// --- Pipeline service ---
	opts := rag.DefaultOptions()
	opts.ChunkField = cfg.SearchChunkField
	opts.MaxTokens = cfg.ChatMaxTokens
	opts.Registry = reg
	ragSvc := rag.New(searchClient, chatClient, opts, logger)

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handleRoot)
	mux.HandleFunc("GET /health", handleHealth(chatClient != nil))
	mux.Handle("GET /metrics", reg.Handler())
	mux.HandleFunc("POST /query", handleQuery(ragSvc, logger))
	mux.HandleFunc("POST /api/chat", handleAPIChat(ragSvc, cfg.SearchChunkField, logger))

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.Metrics(reg),
		mid.CORS(cfg.CORSOrigin),
		mid.RateLimit(limiter),
		mid.OTel("askstack-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// chatCredential picks between a static header key and the bearer-token
// supplier, mirroring the key vs managed-identity split of the service.
func chatCredential(cfg Config) cred.Supplier {
	if cfg.ChatAPIKey != "" {
		return cred.NewHeaderKey("api-key", cfg.ChatAPIKey)
	}
	return cred.StaticToken(cfg.ChatBearerToken)
}
