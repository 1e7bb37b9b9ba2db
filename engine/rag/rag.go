// Package rag orchestrates the retrieval-augmented answer pipeline. It
// validates the query, retrieves ranked records from the document index,
// extracts context snippets, builds the fixed two-message prompt, calls the
// chat-completion service, and packages the answer with its sources.
package rag

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AskStackAI/askstack/engine/domain"
	"github.com/AskStackAI/askstack/engine/search"
	"github.com/AskStackAI/askstack/pkg/metrics"
)

// Retriever issues one search call against the document index.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) (*search.Results, error)
}

// Completer issues one chat-completion call.
type Completer interface {
	Complete(ctx context.Context, msgs []domain.Message, maxTokens int) (string, error)
}

const defaultSystemPrompt = "You are a helpful AI assistant. " +
	"Answer the user's question using the provided context. " +
	"If the context is not sufficient, politely say so."

// Options configures the pipeline behaviour.
type Options struct {
	ChunkField    string
	MaxTokens     int
	SystemPrompt  string
	SearchTimeout time.Duration
	ChatTimeout   time.Duration
	Registry      *metrics.Registry // optional
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		ChunkField:    "chunk",
		MaxTokens:     800,
		SystemPrompt:  defaultSystemPrompt,
		SearchTimeout: 10 * time.Second,
		ChatTimeout:   60 * time.Second,
	}
}

// Service runs the pipeline. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	retriever Retriever
	completer Completer
	opts      Options
	logger    *slog.Logger
}

// New creates a Service.
func New(retriever Retriever, completer Completer, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ChunkField == "" {
		opts.ChunkField = "chunk"
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}
	return &Service{retriever: retriever, completer: completer, opts: opts, logger: logger}
}

// Answer is the structured result of one pipeline run.
type Answer struct {
	Text     string
	Snippets []string        // extracted order, may contain duplicates
	Records  []search.Result // retrieved records, for citation building
}

// Sources returns the deduplicated snippet set for the response body. The
// order is unspecified by contract; first occurrence wins here.
func (a *Answer) Sources() []string {
	seen := make(map[string]bool, len(a.Snippets))
	out := make([]string, 0, len(a.Snippets))
	for _, s := range a.Snippets {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Query runs the full pipeline for one question. Retrieval strictly
// precedes generation; a retrieval failure means no chat call is made.
func (s *Service) Query(ctx context.Context, q domain.Query) (*Answer, error) {
	if err := domain.ValidateQuery(q); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("askstack/rag").Start(ctx, "rag.query")
	defer span.End()
	span.SetAttributes(
		attribute.Int("rag.top_k", q.TopK),
		attribute.Int("rag.query_len", len(q.Text)),
	)

	s.logger.Info("query received", "query_len", len(q.Text), "top_k", q.TopK)

	searchCtx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	start := time.Now()
	results, err := s.retriever.Search(searchCtx, q.Text, q.TopK)
	s.observe("search", err, start)
	if err != nil {
		return nil, err
	}
	s.logger.Info("retrieval done",
		"records", len(results.Records), "answers", len(results.Answers))

	snippets := ExtractSnippets(results, s.opts.ChunkField, s.logger)
	msgs := BuildMessages(JoinContext(snippets), q.Text, s.opts.SystemPrompt)

	chatCtx, cancelChat := context.WithTimeout(ctx, s.opts.ChatTimeout)
	defer cancelChat()

	start = time.Now()
	text, err := s.completer.Complete(chatCtx, msgs, s.opts.MaxTokens)
	s.observe("chat", err, start)
	if err != nil {
		return nil, err
	}

	return &Answer{Text: text, Snippets: snippets, Records: results.Records}, nil
}

func (s *Service) observe(service string, err error, start time.Time) {
	if s.opts.Registry == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.opts.Registry.Histogram(
		metrics.WithLabels("upstream_latency_seconds", "service", service, "outcome", outcome),
		"Upstream call latency by service and outcome", nil,
	).Since(start)
}
