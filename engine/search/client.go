// Package search implements the REST client for the hosted document index.
// It supports plain full-text retrieval and a semantic mode that also
// requests extractive answers and per-document captions. Ranking, retries,
// and relevance scoring all happen inside the index service.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AskStackAI/askstack/engine/domain"
	"github.com/AskStackAI/askstack/pkg/cred"
)

const apiVersion = "2023-11-01"

// Mode selects the retrieval strategy.
type Mode string

const (
	ModePlain    Mode = "plain"    // service-default full-text ranking
	ModeSemantic Mode = "semantic" // semantic ranking + extractive answers/captions
)

// Options configures a Client.
type Options struct {
	Endpoint       string
	Index          string
	Credential     cred.Supplier
	SemanticConfig string // enables ModeSemantic when non-empty
	AnswerCount    int    // extractive answers requested in semantic mode
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client issues search calls against one index. Safe for concurrent use.
type Client struct {
	endpoint string
	index    string
	cred     cred.Supplier
	mode     Mode
	semCfg   string
	answers  int
	client   *http.Client
	logger   *slog.Logger
}

// NewClient creates a search Client from validated options.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mode := ModePlain
	if opts.SemanticConfig != "" {
		mode = ModeSemantic
	}
	answers := opts.AnswerCount
	if answers <= 0 {
		answers = 3
	}
	return &Client{
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		index:    opts.Index,
		cred:     opts.Credential,
		mode:     mode,
		semCfg:   opts.SemanticConfig,
		answers:  answers,
		client:   hc,
		logger:   logger,
	}
}

// Mode reports the configured retrieval mode.
func (c *Client) Mode() Mode { return c.mode }

type searchRequest struct {
	Search                string `json:"search"`
	Top                   int    `json:"top"`
	QueryType             string `json:"queryType,omitempty"`
	SemanticConfiguration string `json:"semanticConfiguration,omitempty"`
	Answers               string `json:"answers,omitempty"`
	Captions              string `json:"captions,omitempty"`
}

type searchResponse struct {
	Value   []Document `json:"value"`
	Answers []Answer   `json:"@search.answers"`
}

// Search issues a single retrieval call. limit must already be validated.
func (c *Client) Search(ctx context.Context, query string, limit int) (*Results, error) {
	body := searchRequest{Search: query, Top: limit}
	if c.mode == ModeSemantic {
		body.QueryType = "semantic"
		body.SemanticConfiguration = c.semCfg
		body.Answers = fmt.Sprintf("extractive|count-%d", c.answers)
		body.Captions = "extractive"
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &domain.UpstreamError{Service: "search", Message: "encode request: " + err.Error()}
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, c.index, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.UpstreamError{Service: "search", Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.cred.Apply(ctx, req); err != nil {
		return nil, &domain.UpstreamError{Service: "search", Message: "credential: " + err.Error()}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Service: "search", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{
			Service:    "search",
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(resp.Body),
		}
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &domain.UpstreamError{Service: "search", Message: "decode response: " + err.Error()}
	}

	results := &Results{
		Answers: out.Answers,
		Records: make([]Result, 0, len(out.Value)),
	}
	for _, doc := range out.Value {
		rec := Result{Doc: doc}
		if raw, ok := doc["@search.captions"]; ok {
			if err := json.Unmarshal(raw, &rec.Captions); err != nil {
				c.logger.Warn("search: undecodable captions, ignoring", "err", err)
			}
			delete(doc, "@search.captions")
		}
		if raw, ok := doc["@search.score"]; ok {
			_ = json.Unmarshal(raw, &rec.Score)
			delete(doc, "@search.score")
		}
		results.Records = append(results.Records, rec)
	}
	return results, nil
}

// upstreamMessage extracts a human-readable detail from an error response
// body without exposing the raw payload on decode failure.
func upstreamMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return "unreadable error body"
	}
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return "no error detail"
	}
	return msg
}
