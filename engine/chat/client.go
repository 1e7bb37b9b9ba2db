// Package chat implements the REST client for the hosted chat-completion
// service (deployments-style OpenAI API). One call in, one answer out; the
// model internals stay on the other side of the wire.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AskStackAI/askstack/engine/domain"
	"github.com/AskStackAI/askstack/pkg/cred"
)

// NoResponsePlaceholder is returned when the service yields zero choices.
const NoResponsePlaceholder = "No response received from the model."

// DefaultMaxTokens caps the completion length when the caller passes none.
const DefaultMaxTokens = 800

// Options configures a Client.
type Options struct {
	Endpoint   string
	APIVersion string
	Model      string // deployment name
	Credential cred.Supplier
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client issues chat-completion calls. Safe for concurrent use.
type Client struct {
	endpoint   string
	apiVersion string
	model      string
	cred       cred.Supplier
	client     *http.Client
	logger     *slog.Logger
}

// NewClient creates a chat Client from validated options.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout:   90 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:   strings.TrimRight(opts.Endpoint, "/"),
		apiVersion: opts.APIVersion,
		model:      opts.Model,
		cred:       opts.Credential,
		client:     hc,
		logger:     logger,
	}
}

// Model reports the configured deployment name.
func (c *Client) Model() string { return c.model }

type completionRequest struct {
	Messages  []domain.Message `json:"messages"`
	MaxTokens int              `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message domain.Message `json:"message"`
	} `json:"choices"`
}

// Complete issues exactly one chat-completion call and returns the trimmed
// text of the first choice. An empty choices list is not an error; the
// fixed placeholder is substituted instead.
func (c *Client) Complete(ctx context.Context, msgs []domain.Message, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	payload, err := json.Marshal(completionRequest{Messages: msgs, MaxTokens: maxTokens})
	if err != nil {
		return "", &domain.UpstreamError{Service: "chat", Message: "encode request: " + err.Error()}
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, url.PathEscape(c.model), url.QueryEscape(c.apiVersion))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &domain.UpstreamError{Service: "chat", Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.cred.Apply(ctx, req); err != nil {
		return "", &domain.UpstreamError{Service: "chat", Message: "credential: " + err.Error()}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &domain.UpstreamError{Service: "chat", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &domain.UpstreamError{
			Service:    "chat",
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(resp.Body),
		}
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &domain.UpstreamError{Service: "chat", Message: "decode response: " + err.Error()}
	}
	if len(out.Choices) == 0 {
		c.logger.Warn("chat: completion returned no choices")
		return NoResponsePlaceholder, nil
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// upstreamMessage extracts a human-readable detail from an error response
// body. Credentials never appear in response bodies, so passing the detail
// through is safe.
func upstreamMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return "unreadable error body"
	}
	var e struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Error.Message != "" {
		if e.Error.Code != "" {
			return e.Error.Code + ": " + e.Error.Message
		}
		return e.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return "no error detail"
	}
	return msg
}
