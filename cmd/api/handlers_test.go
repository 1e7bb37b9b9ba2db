package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AskStackAI/askstack/engine/domain"
	"github.com/AskStackAI/askstack/engine/rag"
	"github.com/AskStackAI/askstack/engine/search"
)

type mockQueryService struct {
	answer *rag.Answer
	err    error
	calls  int
	lastQ  domain.Query
}

func (m *mockQueryService) Query(_ context.Context, q domain.Query) (*rag.Answer, error) {
	m.calls++
	m.lastQ = q
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	h(rec, req)
	return rec
}

func TestRootEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	handleRoot(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	handleHealth(true)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" || resp["chat_ready"] != true {
		t.Errorf("unexpected health body: %v", resp)
	}
}

func TestQueryEndpoint_Success(t *testing.T) {
	svc := &mockQueryService{answer: &rag.Answer{
		Text:     "Refunds within 30 days.",
		Snippets: []string{"A", "A", "B"},
	}}
	rec := postJSON(t, handleQuery(svc, slog.Default()), "/query",
		`{"query":"What is the refund policy?","top_k":5}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.QueryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Answer != "Refunds within 30 days." {
		t.Errorf("unexpected answer %q", resp.Answer)
	}
	if len(resp.Sources) != 2 {
		t.Errorf("expected deduplicated sources, got %v", resp.Sources)
	}
	if svc.lastQ.TopK != 5 || svc.lastQ.Text != "What is the refund policy?" {
		t.Errorf("unexpected query passed to service: %+v", svc.lastQ)
	}
}

func TestQueryEndpoint_DefaultTopK(t *testing.T) {
	svc := &mockQueryService{answer: &rag.Answer{Text: "ok"}}
	rec := postJSON(t, handleQuery(svc, slog.Default()), "/query", `{"query":"x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastQ.TopK != domain.DefaultTopK {
		t.Errorf("expected default top_k, got %d", svc.lastQ.TopK)
	}
}

func TestQueryEndpoint_ValidationError(t *testing.T) {
	svc := &mockQueryService{err: domain.NewValidationError("top_k", "25", domain.ErrTopKOutOfRange)}
	rec := postJSON(t, handleQuery(svc, slog.Default()), "/query", `{"query":"x","top_k":25}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "top_k") {
		t.Errorf("detail should name the field: %s", rec.Body.String())
	}
}

func TestQueryEndpoint_ExplicitZeroTopKRejected(t *testing.T) {
	// An explicit 0 must reach the service as 0 so validation rejects it,
	// not silently become the default.
	svc := &mockQueryService{err: domain.NewValidationError("top_k", "0", domain.ErrTopKOutOfRange)}
	rec := postJSON(t, handleQuery(svc, slog.Default()), "/query", `{"query":"x","top_k":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.lastQ.TopK != 0 {
		t.Errorf("explicit 0 must be preserved, got %d", svc.lastQ.TopK)
	}
}

func TestQueryEndpoint_InvalidJSON(t *testing.T) {
	svc := &mockQueryService{}
	rec := postJSON(t, handleQuery(svc, slog.Default()), "/query", "not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Error("service must not be called for malformed bodies")
	}
}

func TestQueryEndpoint_UpstreamError(t *testing.T) {
	svc := &mockQueryService{err: &domain.UpstreamError{Service: "search", Message: "connection refused"}}
	rec := postJSON(t, handleQuery(svc, slog.Default()), "/query", `{"query":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("detail should mention the underlying failure: %s", rec.Body.String())
	}
}

func TestQueryEndpoint_NilService(t *testing.T) {
	rec := postJSON(t, handleQuery(nil, slog.Default()), "/query", `{"query":"x"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestChatEndpoint_Success(t *testing.T) {
	svc := &mockQueryService{answer: &rag.Answer{
		Text:     "the answer",
		Snippets: []string{"refund policy text"},
		Records: []search.Result{{Doc: search.Document{
			"chunk": json.RawMessage(`"refund policy text"`),
			"title": json.RawMessage(`"Refund Policy"`),
		}}},
	}}
	rec := postJSON(t, handleAPIChat(svc, "chunk", slog.Default()), "/api/chat",
		`{"messages":[{"role":"user","content":"What is the refund policy?"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp chatAPIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message.Role != domain.RoleAssistant || resp.Message.Content != "the answer" {
		t.Errorf("unexpected message: %+v", resp.Message)
	}
	if len(resp.Message.Citations) != 1 || resp.Message.Citations[0].Title != "Refund Policy" {
		t.Errorf("unexpected citations: %+v", resp.Message.Citations)
	}
	if svc.lastQ.Text != "What is the refund policy?" {
		t.Errorf("unexpected question: %q", svc.lastQ.Text)
	}
}

func TestChatEndpoint_NoUserMessage(t *testing.T) {
	svc := &mockQueryService{}
	rec := postJSON(t, handleAPIChat(svc, "chunk", slog.Default()), "/api/chat",
		`{"messages":[{"role":"system","content":"hello"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Error("pipeline must not run without a user message")
	}
}
