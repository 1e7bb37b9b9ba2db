package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AskStackAI/askstack/engine/domain"
	"github.com/AskStackAI/askstack/engine/rag"
)

// queryService is the slice of rag.Service the handlers need.
type queryService interface {
	Query(ctx context.Context, q domain.Query) (*rag.Answer, error)
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleHealth(chatReady bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"message":    "askstack RAG backend",
			"chat_ready": chatReady,
		})
	}
}

// queryRequest is the JSON body for POST /query. TopK is a pointer so an
// omitted value gets the default while an explicit 0 fails validation.
type queryRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k"`
}

func handleQuery(svc queryService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeDetail(w, http.StatusServiceUnavailable, "generator client not initialized")
			return
		}
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		q := domain.Query{Text: req.Query, TopK: domain.DefaultTopK}
		if req.TopK != nil {
			q.TopK = *req.TopK
		}

		ans, err := svc.Query(r.Context(), q)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.QueryResponse{
			Answer:  ans.Text,
			Sources: ans.Sources(),
		})
	}
}

// chatAPIRequest is the JSON body for POST /api/chat.
type chatAPIRequest struct {
	Messages []domain.Message `json:"messages"`
}

// chatAPIResponse mirrors the assistant-message shape with citations.
type chatAPIResponse struct {
	Message assistantMessage `json:"message"`
}

type assistantMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Citations []rag.Citation `json:"citations"`
}

func handleAPIChat(svc queryService, chunkField string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeDetail(w, http.StatusServiceUnavailable, "generator client not initialized")
			return
		}
		var req chatAPIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		question, err := domain.LastUserMessage(req.Messages)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		ans, err := svc.Query(r.Context(), domain.Query{Text: question, TopK: domain.DefaultTopK})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, chatAPIResponse{
			Message: assistantMessage{
				Role:      domain.RoleAssistant,
				Content:   ans.Text,
				Citations: ans.Citations(chunkField),
			},
		})
	}
}

type detailBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailBody{Detail: detail})
}

// writeError maps pipeline errors to the HTTP boundary: validation failures
// become 400s with the message verbatim, everything else a 500 with a
// best-effort detail string.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if domain.IsValidation(err) {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		logger.Error("upstream failure",
			"service", ue.Service, "status", ue.StatusCode, "err", ue.Message)
	} else {
		logger.Error("query failed", "err", err)
	}
	writeDetail(w, http.StatusInternalServerError,
		"An internal error occurred while processing your request: "+err.Error())
}
