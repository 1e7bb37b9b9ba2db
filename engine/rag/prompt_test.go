package rag

import (
	"strings"
	"testing"

	"github.com/AskStackAI/askstack/engine/domain"
)

func TestBuildMessages_Shape(t *testing.T) {
	msgs := BuildMessages("ctx block", "the question", "system text")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != domain.RoleSystem || msgs[0].Content != "system text" {
		t.Errorf("unexpected system message: %+v", msgs[0])
	}
	if msgs[1].Role != domain.RoleUser {
		t.Errorf("expected user role, got %s", msgs[1].Role)
	}
}

func TestBuildMessages_ContainsQueryAndContext(t *testing.T) {
	query := "What is the refund policy?"
	ctx := "A\n\n---\n\nB"
	msgs := BuildMessages(ctx, query, "sys")
	user := msgs[1].Content
	if !strings.Contains(user, query) {
		t.Error("user message must contain the literal query text")
	}
	if !strings.Contains(user, ctx) {
		t.Error("user message must contain the full context block")
	}
	if !strings.Contains(user, "Context:\n") || !strings.Contains(user, "Question: ") {
		t.Errorf("template drifted: %q", user)
	}
	if !strings.HasSuffix(user, "Answer:") {
		t.Errorf("user message must end with the answer cue: %q", user)
	}
}

func TestBuildMessages_QueryNotTruncated(t *testing.T) {
	long := strings.Repeat("why? ", 500)
	msgs := BuildMessages(FallbackContext, long, "sys")
	if !strings.Contains(msgs[1].Content, long) {
		t.Error("long query text must be embedded unmodified")
	}
}
