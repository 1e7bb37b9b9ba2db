package domain

import (
	"errors"
	"testing"
)

func TestValidateQuery_TopKBounds(t *testing.T) {
	for k := 1; k <= 20; k++ {
		if err := ValidateQuery(Query{Text: "what is the refund policy?", TopK: k}); err != nil {
			t.Errorf("top_k=%d: unexpected error: %v", k, err)
		}
	}
	for _, k := range []int{-1, 0, 21, 25, 100} {
		err := ValidateQuery(Query{Text: "what is the refund policy?", TopK: k})
		if !errors.Is(err, ErrTopKOutOfRange) {
			t.Errorf("top_k=%d: expected ErrTopKOutOfRange, got %v", k, err)
		}
		if !IsValidation(err) {
			t.Errorf("top_k=%d: expected a validation error", k)
		}
	}
}

func TestValidateQuery_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		err := ValidateQuery(Query{Text: text, TopK: 5})
		if !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("text=%q: expected ErrEmptyQuery, got %v", text, err)
		}
	}
}

func TestLastUserMessage(t *testing.T) {
	msgs := []Message{
		{Role: RoleSystem, Content: "be helpful"},
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
		{Role: RoleUser, Content: "second question"},
	}
	got, err := LastUserMessage(msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "second question" {
		t.Errorf("expected most recent user message, got %q", got)
	}
}

func TestLastUserMessage_NoUserRole(t *testing.T) {
	_, err := LastUserMessage([]Message{{Role: RoleSystem, Content: "x"}})
	if !errors.Is(err, ErrNoUserMessage) {
		t.Errorf("expected ErrNoUserMessage, got %v", err)
	}
	_, err = LastUserMessage(nil)
	if !errors.Is(err, ErrNoUserMessage) {
		t.Errorf("expected ErrNoUserMessage for empty list, got %v", err)
	}
}

func TestLastUserMessage_BadRole(t *testing.T) {
	_, err := LastUserMessage([]Message{{Role: "tool", Content: "x"}})
	if !errors.Is(err, ErrUnknownRole) {
		t.Errorf("expected ErrUnknownRole, got %v", err)
	}
}

func TestLastUserMessage_EmptyContent(t *testing.T) {
	_, err := LastUserMessage([]Message{{Role: RoleUser, Content: "  "}})
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	err := NewValidationError("top_k", "25", ErrTopKOutOfRange)
	if !errors.Is(err, ErrTopKOutOfRange) {
		t.Error("expected wrapped sentinel to be reachable via errors.Is")
	}
}
