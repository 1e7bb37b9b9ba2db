package domain

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// A single Validate instance caches struct metadata and is safe for
// concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

var validRoles = map[string]bool{
	RoleSystem: true, RoleUser: true, RoleAssistant: true,
}

// ValidateQuery bounds-checks a query. Must pass before any upstream call.
func ValidateQuery(q Query) error {
	if strings.TrimSpace(q.Text) == "" {
		return NewValidationError("query", q.Text, ErrEmptyQuery)
	}
	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].StructField() {
			case "TopK":
				return NewValidationError("top_k", strconv.Itoa(q.TopK), ErrTopKOutOfRange)
			default:
				return NewValidationError("query", q.Text, ErrEmptyQuery)
			}
		}
		return err
	}
	return nil
}

// LastUserMessage extracts the question from a chat-style message list: the
// content of the most recent user-role message. Unknown roles anywhere in
// the list are rejected.
func LastUserMessage(msgs []Message) (string, error) {
	for _, m := range msgs {
		if !validRoles[m.Role] {
			return "", NewValidationError("messages", m.Role, ErrUnknownRole)
		}
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != RoleUser {
			continue
		}
		if strings.TrimSpace(msgs[i].Content) == "" {
			return "", NewValidationError("messages", "", ErrEmptyQuery)
		}
		return msgs[i].Content, nil
	}
	return "", NewValidationError("messages", "", ErrNoUserMessage)
}
