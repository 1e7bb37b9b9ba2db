// Package domain defines core types, validation, and the error taxonomy for
// the askstack pipeline. It acts as the validation gate at the pipeline
// entry point: nothing reaches an upstream service without passing here.
package domain

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DefaultTopK is applied when the caller omits top_k.
const DefaultTopK = 5

// Query is one retrieval question. The TopK bounds mirror the index
// service's result window.
type Query struct {
	Text string `json:"query" validate:"required"`
	TopK int    `json:"top_k" validate:"gte=1,lte=20"`
}

// QueryResponse is the sole artifact of a request: the generated answer and
// the deduplicated snippets it was grounded on.
type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}
