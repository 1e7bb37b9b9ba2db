package rag

import (
	"fmt"

	"github.com/AskStackAI/askstack/engine/domain"
)

const userTemplate = "Use the following context excerpts to answer the question.\n\n" +
	"Context:\n%s\n\nQuestion: %s\n\nAnswer:"

// BuildMessages wraps the context block and the original query in the fixed
// two-message prompt. The query text is embedded unmodified.
func BuildMessages(contextBlock, query, systemPrompt string) []domain.Message {
	return []domain.Message{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: fmt.Sprintf(userTemplate, contextBlock, query)},
	}
}
