package rag

import (
	"log/slog"
	"strings"

	"github.com/AskStackAI/askstack/engine/search"
)

// ContextSeparator joins snippets into the prompt context block.
const ContextSeparator = "\n\n---\n\n"

// FallbackContext substitutes for an empty snippet set. An empty retrieval
// is not an error; generation proceeds with this placeholder.
const FallbackContext = "No specific context found."

// ExtractSnippets pulls context snippets out of a retrieval response.
// Precedence, stopping at the first tier that yields anything: extractive
// answers, then per-record captions, then the configured chunk field.
// Records missing the chunk field are logged and skipped.
func ExtractSnippets(res *search.Results, chunkField string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}

	if len(res.Answers) > 0 {
		snippets := make([]string, 0, len(res.Answers))
		for _, a := range res.Answers {
			if a.Text != "" {
				snippets = append(snippets, a.Text)
			}
		}
		if len(snippets) > 0 {
			return snippets
		}
	}

	var captions []string
	for _, rec := range res.Records {
		for _, c := range rec.Captions {
			if c.Text != "" {
				captions = append(captions, c.Text)
			}
		}
	}
	if len(captions) > 0 {
		return captions
	}

	var snippets []string
	for _, rec := range res.Records {
		chunk, ok := rec.Doc.Field(chunkField)
		if !ok {
			logger.Warn("record missing chunk field, skipping", "field", chunkField)
			continue
		}
		snippets = append(snippets, chunk)
	}
	return snippets
}

// JoinContext builds the prompt context block from extracted snippets.
func JoinContext(snippets []string) string {
	if len(snippets) == 0 {
		return FallbackContext
	}
	return strings.Join(snippets, ContextSeparator)
}
