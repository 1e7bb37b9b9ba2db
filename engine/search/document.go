package search

import "encoding/json"

// Document is one semi-structured record returned by the index. Field names
// are index-specific, so values are kept raw and read on demand.
type Document map[string]json.RawMessage

// Field reads an optional string field by name. Absence, a non-string
// value, or an empty string all report false rather than failing.
func (d Document) Field(name string) (string, bool) {
	raw, ok := d[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// Caption is a per-document extractive caption.
type Caption struct {
	Text       string `json:"text"`
	Highlights string `json:"highlights,omitempty"`
}

// Answer is an extractive answer ranked by the index itself, returned
// separately from the document list in semantic mode.
type Answer struct {
	Text  string  `json:"text"`
	Score float64 `json:"score,omitempty"`
}

// Result is one ranked record together with its captions and score.
type Result struct {
	Doc      Document
	Captions []Caption
	Score    float64
}

// Results is a full retrieval response.
type Results struct {
	Records []Result
	Answers []Answer
}
