package rag

// Citation points an answer back at one retrieved record, carrying whatever
// optional locator fields the index document happened to have.
type Citation struct {
	Content  string `json:"content"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	Filepath string `json:"filepath,omitempty"`
	ChunkID  string `json:"chunk_id,omitempty"`
}

// Citations derives one citation per retrieved record that carried content,
// preferring the chunk field and falling back to the first caption.
func (a *Answer) Citations(chunkField string) []Citation {
	out := make([]Citation, 0, len(a.Records))
	for _, rec := range a.Records {
		content, ok := rec.Doc.Field(chunkField)
		if !ok {
			if len(rec.Captions) == 0 || rec.Captions[0].Text == "" {
				continue
			}
			content = rec.Captions[0].Text
		}
		c := Citation{Content: content}
		c.Title, _ = rec.Doc.Field("title")
		c.URL, _ = rec.Doc.Field("url")
		c.Filepath, _ = rec.Doc.Field("filepath")
		c.ChunkID, _ = rec.Doc.Field("chunk_id")
		out = append(out, c)
	}
	return out
}
