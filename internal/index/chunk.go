package index

import (
	"strings"

	"github.com/doctalk0/doctalk/internal/document"
)

// Chunk is one embeddable slice of a source document. Fields are exported
// for gob persistence.
type Chunk struct {
	Text   string
	Source string
	Page   int
}

// SplitDocuments splits each document into chunks of at most size runes,
// with consecutive chunks sharing overlap runes. Counts are rune-based so
// multi-byte text (Cyrillic in particular) is not split mid-character.
//
// A document shorter than size yields a single chunk. Chunks that are empty
// after whitespace trimming are dropped. Source and page carry over from
// the parent document unchanged.
func SplitDocuments(docs []document.Document, size, overlap int) []Chunk {
	if size <= 0 {
		size = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	var chunks []Chunk
	for _, doc := range docs {
		for _, text := range splitText(doc.Content, size, overlap) {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			chunks = append(chunks, Chunk{
				Text:   text,
				Source: doc.Source,
				Page:   doc.Page,
			})
		}
	}
	return chunks
}

func splitText(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	step := size - overlap
	var parts []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return parts
}
