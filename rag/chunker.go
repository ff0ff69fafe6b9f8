package rag

import (
	"gradia-backend/models"
)

// DefaultChunkSize is the fixed retrieval window in characters.
const DefaultChunkSize = 500

// SplitChunks slices text into consecutive, non-overlapping windows of window
// characters. The final chunk may be shorter. Splitting is by character, with
// no sentence or whitespace awareness, so the output is fully deterministic.
func SplitChunks(text string, window int) []models.ReferenceChunk {
	if window <= 0 {
		window = DefaultChunkSize
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	chunks := make([]models.ReferenceChunk, 0, (len(runes)+window-1)/window)
	for start := 0; start < len(runes); start += window {
		end := start + window
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, models.ReferenceChunk{
			Text:        string(runes[start:end]),
			SourceOrder: len(chunks),
		})
	}
	return chunks
}
