package rag

import (
	"context"
	"fmt"
	"sort"

	"gradia-backend/models"
)

// SimilarityIndex is an ephemeral in-memory index of chunk vectors supporting
// exact nearest-neighbor search under cosine similarity. It is built fresh per
// grading request and discarded when the request completes.
type SimilarityIndex struct {
	embedder Embedder
	chunks   []models.ReferenceChunk
	vectors  [][]float64
}

// BuildIndex embeds every chunk with embedder, normalizes each vector to unit
// L2 norm and stores it by position. Chunks are embedded one at a time; any
// embedding failure aborts the build.
func BuildIndex(ctx context.Context, embedder Embedder, chunks []models.ReferenceChunk) (*SimilarityIndex, error) {
	vectors := make([][]float64, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		Normalize(vec)
		vectors = append(vectors, vec)
	}
	return &SimilarityIndex{
		embedder: embedder,
		chunks:   chunks,
		vectors:  vectors,
	}, nil
}

// NewIndexFromVectors builds an index over chunks whose embeddings were
// computed earlier (e.g. loaded from the chunk cache). Vectors are normalized
// again; normalization is idempotent.
func NewIndexFromVectors(embedder Embedder, chunks []models.ReferenceChunk, vectors [][]float64) (*SimilarityIndex, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}
	for _, vec := range vectors {
		Normalize(vec)
	}
	return &SimilarityIndex{
		embedder: embedder,
		chunks:   chunks,
		vectors:  vectors,
	}, nil
}

// Len reports the number of indexed chunks.
func (ix *SimilarityIndex) Len() int {
	return len(ix.chunks)
}

// Vectors exposes the stored embeddings in insertion order, for callers that
// persist them (the bucket chunk cache).
func (ix *SimilarityIndex) Vectors() [][]float64 {
	return ix.vectors
}

// Search embeds the query, scores it against every stored vector and returns
// the top-k chunks ranked by descending cosine similarity. Ties keep the
// original insertion order. An empty index yields an empty result without
// touching the embedder. Fewer than k chunks yields all of them.
func (ix *SimilarityIndex) Search(ctx context.Context, query string, k int) ([]models.ReferenceChunk, error) {
	if len(ix.chunks) == 0 {
		return nil, nil
	}

	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	Normalize(queryVec)

	scores := make([]float64, len(ix.vectors))
	for i, vec := range ix.vectors {
		scores[i] = dot(queryVec, vec)
	}

	order := make([]int, len(ix.chunks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k < 0 {
		k = 0
	}
	if k > len(order) {
		k = len(order)
	}
	results := make([]models.ReferenceChunk, 0, k)
	for _, idx := range order[:k] {
		results = append(results, ix.chunks[idx])
	}
	return results, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
