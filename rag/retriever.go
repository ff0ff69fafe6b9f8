package rag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"gradia-backend/models"
)

// DocumentSource lists and fetches reference documents from a named bucket.
type DocumentSource interface {
	ListFiles(ctx context.Context, bucket string) ([]string, error)
	Download(ctx context.Context, bucket, name string) (io.ReadCloser, error)
}

// ChunkCache persists chunk embeddings per bucket so unchanged reference
// material is not re-embedded on every request. The similarity index itself
// stays request-scoped regardless of the cache.
type ChunkCache interface {
	Fetch(ctx context.Context, bucket string) ([]models.ReferenceChunk, [][]float64, error)
	Save(ctx context.Context, bucket string, chunks []models.ReferenceChunk, vectors [][]float64) error
}

// DefaultTopK is the number of passages retrieved per question.
const DefaultTopK = 5

// Retriever turns a set of raw reference documents plus a question into a
// ranked list of relevant passages: extract, chunk, embed, search.
type Retriever struct {
	source    DocumentSource
	embedder  Embedder
	cache     ChunkCache
	topK      int
	chunkSize int
}

// RetrieverOption is a functional option for Retriever.
type RetrieverOption func(*Retriever)

// WithDocumentSource sets the bucket source for reference documents.
func WithDocumentSource(source DocumentSource) RetrieverOption {
	return func(r *Retriever) {
		r.source = source
	}
}

// WithEmbedder sets the embedding provider.
func WithEmbedder(embedder Embedder) RetrieverOption {
	return func(r *Retriever) {
		r.embedder = embedder
	}
}

// WithChunkCache enables the per-bucket embedding cache.
func WithChunkCache(cache ChunkCache) RetrieverOption {
	return func(r *Retriever) {
		r.cache = cache
	}
}

// WithTopK sets how many passages a search returns.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithChunkSize sets the chunk window in characters.
func WithChunkSize(size int) RetrieverOption {
	return func(r *Retriever) {
		if size > 0 {
			r.chunkSize = size
		}
	}
}

// NewRetriever creates a retriever with the given options.
func NewRetriever(opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		topK:      DefaultTopK,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RetrieveFromBucket retrieves the passages most relevant to question from the
// PDFs stored in bucket. Chunk embeddings come from the cache when one is
// configured and warm; otherwise every PDF is downloaded, extracted, chunked
// and embedded, and the result is written back to the cache best-effort.
func (r *Retriever) RetrieveFromBucket(ctx context.Context, question, bucket string) ([]models.ReferenceChunk, error) {
	if r.source == nil {
		return nil, errors.New("document source not set")
	}
	if r.embedder == nil {
		return nil, errors.New("embedder not set")
	}

	if r.cache != nil {
		chunks, vectors, err := r.cache.Fetch(ctx, bucket)
		if err != nil {
			log.Printf("Warning: chunk cache fetch failed for bucket %s: %v", bucket, err)
		} else if len(chunks) > 0 {
			index, err := NewIndexFromVectors(r.embedder, chunks, vectors)
			if err != nil {
				return nil, err
			}
			return index.Search(ctx, question, r.topK)
		}
	}

	names, err := r.source.ListFiles(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket %s: %w", bucket, err)
	}

	allChunks := make([]models.ReferenceChunk, 0)
	for _, name := range names {
		if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
			continue
		}
		text, err := r.fetchDocumentText(ctx, bucket, name)
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", name, err)
		}
		for _, chunk := range SplitChunks(text, r.chunkSize) {
			chunk.SourceOrder = len(allChunks)
			allChunks = append(allChunks, chunk)
		}
	}

	index, err := BuildIndex(ctx, r.embedder, allChunks)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && index.Len() > 0 {
		if err := r.cache.Save(ctx, bucket, allChunks, index.Vectors()); err != nil {
			log.Printf("Warning: chunk cache save failed for bucket %s: %v", bucket, err)
		}
	}

	return index.Search(ctx, question, r.topK)
}

// RetrieveFromDocuments retrieves the passages most relevant to question from
// inline document texts, preserving document and intra-document order in the
// combined chunk sequence.
func (r *Retriever) RetrieveFromDocuments(ctx context.Context, question string, documents []string) ([]models.ReferenceChunk, error) {
	if r.embedder == nil {
		return nil, errors.New("embedder not set")
	}

	allChunks := make([]models.ReferenceChunk, 0)
	for _, doc := range documents {
		for _, chunk := range SplitChunks(doc, r.chunkSize) {
			chunk.SourceOrder = len(allChunks)
			allChunks = append(allChunks, chunk)
		}
	}

	index, err := BuildIndex(ctx, r.embedder, allChunks)
	if err != nil {
		return nil, err
	}
	return index.Search(ctx, question, r.topK)
}

// fetchDocumentText downloads one PDF and extracts its plain text.
func (r *Retriever) fetchDocumentText(ctx context.Context, bucket, name string) (string, error) {
	body, err := r.source.Download(ctx, bucket, name)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return ExtractPDFText(bytes.NewReader(data), int64(len(data)))
}
