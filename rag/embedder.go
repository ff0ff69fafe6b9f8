package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"
	"time"
)

// Embedder maps text to a fixed-dimension dense vector. The same embedder must
// be used for both chunk text and query text; mixing models silently degrades
// retrieval quality.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

var (
	ErrEmptyText       = errors.New("cannot embed empty text")
	ErrEmbeddingFailed = errors.New("failed to generate embedding")
)

const (
	defaultEmbeddingAPI   = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	defaultEmbeddingModel = "models/gemini-embedding-001"
	defaultEmbeddingDim   = 768

	maxEmbedRetries     = 3
	initialEmbedBackoff = time.Second
)

// EmbeddingRequest is the Gemini embedContent request body.
type EmbeddingRequest struct {
	Model                string       `json:"model"`
	Content              ContentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

// ContentInput wraps the text parts of an embedding request.
type ContentInput struct {
	Parts []PartInput `json:"parts"`
}

// PartInput is a single text part.
type PartInput struct {
	Text string `json:"text"`
}

// EmbeddingResponse is the Gemini embedContent response body.
type EmbeddingResponse struct {
	Embedding EmbeddingData `json:"embedding"`
}

// EmbeddingData contains the embedding values.
type EmbeddingData struct {
	Values []float64 `json:"values"`
}

// GeminiEmbedder calls the Gemini embedding REST API.
type GeminiEmbedder struct {
	apiKey     string
	apiURL     string
	model      string
	dimensions int
	httpClient *http.Client
}

// NewGeminiEmbedder creates a Gemini embedder with the given API key.
func NewGeminiEmbedder(apiKey string) *GeminiEmbedder {
	return &GeminiEmbedder{
		apiKey:     apiKey,
		apiURL:     defaultEmbeddingAPI,
		model:      defaultEmbeddingModel,
		dimensions: defaultEmbeddingDim,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewGeminiEmbedderFromEnv creates a Gemini embedder from GEMINI_API_KEY.
func NewGeminiEmbedderFromEnv() (*GeminiEmbedder, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is required")
	}
	return NewGeminiEmbedder(apiKey), nil
}

// Embed generates a unit-normalized embedding for text. Retries transient API
// failures with exponential backoff; 400/401 responses are not retried.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	reqBody := EmbeddingRequest{
		Model: e.model,
		Content: ContentInput{
			Parts: []PartInput{{Text: text}},
		},
		TaskType:             "SEMANTIC_SIMILARITY",
		OutputDimensionality: e.dimensions,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := initialEmbedBackoff
	for attempt := 0; attempt < maxEmbedRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", e.apiURL, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", e.apiKey)

		resp, err := e.httpClient.Do(req)
		if err != nil {
			if attempt == maxEmbedRetries-1 {
				return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxEmbedRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp EmbeddingResponse
			decodeErr := json.NewDecoder(resp.Body).Decode(&apiResp)
			resp.Body.Close()
			if decodeErr != nil {
				if attempt == maxEmbedRetries-1 {
					return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
				}
				continue
			}
			if len(apiResp.Embedding.Values) == 0 {
				return nil, ErrEmbeddingFailed
			}
			vec := apiResp.Embedding.Values
			Normalize(vec)
			return vec, nil
		}

		resp.Body.Close()

		// Don't retry on 400 or 401 errors
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("embedding API error: %d", resp.StatusCode)
		}

		if attempt == maxEmbedRetries-1 {
			return nil, fmt.Errorf("embedding API error after %d attempts: %d", maxEmbedRetries, resp.StatusCode)
		}
	}

	return nil, ErrEmbeddingFailed
}

// Normalize scales vec to unit L2 norm in place. Zero vectors are left as-is.
func Normalize(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}
