package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// ModelClient is the single text-in/text-out call to the generative model.
// The model name and version are deployment configuration, not a grading
// concern.
type ModelClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

const defaultGenerativeModel = "gemini-2.0-flash"

// GeminiModel implements ModelClient with the Gemini SDK.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel creates a Gemini-backed model client. Model defaults to
// gemini-2.0-flash when empty.
func NewGeminiModel(client *genai.Client, model string) *GeminiModel {
	if model == "" {
		model = defaultGenerativeModel
	}
	return &GeminiModel{client: client, model: model}
}

// GenerateContent sends the prompt and returns the concatenated text parts of
// the first candidate.
func (m *GeminiModel) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.GenerativeModel(m.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("model returned no candidates")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
	}

	result := builder.String()
	if result == "" {
		return "", errors.New("model returned empty content")
	}
	return result, nil
}
