package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gradia-backend/models"
	"gradia-backend/rag"

	"github.com/stretchr/testify/require"
)

// scriptedModel returns its responses in order; a response beginning with
// "ERR:" becomes a transport error.
type scriptedModel struct {
	responses []string
	calls     int
	prompts   []string
}

func (m *scriptedModel) GenerateContent(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.calls >= len(m.responses) {
		return "", errors.New("scripted model out of responses")
	}
	response := m.responses[m.calls]
	m.calls++
	if after, ok := strings.CutPrefix(response, "ERR:"); ok {
		return "", errors.New(after)
	}
	return response, nil
}

// echoEmbedder gives every text the same vector, enough for retrieval to
// succeed deterministically.
type echoEmbedder struct{}

func (echoEmbedder) Embed(context.Context, string) ([]float64, error) {
	return []float64{1, 0}, nil
}

func newTestService(model ModelClient, opts ...GradingServiceOption) *GradingService {
	retriever := rag.NewRetriever(rag.WithEmbedder(echoEmbedder{}))
	base := []GradingServiceOption{
		WithRetriever(retriever),
		WithModelClient(model),
		WithSleep(func(context.Context, time.Duration) error { return nil }),
	}
	return NewGradingService(append(base, opts...)...)
}

func answerRequest(answer string) models.GradingRequest {
	return models.GradingRequest{
		Question:      "Explain photosynthesis.",
		StudentAnswer: answer,
		MaxMark:       10,
		Documents:     []string{"Photosynthesis converts light energy into chemical energy."},
	}
}

func TestGradeAnswerFirstAttempt(t *testing.T) {
	model := &scriptedModel{responses: []string{
		`{"grade": 7.5, "feedback": "Good grasp of the light reactions.", "reference": "Chapter 2"}`,
	}}
	svc := newTestService(model)

	result, err := svc.GradeAnswer(context.Background(), answerRequest("Plants convert light to sugar."))
	require.NoError(t, err)
	require.Equal(t, 7.5, result.Grade)
	require.Equal(t, "Good grasp of the light reactions.", result.Feedback)
	require.Equal(t, "Chapter 2", result.Reference)
	require.Equal(t, 1, model.calls)
}

func TestGradeAnswerExtractsJSONFromProse(t *testing.T) {
	model := &scriptedModel{responses: []string{
		"Sure! Here is the grading:\n```json\n{\"grade\": 4, \"feedback\": \"Partial answer.\", \"reference\": \"Intro\"}\n```\nLet me know if you need anything else.",
	}}
	svc := newTestService(model)

	result, err := svc.GradeAnswer(context.Background(), answerRequest("Light."))
	require.NoError(t, err)
	require.Equal(t, 4.0, result.Grade)
	require.Equal(t, "Partial answer.", result.Feedback)
}

func TestGradeAnswerRetriesMalformedOutput(t *testing.T) {
	model := &scriptedModel{responses: []string{
		"I cannot grade this right now.",
		`{"grade": "seven", "feedback": "Non-numeric grade."}`,
		`{"grade": 6, "feedback": "Third attempt is valid.", "reference": "Ch 1"}`,
	}}
	var delays []time.Duration
	svc := newTestService(model, WithSleep(func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}))

	result, err := svc.GradeAnswer(context.Background(), answerRequest("Plants."))
	require.NoError(t, err)
	require.Equal(t, 6.0, result.Grade)
	require.Equal(t, 3, model.calls)

	// Fixed delay before each retry, none before the first attempt.
	require.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, delays)
}

func TestGradeAnswerFallbackAfterExhaustion(t *testing.T) {
	model := &scriptedModel{responses: []string{"junk", "junk", "junk"}}
	svc := newTestService(model, WithMaxAttempts(3))

	result, err := svc.GradeAnswer(context.Background(), answerRequest("Plants."))
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Grade)
	require.Equal(t, "ERROR: System error while grading answer. Please try again.", result.Feedback)
	require.Equal(t, "N/A", result.Reference)
	require.Equal(t, 3, model.calls)
}

func TestGradeAnswerTransportErrorPropagates(t *testing.T) {
	model := &scriptedModel{responses: []string{"ERR:connection reset"}}
	svc := newTestService(model)

	_, err := svc.GradeAnswer(context.Background(), answerRequest("Plants."))
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection reset")
	require.Equal(t, 1, model.calls)
}

func TestGradeAnswerEmptyAnswerShortCircuits(t *testing.T) {
	model := &scriptedModel{}
	svc := newTestService(model)

	for _, answer := range []string{"", "   \n\t  "} {
		result, err := svc.GradeAnswer(context.Background(), answerRequest(answer))
		require.NoError(t, err)
		require.Equal(t, 0.0, result.Grade)
		require.Equal(t, "No answer was provided by the student.", result.Feedback)
		require.Equal(t, "N/A", result.Reference)
	}
	require.Zero(t, model.calls)
}

func TestGradeAnswerClampsGrade(t *testing.T) {
	for raw, want := range map[string]float64{"15": 10, "-3": 0, "9.5": 9.5} {
		model := &scriptedModel{responses: []string{
			fmt.Sprintf(`{"grade": %s, "feedback": "f", "reference": "r"}`, raw),
		}}
		svc := newTestService(model)

		result, err := svc.GradeAnswer(context.Background(), answerRequest("Plants."))
		require.NoError(t, err)
		require.Equal(t, want, result.Grade)
	}
}

func TestGradeAnswerRetrievalFailure(t *testing.T) {
	// No document source configured, so a bucket retrieval cannot work.
	svc := newTestService(&scriptedModel{})

	req := answerRequest("Plants.")
	req.Documents = nil
	req.BucketName = "bio101"

	_, err := svc.GradeAnswer(context.Background(), req)
	require.ErrorIs(t, err, ErrRetrievalFailed)
}

func TestGradeAnswerPromptCarriesRubrics(t *testing.T) {
	model := &scriptedModel{responses: []string{
		`{"grade": 5, "feedback": "ok", "reference": "r"}`,
	}}
	svc := newTestService(model)

	req := answerRequest("Plants.")
	req.Rubrics = "2 marks for naming the pigments"

	_, err := svc.GradeAnswer(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, model.prompts, 1)
	require.Contains(t, model.prompts[0], "2 marks for naming the pigments")
}

func TestGradeCodeEmptyCode(t *testing.T) {
	svc := newTestService(&scriptedModel{})

	result, err := svc.GradeCode(context.Background(), models.CodeGradingRequest{
		Question: "Reverse a string.",
		MaxMark:  10,
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Grade)
	require.Equal(t, "No valid code was provided by the student.", result.Feedback)
}

func TestGradeCodeFallbackAfterExhaustion(t *testing.T) {
	model := &scriptedModel{responses: []string{"junk", "junk"}}
	svc := newTestService(model, WithMaxAttempts(2))

	result, err := svc.GradeCode(context.Background(), models.CodeGradingRequest{
		Question:    "Reverse a string.",
		StudentCode: "def solution(s): return s",
		MaxMark:     10,
	})
	require.NoError(t, err)
	require.Equal(t, "ERROR: System error while grading code. Please try again.", result.Feedback)
	require.Equal(t, "N/A", result.Reference)
}

func TestParseGradingResponseRejects(t *testing.T) {
	for name, raw := range map[string]string{
		"no braces":      "plain prose with no payload",
		"empty feedback": `{"grade": 5, "feedback": ""}`,
		"missing grade":  `{"feedback": "f"}`,
		"invalid json":   `{"grade": 5, "feedback": `,
	} {
		_, ok := parseGradingResponse(raw, 10)
		require.False(t, ok, name)
	}
}
