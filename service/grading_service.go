package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gradia-backend/models"
	"gradia-backend/rag"
)

var (
	ErrRetrieverNotSet = errors.New("retriever not set")
	ErrModelNotSet     = errors.New("model client not set")
	ErrRetrievalFailed = errors.New("failed to retrieve reference material")
	errModelExhausted  = errors.New("model produced no parseable grading response")
)

const (
	defaultMaxAttempts = 5
	defaultRetryDelay  = 500 * time.Millisecond
)

// sleepFunc waits for d or until ctx is cancelled. Injectable so tests run
// without real delays.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GradingService drives one grading request end to end: retrieval, prompt
// construction, the bounded model-call loop, and the fallback result.
type GradingService struct {
	retriever   *rag.Retriever
	model       ModelClient
	maxAttempts int
	retryDelay  time.Duration
	sleep       sleepFunc
}

// GradingServiceOption is a functional option for GradingService.
type GradingServiceOption func(*GradingService)

// WithRetriever sets the retrieval pipeline.
func WithRetriever(retriever *rag.Retriever) GradingServiceOption {
	return func(s *GradingService) {
		s.retriever = retriever
	}
}

// WithModelClient sets the generative model client.
func WithModelClient(model ModelClient) GradingServiceOption {
	return func(s *GradingService) {
		s.model = model
	}
}

// WithMaxAttempts sets the model-call attempt budget.
func WithMaxAttempts(n int) GradingServiceOption {
	return func(s *GradingService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the fixed delay between model attempts.
func WithRetryDelay(d time.Duration) GradingServiceOption {
	return func(s *GradingService) {
		if d >= 0 {
			s.retryDelay = d
		}
	}
}

// WithSleep overrides the inter-attempt wait, for tests.
func WithSleep(sleep sleepFunc) GradingServiceOption {
	return func(s *GradingService) {
		s.sleep = sleep
	}
}

// NewGradingService creates a grading service with the given options.
func NewGradingService(opts ...GradingServiceOption) *GradingService {
	s := &GradingService{
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		sleep:       sleepWithContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GradeAnswer grades a free-text answer against retrieved reference material.
// An empty or whitespace-only answer short-circuits to a zero grade without
// invoking retrieval or the model. Retrieval failures propagate; model-output
// malformation resolves to the fixed fallback result after the attempt budget.
func (s *GradingService) GradeAnswer(ctx context.Context, req models.GradingRequest) (*models.GradingResult, error) {
	if strings.TrimSpace(req.StudentAnswer) == "" {
		return &models.GradingResult{
			Grade:     0,
			Feedback:  "No answer was provided by the student.",
			Reference: "N/A",
		}, nil
	}
	if s.retriever == nil {
		return nil, ErrRetrieverNotSet
	}
	if s.model == nil {
		return nil, ErrModelNotSet
	}

	var retrieved []models.ReferenceChunk
	var err error
	if req.BucketName != "" {
		retrieved, err = s.retriever.RetrieveFromBucket(ctx, req.Question, req.BucketName)
	} else {
		retrieved, err = s.retriever.RetrieveFromDocuments(ctx, req.Question, req.Documents)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	prompt := buildGradingPrompt(req.Question, req.MaxMark, retrieved, req.StudentAnswer, req.Rubrics)

	result, err := s.gradeViaModel(ctx, prompt, req.MaxMark)
	if err != nil {
		if errors.Is(err, errModelExhausted) {
			return &models.GradingResult{
				Grade:     0,
				Feedback:  "ERROR: System error while grading answer. Please try again.",
				Reference: "N/A",
			}, nil
		}
		return nil, err
	}
	return result, nil
}

// GradeCode grades source code on logic, structure and optimization. No
// retrieval is involved.
func (s *GradingService) GradeCode(ctx context.Context, req models.CodeGradingRequest) (*models.GradingResult, error) {
	if strings.TrimSpace(req.StudentCode) == "" {
		return &models.GradingResult{
			Grade:    0,
			Feedback: "No valid code was provided by the student.",
		}, nil
	}
	if s.model == nil {
		return nil, ErrModelNotSet
	}

	prompt := buildCodeGradingPrompt(req.Question, req.MaxMark, req.StudentCode)

	result, err := s.gradeViaModel(ctx, prompt, req.MaxMark)
	if err != nil {
		if errors.Is(err, errModelExhausted) {
			return &models.GradingResult{
				Grade:     0,
				Feedback:  "ERROR: System error while grading code. Please try again.",
				Reference: "N/A",
			}, nil
		}
		return nil, err
	}
	return result, nil
}

// gradeViaModel runs the bounded model-call loop: one generation per attempt,
// brace-scan JSON extraction, schema validation, fixed delay between attempts.
// A transport failure from the model propagates immediately; only malformed
// output is retried. Exhaustion returns errModelExhausted so the caller can
// apply the documented fallback.
func (s *GradingService) gradeViaModel(ctx context.Context, prompt string, maxMark int) (*models.GradingResult, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := s.sleep(ctx, s.retryDelay); err != nil {
				return nil, err
			}
		}

		raw, err := s.model.GenerateContent(ctx, prompt)
		if err != nil {
			return nil, err
		}

		result, ok := parseGradingResponse(raw, maxMark)
		if ok {
			return result, nil
		}
	}
	return nil, errModelExhausted
}

// parseGradingResponse locates the first '{' and last '}' in raw and decodes
// the enclosed substring, which tolerates the model wrapping its JSON in prose
// or code fences. The payload only counts as parsed if grade is a number and
// feedback a string; grade is then clamped to [0, maxMark].
func parseGradingResponse(raw string, maxMark int) (*models.GradingResult, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var payload struct {
		Grade     json.Number `json:"grade"`
		Feedback  string      `json:"feedback"`
		Reference string      `json:"reference"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, false
	}

	grade, err := payload.Grade.Float64()
	if err != nil {
		return nil, false
	}
	if payload.Feedback == "" {
		return nil, false
	}

	if grade < 0 {
		grade = 0
	}
	if max := float64(maxMark); grade > max {
		grade = max
	}

	return &models.GradingResult{
		Grade:     grade,
		Feedback:  payload.Feedback,
		Reference: payload.Reference,
	}, true
}
