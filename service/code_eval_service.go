package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"gradia-backend/models"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrSubmissionFailed    = errors.New("code submission failed")
	ErrSubmissionTimeout   = errors.New("submission processing timeout")
)

const (
	defaultJudgeBaseURL = "https://judge0-ce.p.rapidapi.com"
	defaultPollInterval = 500 * time.Millisecond
	defaultPollTimeout  = 30 * time.Second
)

// languageConfig maps a supported language to its Judge0 id and the harness
// template the student code is wrapped in before submission.
type languageConfig struct {
	id       int
	template string
}

var languageConfigs = map[string]languageConfig{
	"python3": {
		id: 71,
		template: `%s

# Input handling
input_value = input().strip()
result = solution(int(input_value))
print(result)
`,
	},
	"javascript": {
		id: 63,
		template: `%s

const fs = require('fs');
const input = fs.readFileSync('/dev/stdin', 'utf8').trim();
console.log(solution(parseInt(input, 10)));
`,
	},
}

// CodeEvalService submits student code to the Judge0 remote judge and polls
// for per-test-case verdicts.
type CodeEvalService struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
	sleep        sleepFunc
}

// CodeEvalOption is a functional option for CodeEvalService.
type CodeEvalOption func(*CodeEvalService)

// WithJudgeAPIKey sets the RapidAPI key.
func WithJudgeAPIKey(key string) CodeEvalOption {
	return func(s *CodeEvalService) {
		s.apiKey = key
	}
}

// WithJudgeBaseURL overrides the Judge0 endpoint, for tests.
func WithJudgeBaseURL(base string) CodeEvalOption {
	return func(s *CodeEvalService) {
		s.baseURL = strings.TrimSuffix(base, "/")
	}
}

// WithJudgeHTTPClient overrides the HTTP client.
func WithJudgeHTTPClient(client *http.Client) CodeEvalOption {
	return func(s *CodeEvalService) {
		s.httpClient = client
	}
}

// WithPollInterval sets the delay between result polls.
func WithPollInterval(d time.Duration) CodeEvalOption {
	return func(s *CodeEvalService) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithPollTimeout sets the per-submission polling budget.
func WithPollTimeout(d time.Duration) CodeEvalOption {
	return func(s *CodeEvalService) {
		if d > 0 {
			s.pollTimeout = d
		}
	}
}

// WithJudgeSleep overrides the poll wait, for tests.
func WithJudgeSleep(sleep sleepFunc) CodeEvalOption {
	return func(s *CodeEvalService) {
		s.sleep = sleep
	}
}

// NewCodeEvalService creates a code evaluation service.
func NewCodeEvalService(opts ...CodeEvalOption) *CodeEvalService {
	s := &CodeEvalService{
		baseURL:      defaultJudgeBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
		sleep:        sleepWithContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SupportedLanguages returns the languages the judge harness supports.
func (s *CodeEvalService) SupportedLanguages() []string {
	names := make([]string, 0, len(languageConfigs))
	for name := range languageConfigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PrepareSource wraps student code in the language harness template.
func (s *CodeEvalService) PrepareSource(code, language string) (string, error) {
	cfg, ok := languageConfigs[language]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	return fmt.Sprintf(cfg.template, code), nil
}

// SubmitCode runs source against every test case and aggregates the verdicts.
// A judge failure on one test case yields an Error verdict for that case and
// the remaining cases still run.
func (s *CodeEvalService) SubmitCode(ctx context.Context, source, language string, testCases []models.TestCase) (*models.SubmissionReport, error) {
	cfg, ok := languageConfigs[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	prepared := fmt.Sprintf(cfg.template, source)

	results := make([]models.TestCaseResult, 0, len(testCases))
	for i, testCase := range testCases {
		caseID := i + 1

		result, err := s.runTestCase(ctx, prepared, cfg.id, testCase)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			results = append(results, models.TestCaseResult{
				TestCaseID: caseID,
				Input:      testCase.Input,
				Error:      fmt.Sprintf("Code submission failed: %v", err),
				Passed:     false,
				Verdict:    "Error",
			})
			continue
		}

		result.TestCaseID = caseID
		result.Input = testCase.Input
		result.ExpectedOutput = testCase.ExpectedOutput
		results = append(results, *result)
	}

	passed := 0
	for _, result := range results {
		if result.Passed {
			passed++
		}
	}
	return &models.SubmissionReport{
		TotalTestCases:  len(results),
		PassedTestCases: passed,
		TestResults:     results,
	}, nil
}

// judgeSubmission models the subset of the Judge0 submission resource the
// service reads.
type judgeSubmission struct {
	Status struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Time          string `json:"time"`
	Memory        int    `json:"memory"`
}

func (s *CodeEvalService) runTestCase(ctx context.Context, source string, languageID int, testCase models.TestCase) (*models.TestCaseResult, error) {
	token, err := s.submit(ctx, source, languageID, testCase.Input)
	if err != nil {
		return nil, err
	}

	submission, err := s.awaitResult(ctx, token)
	if err != nil {
		return nil, err
	}

	return parseSubmission(submission, testCase.ExpectedOutput), nil
}

// submit posts one submission and returns its token.
func (s *CodeEvalService) submit(ctx context.Context, source string, languageID int, stdin string) (string, error) {
	payload := map[string]interface{}{
		"source_code": source,
		"language_id": languageID,
		"stdin":       stdin,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/submissions", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d - %s", ErrSubmissionFailed, resp.StatusCode, string(data))
	}

	var created struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	if created.Token == "" {
		return "", fmt.Errorf("%w: no token returned", ErrSubmissionFailed)
	}
	return created.Token, nil
}

// awaitResult polls the submission until the judge reports a terminal status
// (status.id > 2) or the polling budget runs out.
func (s *CodeEvalService) awaitResult(ctx context.Context, token string) (*judgeSubmission, error) {
	deadline := time.Now().Add(s.pollTimeout)
	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/submissions/"+token, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		s.setHeaders(req)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
		}

		var submission judgeSubmission
		decodeErr := json.NewDecoder(resp.Body).Decode(&submission)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, decodeErr)
		}

		if submission.Status.ID > 2 {
			return &submission, nil
		}

		if err := s.sleep(ctx, s.pollInterval); err != nil {
			return nil, err
		}
	}
	return nil, ErrSubmissionTimeout
}

func (s *CodeEvalService) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", s.apiKey)
	if u, err := url.Parse(s.baseURL); err == nil {
		req.Header.Set("X-RapidAPI-Host", u.Host)
	}
}

// parseSubmission maps a terminal judge status to a verdict. Status 3 means
// the run finished; the output comparison decides Accepted vs Wrong Answer.
// 4-6 are judge-reported failures (wrong answer, time limit, compile error),
// anything else is an infrastructure error.
func parseSubmission(submission *judgeSubmission, expectedOutput string) *models.TestCaseResult {
	stdout := strings.TrimSpace(submission.Stdout)

	var passed bool
	var verdict string
	switch {
	case submission.Status.ID == 3:
		passed = stdout == strings.TrimSpace(expectedOutput)
		verdict = "Wrong Answer"
		if passed {
			verdict = "Accepted"
		}
	case submission.Status.ID >= 4 && submission.Status.ID <= 6:
		verdict = "Failed"
	default:
		verdict = "Error"
	}

	return &models.TestCaseResult{
		Status:        submission.Status.Description,
		CompileOutput: strings.TrimSpace(submission.CompileOutput),
		Stdout:        stdout,
		Stderr:        strings.TrimSpace(submission.Stderr),
		Time:          submission.Time,
		Memory:        submission.Memory,
		Passed:        passed,
		Verdict:       verdict,
		ActualOutput:  stdout,
	}
}
