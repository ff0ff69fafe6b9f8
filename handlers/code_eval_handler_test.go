package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gradia-backend/models"
	"gradia-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	report *models.SubmissionReport
	err    error
}

func (r *stubRunner) SupportedLanguages() []string {
	return []string{"javascript", "python3"}
}

func (r *stubRunner) SubmitCode(context.Context, string, string, []models.TestCase) (*models.SubmissionReport, error) {
	return r.report, r.err
}

func newCodeEvalRouter(runner CodeRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewCodeEvalHandler(runner)
	r.GET("/get-languages", h.GetLanguages)
	r.POST("/submit", h.Submit)
	return r
}

func TestGetLanguages(t *testing.T) {
	r := newCodeEvalRouter(&stubRunner{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get-languages", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		SupportedLanguages []string `json:"supported_languages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, []string{"javascript", "python3"}, resp.SupportedLanguages)
}

func TestSubmitHandler(t *testing.T) {
	runner := &stubRunner{report: &models.SubmissionReport{
		TotalTestCases:  1,
		PassedTestCases: 1,
		TestResults:     []models.TestCaseResult{{TestCaseID: 1, Verdict: "Accepted", Passed: true}},
	}}
	r := newCodeEvalRouter(runner)

	w := postJSON(t, r, "/submit", `{
		"source_code": "def solution(n): return n",
		"language": "python3",
		"test_cases": [{"input": "1", "expected_output": "1"}]
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	var report models.SubmissionReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Equal(t, 1, report.PassedTestCases)
}

func TestSubmitHandlerValidation(t *testing.T) {
	for name, body := range map[string]string{
		"missing source_code": `{"language": "python3", "test_cases": [{"input": "1", "expected_output": "1"}]}`,
		"missing language":    `{"source_code": "x", "test_cases": [{"input": "1", "expected_output": "1"}]}`,
		"no test cases":       `{"source_code": "x", "language": "python3", "test_cases": []}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := postJSON(t, newCodeEvalRouter(&stubRunner{}), "/submit", body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Contains(t, w.Body.String(), "Missing required fields")
		})
	}
}

func TestSubmitHandlerUnsupportedLanguage(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("%w: cobol", service.ErrUnsupportedLanguage)}
	w := postJSON(t, newCodeEvalRouter(runner), "/submit",
		`{"source_code": "x", "language": "cobol", "test_cases": [{"input": "1", "expected_output": "1"}]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "unsupported language")
}

func TestSubmitHandlerJudgeFailure(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("%w: connection refused", service.ErrSubmissionFailed)}
	w := postJSON(t, newCodeEvalRouter(runner), "/submit",
		`{"source_code": "x", "language": "python3", "test_cases": [{"input": "1", "expected_output": "1"}]}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "Internal server error")
}
