package handlers

import (
	"context"
	"errors"
	"net/http"

	"gradia-backend/models"
	"gradia-backend/service"

	"github.com/gin-gonic/gin"
)

// CodeRunner executes student code against test cases.
type CodeRunner interface {
	SupportedLanguages() []string
	SubmitCode(ctx context.Context, source, language string, testCases []models.TestCase) (*models.SubmissionReport, error)
}

// CodeEvalHandler exposes code execution over HTTP.
type CodeEvalHandler struct {
	runner CodeRunner
}

// NewCodeEvalHandler creates a new code evaluation handler.
func NewCodeEvalHandler(runner CodeRunner) *CodeEvalHandler {
	return &CodeEvalHandler{runner: runner}
}

// GetLanguages handles GET /api/code-eval/get-languages.
func (h *CodeEvalHandler) GetLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"supported_languages": h.runner.SupportedLanguages()})
}

type submitRequest struct {
	SourceCode string            `json:"source_code"`
	Language   string            `json:"language"`
	TestCases  []models.TestCase `json:"test_cases"`
}

// Submit handles POST /api/code-eval/submit.
func (h *CodeEvalHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}
	if req.SourceCode == "" || req.Language == "" || len(req.TestCases) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: source_code, language, test_cases"})
		return
	}

	report, err := h.runner.SubmitCode(c.Request.Context(), req.SourceCode, req.Language, req.TestCases)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedLanguage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
