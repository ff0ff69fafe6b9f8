package handlers

import (
	"context"
	"net/http"

	"gradia-backend/models"

	"github.com/gin-gonic/gin"
)

// Grader is the grading surface the handler drives; satisfied by
// service.GradingService.
type Grader interface {
	GradeAnswer(ctx context.Context, req models.GradingRequest) (*models.GradingResult, error)
	GradeCode(ctx context.Context, req models.CodeGradingRequest) (*models.GradingResult, error)
}

// GradingHandler handles HTTP requests for grading.
type GradingHandler struct {
	grader Grader
}

// NewGradingHandler creates a new grading handler.
func NewGradingHandler(grader Grader) *GradingHandler {
	return &GradingHandler{grader: grader}
}

// gradeRequest is the wire shape of POST /api/grading/grade. StudentAnswer is
// a pointer so a missing field (400) is distinguishable from an empty answer,
// which is a valid request that grades to zero.
type gradeRequest struct {
	Question      string   `json:"question"`
	StudentAnswer *string  `json:"student_answer"`
	MaxMark       *int     `json:"max_mark"`
	BucketName    string   `json:"bucket_name"`
	Documents     []string `json:"documents"`
	Rubrics       string   `json:"rubrics"`
}

// GradeAnswer handles POST /api/grading/grade.
func (h *GradingHandler) GradeAnswer(c *gin.Context) {
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	if req.Question == "" || req.StudentAnswer == nil || req.MaxMark == nil ||
		(req.BucketName == "" && len(req.Documents) == 0) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields: question, student_answer, max_mark, bucket_name or documents",
		})
		return
	}
	if *req.MaxMark <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_mark must be a positive integer"})
		return
	}

	result, err := h.grader.GradeAnswer(c.Request.Context(), models.GradingRequest{
		Question:      req.Question,
		StudentAnswer: *req.StudentAnswer,
		MaxMark:       *req.MaxMark,
		BucketName:    req.BucketName,
		Documents:     req.Documents,
		Rubrics:       req.Rubrics,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// codeGradeRequest is the wire shape of POST /api/grading/grade-code.
type codeGradeRequest struct {
	Question    string  `json:"question"`
	StudentCode *string `json:"student_code"`
	MaxMark     *int    `json:"max_mark"`
}

// GradeCode handles POST /api/grading/grade-code.
func (h *GradingHandler) GradeCode(c *gin.Context) {
	var req codeGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	if req.Question == "" || req.StudentCode == nil || req.MaxMark == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields: question, student_code, max_mark",
		})
		return
	}
	if *req.MaxMark <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_mark must be a positive integer"})
		return
	}

	result, err := h.grader.GradeCode(c.Request.Context(), models.CodeGradingRequest{
		Question:    req.Question,
		StudentCode: *req.StudentCode,
		MaxMark:     *req.MaxMark,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
