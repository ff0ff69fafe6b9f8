package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// TextExtractor turns an image of handwriting into plain text.
type TextExtractor interface {
	ExtractHandwrittenText(ctx context.Context, image []byte) (string, error)
}

// OCRHandler exposes handwriting recognition over HTTP.
type OCRHandler struct {
	extractor TextExtractor
}

// NewOCRHandler creates a new OCR handler.
func NewOCRHandler(extractor TextExtractor) *OCRHandler {
	return &OCRHandler{extractor: extractor}
}

// ExtractText handles POST /api/ocr/extract-text (multipart).
func (h *OCRHandler) ExtractText(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file part in the request"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(image) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded file is empty"})
		return
	}

	text, err := h.extractor.ExtractHandwrittenText(c.Request.Context(), image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"extracted_text": text})
}
