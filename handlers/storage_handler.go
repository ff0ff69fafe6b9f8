package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"gradia-backend/storage"

	"github.com/gin-gonic/gin"
)

// StorageHandler proxies bucket and file operations to the object store.
type StorageHandler struct {
	store storage.Storage
}

// NewStorageHandler creates a new storage handler.
func NewStorageHandler(store storage.Storage) *StorageHandler {
	return &StorageHandler{store: store}
}

type bucketRequest struct {
	BucketName string `json:"bucket_name"`
}

type fileRequest struct {
	BucketName string `json:"bucket_name"`
	FileName   string `json:"file_name"`
}

// CreateBucket handles POST /api/storage/create-bucket.
func (h *StorageHandler) CreateBucket(c *gin.Context) {
	var req bucketRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BucketName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: bucket_name"})
		return
	}

	if err := h.store.CreateBucket(c.Request.Context(), req.BucketName); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Bucket '%s' created successfully.", req.BucketName)})
}

// DeleteBucket handles DELETE /api/storage/delete-bucket.
func (h *StorageHandler) DeleteBucket(c *gin.Context) {
	var req bucketRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BucketName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: bucket_name"})
		return
	}

	if err := h.store.DeleteBucket(c.Request.Context(), req.BucketName); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Bucket '%s' deleted successfully.", req.BucketName)})
}

// ListFiles handles POST /api/storage/list-files. Only PDFs are reference
// material, so only PDFs are listed.
func (h *StorageHandler) ListFiles(c *gin.Context) {
	var req bucketRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BucketName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: bucket_name"})
		return
	}

	names, err := h.store.ListFiles(c.Request.Context(), req.BucketName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to list PDFs: %v", err)})
		return
	}

	pdfs := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasSuffix(strings.ToLower(name), ".pdf") {
			pdfs = append(pdfs, name)
		}
	}
	c.JSON(http.StatusOK, gin.H{"pdf_files": pdfs})
}

// UploadFile handles POST /api/storage/upload-file (multipart).
func (h *StorageHandler) UploadFile(c *gin.Context) {
	bucketName := c.PostForm("bucket_name")
	if bucketName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: bucket_name"})
		return
	}

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

	if err := h.store.Upload(c.Request.Context(), bucketName, fileHeader.Filename, file); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("File '%s' uploaded successfully to bucket '%s'.", fileHeader.Filename, bucketName),
	})
}

// DeleteFile handles DELETE /api/storage/delete-file.
func (h *StorageHandler) DeleteFile(c *gin.Context) {
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BucketName == "" || req.FileName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: bucket_name, file_name"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), req.BucketName, req.FileName); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("File '%s' deleted successfully from bucket '%s'.", req.FileName, req.BucketName),
	})
}

// DownloadFile handles POST /api/storage/download-file.
func (h *StorageHandler) DownloadFile(c *gin.Context) {
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BucketName == "" || req.FileName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: bucket_name, file_name"})
		return
	}

	reader, err := h.store.Download(c.Request.Context(), req.BucketName, req.FileName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", req.FileName))
	c.Data(http.StatusOK, contentTypeFor(req.FileName), data)
}

func contentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(strings.ToLower(name), ".txt"):
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
