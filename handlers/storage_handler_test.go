package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"gradia-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newStorageRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewStorageHandler(store)
	r.POST("/create-bucket", h.CreateBucket)
	r.DELETE("/delete-bucket", h.DeleteBucket)
	r.POST("/list-files", h.ListFiles)
	r.POST("/upload-file", h.UploadFile)
	r.DELETE("/delete-file", h.DeleteFile)
	r.POST("/download-file", h.DownloadFile)
	return r
}

func uploadFile(t *testing.T, r *gin.Engine, bucket, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("bucket_name", bucket))
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-file", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStorageHandlerBucketLifecycle(t *testing.T) {
	r := newStorageRouter(t)

	w := postJSON(t, r, "/create-bucket", `{"bucket_name": "bio101"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "created successfully")

	w = uploadFile(t, r, "bio101", "notes.pdf", "pdf bytes")
	require.Equal(t, http.StatusOK, w.Code)

	w = uploadFile(t, r, "bio101", "syllabus.txt", "text")
	require.Equal(t, http.StatusOK, w.Code)

	// Only PDFs count as reference material.
	w = postJSON(t, r, "/list-files", `{"bucket_name": "bio101"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		PDFFiles []string `json:"pdf_files"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Equal(t, []string{"notes.pdf"}, listing.PDFFiles)

	w = postJSON(t, r, "/download-file", `{"bucket_name": "bio101", "file_name": "notes.pdf"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Equal(t, "pdf bytes", w.Body.String())

	req := httptest.NewRequest(http.MethodDelete, "/delete-file", bytes.NewBufferString(`{"bucket_name": "bio101", "file_name": "notes.pdf"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/delete-bucket", bytes.NewBufferString(`{"bucket_name": "bio101"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestStorageHandlerValidation(t *testing.T) {
	r := newStorageRouter(t)

	w := postJSON(t, r, "/create-bucket", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "bucket_name")

	w = postJSON(t, r, "/download-file", `{"bucket_name": "bio101"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "file_name")
}

func TestStorageHandlerListMissingBucket(t *testing.T) {
	r := newStorageRouter(t)

	w := postJSON(t, r, "/list-files", `{"bucket_name": "ghost"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "Failed to list PDFs")
}
