package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Devsama007/File-Share/internal/model"
	"github.com/Devsama007/File-Share/internal/pkg/errcode"
	"github.com/Devsama007/File-Share/internal/pkg/response"
	"github.com/Devsama007/File-Share/internal/service"
)

type FileHandler struct {
	files        *service.FileService
	maxFileSize  int64
	maxFileBatch int
}

func NewFileHandler(files *service.FileService, maxFileSize int64, maxFileBatch int) *FileHandler {
	return &FileHandler{files: files, maxFileSize: maxFileSize, maxFileBatch: maxFileBatch}
}

// Upload accepts a multipart batch under "files" (single "file" also
// works) and registers each stored blob.
func (h *FileHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "multipart form is required")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "no files uploaded")
		return
	}
	if len(headers) > h.maxFileBatch {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, fmt.Sprintf("at most %d files per upload", h.maxFileBatch))
		return
	}
	userID := getUserID(c)
	uploaded := make([]*model.File, 0, len(headers))
	for _, header := range headers {
		file, err := h.uploadOne(c, userID, header)
		if err != nil {
			if err != errHandled {
				handleError(c, err)
			}
			return
		}
		uploaded = append(uploaded, file)
	}
	response.Success(c, gin.H{"files": uploaded})
}

func (h *FileHandler) uploadOne(c *gin.Context, userID string, header *multipart.FileHeader) (*model.File, error) {
	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		response.Error(c, http.StatusRequestEntityTooLarge, errcode.ErrInvalidFile, "file too large")
		return nil, errHandled
	}
	opened, err := header.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to open file")
		return nil, errHandled
	}
	defer opened.Close()
	return h.files.Upload(c.Request.Context(), service.UploadInput{
		OwnerID:      userID,
		OriginalName: header.Filename,
		DeclaredType: header.Header.Get("Content-Type"),
		Size:         header.Size,
		Content:      opened,
	})
}

func (h *FileHandler) Mine(c *gin.Context) {
	items, err := h.files.ListOwn(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"files": items})
}

func (h *FileHandler) Shared(c *gin.Context) {
	items, err := h.files.ListShared(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"files": items})
}

func (h *FileHandler) Download(c *gin.Context) {
	file, stream, err := h.files.Download(c.Request.Context(), getUserID(c), c.Param("file_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	streamFile(c, file, stream)
}

func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.files.Delete(c.Request.Context(), getUserID(c), c.Param("file_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func streamFile(c *gin.Context, file *model.File, stream io.ReadCloser) {
	defer stream.Close()
	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := file.OriginalName
	if name == "" {
		name = "download"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	// no Content-Length here: the response may pass through the gzip
	// middleware, which changes the body size on the wire
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, stream)
}
