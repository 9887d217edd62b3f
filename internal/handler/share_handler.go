package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Devsama007/File-Share/internal/model"
	"github.com/Devsama007/File-Share/internal/pkg/errcode"
	"github.com/Devsama007/File-Share/internal/pkg/response"
	"github.com/Devsama007/File-Share/internal/service"
)

type ShareHandler struct {
	shares *service.ShareService
	files  *service.FileService
}

func NewShareHandler(shares *service.ShareService, files *service.FileService) *ShareHandler {
	return &ShareHandler{shares: shares, files: files}
}

type createUserShareRequest struct {
	FileID    string   `json:"file_id"`
	UserIDs   []string `json:"user_ids"`
	ExpiresAt int64    `json:"expires_at"`
}

type createLinkShareRequest struct {
	FileID    string `json:"file_id"`
	ExpiresAt int64  `json:"expires_at"`
}

type resolvedShareResponse struct {
	Share *model.Share `json:"share"`
	File  *model.File  `json:"file"`
}

func (h *ShareHandler) CreateUserShare(c *gin.Context) {
	var req createUserShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.FileID == "" || len(req.UserIDs) == 0 {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "file_id and user_ids are required")
		return
	}
	share, err := h.shares.CreateUserShare(c.Request.Context(), getUserID(c), req.FileID, req.UserIDs, req.ExpiresAt)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"share": share})
}

func (h *ShareHandler) CreateLinkShare(c *gin.Context) {
	var req createLinkShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.FileID == "" {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "file_id is required")
		return
	}
	share, err := h.shares.CreateLinkShare(c.Request.Context(), getUserID(c), req.FileID, req.ExpiresAt)
	if err != nil {
		handleError(c, err)
		return
	}
	shareLink := requestBaseURL(c) + "/api/v1/public/shares/" + share.LinkToken
	response.Success(c, gin.H{"share": share, "share_link": shareLink})
}

func (h *ShareHandler) ListByFile(c *gin.Context) {
	items, err := h.shares.ListByFile(c.Request.Context(), getUserID(c), c.Param("file_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"shares": items})
}

func (h *ShareHandler) Delete(c *gin.Context) {
	if err := h.shares.Delete(c.Request.Context(), getUserID(c), c.Param("share_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// ResolveLink answers with the file behind a link token. Possession of the
// token is the only requirement; routing decides whether the route sits
// behind authentication.
func (h *ShareHandler) ResolveLink(c *gin.Context) {
	share, file, err := h.shares.ResolveByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resolvedShareResponse{Share: share, File: file})
}

// DownloadByLink streams the blob behind a link token.
func (h *ShareHandler) DownloadByLink(c *gin.Context) {
	file, stream, err := h.files.DownloadByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	streamFile(c, file, stream)
}
