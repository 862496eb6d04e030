package handler

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"autorag/internal/app"
	"autorag/internal/transport/http/response"
)

type DocumentHandler struct {
	documentService *app.DocumentService
	log             *zap.Logger
}

func NewDocumentHandler(documentService *app.DocumentService, log *zap.Logger) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, log: log}
}

func (h *DocumentHandler) List(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	docs, err := h.documentService.List(c.Request.Context(), id.WorkspaceID)
	if err != nil {
		writeError(c, h.log, err, "list documents failed")
		return
	}
	response.OK(c, docs)
}

// Upload expects a multipart form with the file in the "file" field.
func (h *DocumentHandler) Upload(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unreadable file")
		return
	}
	defer file.Close()

	doc, err := h.documentService.Upload(c.Request.Context(), id.WorkspaceID, header.Filename, header.Size, file)
	if err != nil {
		writeError(c, h.log, err, "upload document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Download(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	rc, doc, err := h.documentService.Download(c.Request.Context(), id.WorkspaceID, documentID)
	if err != nil {
		writeError(c, h.log, err, "download document failed")
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	c.DataFromReader(http.StatusOK, doc.Size, "application/octet-stream", rc, nil)
}
