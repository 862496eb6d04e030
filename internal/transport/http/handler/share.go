package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"autorag/internal/app"
	"autorag/internal/transport/http/response"
)

type ShareHandler struct {
	shareService *app.ShareService
	log          *zap.Logger
}

type SetLinkEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type AddMemberRequest struct {
	FullName string `json:"full_name" binding:"required,max=128"`
	Email    string `json:"email" binding:"required,email,max=128"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

func NewShareHandler(shareService *app.ShareService, log *zap.Logger) *ShareHandler {
	return &ShareHandler{shareService: shareService, log: log}
}

func (h *ShareHandler) GetLink(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	link, err := h.shareService.GetOrCreateLink(c.Request.Context(), id.WorkspaceID)
	if err != nil {
		writeError(c, h.log, err, "fetch share link failed")
		return
	}
	response.OK(c, link)
}

func (h *ShareHandler) SetLinkEnabled(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	var req SetLinkEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	link, err := h.shareService.SetLinkEnabled(c.Request.Context(), id, *req.Enabled)
	if err != nil {
		writeError(c, h.log, err, "update share link failed")
		return
	}
	response.OK(c, link)
}

func (h *ShareHandler) ListMembers(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	members, err := h.shareService.ListMembers(c.Request.Context(), id.WorkspaceID)
	if err != nil {
		writeError(c, h.log, err, "list members failed")
		return
	}
	response.OK(c, members)
}

func (h *ShareHandler) AddMember(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	member, err := h.shareService.AddMember(c.Request.Context(), id, app.AddMemberInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.log, err, "add member failed")
		return
	}
	response.OK(c, member)
}

func (h *ShareHandler) RemoveMember(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid user id")
		return
	}

	if err := h.shareService.RemoveMember(c.Request.Context(), id, userID); err != nil {
		writeError(c, h.log, err, "remove member failed")
		return
	}
	response.OK(c, nil)
}
