package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autorag/internal/app"
	"autorag/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
	log         *zap.Logger
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required,max=8000"`
}

func NewChatHandler(chatService *app.ChatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, log: log}
}

func (h *ChatHandler) Send(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	reply, err := h.chatService.Send(c.Request.Context(), id.WorkspaceID, id.UserID, req.Message)
	if err != nil {
		writeError(c, h.log, err, "send message failed")
		return
	}
	response.OK(c, reply)
}

func (h *ChatHandler) History(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	messages, err := h.chatService.History(c.Request.Context(), id.WorkspaceID, id.UserID)
	if err != nil {
		writeError(c, h.log, err, "fetch history failed")
		return
	}
	response.OK(c, messages)
}
