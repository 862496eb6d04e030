package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autorag/internal/app"
	"autorag/internal/transport/http/response"
)

type AccountHandler struct {
	accountService *app.AccountService
	log            *zap.Logger
}

type UpdateAccountRequest struct {
	FullName     string `json:"full_name" binding:"required,max=128"`
	Organization string `json:"organization" binding:"max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
}

func NewAccountHandler(accountService *app.AccountService, log *zap.Logger) *AccountHandler {
	return &AccountHandler{accountService: accountService, log: log}
}

func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	user, err := h.accountService.Account(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, h.log, err, "fetch account failed")
		return
	}
	response.OK(c, user)
}

func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	user, err := h.accountService.UpdateAccount(c.Request.Context(), id.UserID, req.FullName, req.Organization)
	if err != nil {
		writeError(c, h.log, err, "update account failed")
		return
	}
	response.OK(c, user)
}

func (h *AccountHandler) ChangePassword(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.accountService.ChangePassword(c.Request.Context(), id.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, h.log, err, "change password failed")
		return
	}
	response.OK(c, nil)
}
