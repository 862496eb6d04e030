package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autorag/internal/app"
	"autorag/internal/transport/http/response"
)

type AuthHandler struct {
	authService    *app.AuthService
	accountService *app.AccountService
	log            *zap.Logger
}

type RegisterRequest struct {
	FullName     string `json:"full_name" binding:"required,max=128"`
	Email        string `json:"email" binding:"required,email,max=128"`
	Password     string `json:"password" binding:"required,min=8,max=128"`
	Organization string `json:"organization" binding:"max=128"`
	ShareToken   string `json:"share_token"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=128"`
	Password string `json:"password" binding:"required,max=128"`
}

func NewAuthHandler(authService *app.AuthService, accountService *app.AccountService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, accountService: accountService, log: log}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if req.ShareToken == "" {
		req.ShareToken = c.Query("share")
	}

	result, err := h.authService.Register(c.Request.Context(), app.RegisterInput{
		FullName:     req.FullName,
		Email:        req.Email,
		Password:     req.Password,
		Organization: req.Organization,
		ShareToken:   req.ShareToken,
	})
	if err != nil {
		writeError(c, h.log, err, "register failed")
		return
	}
	response.OK(c, result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err, "login failed")
		return
	}
	response.OK(c, result)
}

func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}

	user, err := h.accountService.Account(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, h.log, err, "fetch current user failed")
		return
	}
	response.OK(c, user)
}
