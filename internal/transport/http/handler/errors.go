package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autorag/internal/app"
	"autorag/internal/tenant"
	"autorag/internal/transport/http/middleware"
	"autorag/internal/transport/http/response"
)

// writeError maps service errors onto HTTP statuses. Anything unrecognised is
// logged and reported with the generic fallback message.
func writeError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrDuplicateEmail):
		response.Error(c, http.StatusConflict, response.CodeEmailExists, err.Error())
	case errors.Is(err, app.ErrInvalidShareLink):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidShareLink, err.Error())
	case errors.Is(err, app.ErrCannotRemoveOwner):
		response.Error(c, http.StatusBadRequest, response.CodeCannotRemoveOwner, err.Error())
	case errors.Is(err, app.ErrEmbeddingDimension):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeEmbeddingDimension, err.Error())
	case errors.Is(err, app.ErrUnauthenticated):
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
	case errors.Is(err, app.ErrWrongCredentials):
		response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, err.Error())
	case errors.Is(err, app.ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, app.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.CodeUserNotFound, err.Error())
	case errors.Is(err, app.ErrNotConfigured):
		response.Error(c, http.StatusConflict, response.CodeNotConfigured, err.Error())
	case errors.Is(err, app.ErrNoDocumentSelected):
		response.Error(c, http.StatusConflict, response.CodeNoDocumentSelected, err.Error())
	case errors.Is(err, app.ErrProcessor):
		log.Warn(fallback, zap.Error(err))
		writeUpstreamError(c, err, response.CodeProcessorFailed, app.ErrProcessor.Error())
	case errors.Is(err, app.ErrGeneration):
		log.Warn(fallback, zap.Error(err))
		writeUpstreamError(c, err, response.CodeGenerationFailed, app.ErrGeneration.Error())
	default:
		log.Error(fallback, zap.Error(err), zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)))
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

// writeUpstreamError tells a transient outage, which is worth retrying, apart
// from a remote service that answered badly.
func writeUpstreamError(c *gin.Context, err error, code int, message string) {
	if app.IsRetryable(err) {
		response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, message)
		return
	}
	response.Error(c, http.StatusBadGateway, code, message)
}

func mustIdentity(c *gin.Context) (tenant.Identity, bool) {
	id, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return id, false
	}
	return id, true
}
