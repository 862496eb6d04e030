package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                 = 0
	CodeBadRequest         = 40000
	CodeEmailExists        = 40002
	CodeInvalidShareLink   = 40003
	CodeCannotRemoveOwner  = 40004
	CodeEmbeddingDimension = 40005
	CodeUnauthorized       = 40100
	CodeInvalidCredentials = 40101
	CodeForbidden          = 40300
	CodeDocumentNotFound   = 40401
	CodeUserNotFound       = 40402
	CodeNotConfigured      = 40901
	CodeNoDocumentSelected = 40902
	CodeInternalServer     = 50000
	CodeProcessorFailed    = 50201
	CodeGenerationFailed   = 50202
	CodeServiceUnavailable = 50300
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
