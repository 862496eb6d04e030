package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"autorag/internal/model"
	"autorag/internal/pkg/jwtutil"
	"autorag/internal/tenant"
	"autorag/internal/transport/http/response"
)

// UserLookup resolves token subjects to current users. A nil user means the
// account no longer exists.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// AuthJWT resolves the bearer token into a tenant identity and attaches it to
// the request context. The token's user must still exist in the workspace it
// names; workspace and role are taken from the stored user.
func AuthJWT(secret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "resolve user failed")
			c.Abort()
			return
		}
		if user == nil || user.WorkspaceID != claims.WorkspaceID {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "account no longer has access")
			c.Abort()
			return
		}

		id := tenant.Identity{
			UserID:      user.ID,
			WorkspaceID: user.WorkspaceID,
			Role:        user.Role,
		}
		c.Request = c.Request.WithContext(tenant.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// Identity returns the caller resolved by AuthJWT.
func Identity(c *gin.Context) (tenant.Identity, bool) {
	return tenant.FromContext(c.Request.Context())
}
