// Package tenant carries the caller's workspace identity through a request.
package tenant

import (
	"context"

	"github.com/google/uuid"

	"autorag/internal/model"
)

type contextKey struct{}

// Identity is who is calling and which workspace they act in.
type Identity struct {
	UserID      uuid.UUID
	WorkspaceID uuid.UUID
	Role        string
}

func (i Identity) IsOwner() bool {
	return i.Role == model.RoleOwner
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity attached by the auth middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok || id.UserID == uuid.Nil || id.WorkspaceID == uuid.Nil {
		return Identity{}, false
	}
	return id, true
}
