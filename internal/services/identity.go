package services

import (
	"context"

	"github.com/google/uuid"
)

// Identity is what the identity provider hands the core: an id plus optional
// profile metadata. A zero ID means "not authenticated" and every core
// operation no-ops gracefully.
type Identity struct {
	ID          uuid.UUID
	DisplayName string
	Email       string
}

type contextKey string

const identityContextKey contextKey = "chat_identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	if !ok || id.ID == uuid.Nil {
		return Identity{}, false
	}
	return id, true
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return id.ID, true
}
