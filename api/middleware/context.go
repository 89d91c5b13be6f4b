package middleware

import (
	"context"

	"github.com/voltbridge/markethub/pkg/enums"
)

type contextKey string

const (
	ctxActorNumber contextKey = "actor_number"
	ctxActorRole   contextKey = "actor_role"
)

// WithActor injects the authenticated market actor into the context.
func WithActor(ctx context.Context, number string, role enums.ActorRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxActorNumber, number)
	return context.WithValue(ctx, ctxActorRole, role)
}

func ActorNumberFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorNumber).(string); ok {
		return v
	}
	return ""
}

func ActorRoleFromContext(ctx context.Context) enums.ActorRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorRole).(enums.ActorRole); ok {
		return v
	}
	return ""
}
