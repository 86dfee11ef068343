package middleware

import (
	"context"

	"github.com/evmotors/warranty-backend/pkg/auth"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
)

type contextKey string

const (
	ctxActor  contextKey = "actor"
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

// ActorFromContext returns the authenticated actor seeded by Auth.
func ActorFromContext(ctx context.Context) (auth.ActorRef, error) {
	if ctx == nil {
		return auth.ActorRef{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor context")
	}
	if actor, ok := ctx.Value(ctxActor).(auth.ActorRef); ok {
		return actor, nil
	}
	return auth.ActorRef{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor context")
}

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithActor injects an actor into the context. Used by Auth and by tests that
// bypass token parsing.
func WithActor(ctx context.Context, actor auth.ActorRef) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxActor, actor)
	ctx = context.WithValue(ctx, ctxUserID, actor.UserID.String())
	return context.WithValue(ctx, ctxRole, string(actor.Role))
}
