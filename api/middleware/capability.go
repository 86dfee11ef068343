package middleware

import (
	"net/http"

	"github.com/evmotors/warranty-backend/api/responses"
	"github.com/evmotors/warranty-backend/internal/rbac"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/evmotors/warranty-backend/pkg/logger"
)

// RequireCapability rejects requests whose actor role lacks the capability.
func RequireCapability(capability rbac.Capability, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := ActorFromContext(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if !rbac.Allowed(actor.Role, capability) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role lacks permission").WithDetails(map[string]any{
					"capability": string(capability),
				}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
