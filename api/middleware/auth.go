package middleware

import (
	"net/http"
	"strings"

	"github.com/voltbridge/markethub/api/responses"
	pkgauth "github.com/voltbridge/markethub/pkg/auth"
	"github.com/voltbridge/markethub/pkg/config"
	pkgerrors "github.com/voltbridge/markethub/pkg/errors"
	"github.com/voltbridge/markethub/pkg/logger"
)

// Auth validates a bearer actor token and seeds the request context with the
// actor's identification number and market role.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseActorToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithActor(r.Context(), claims.ActorNumber, claims.ActorRole)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"actor_number": claims.ActorNumber,
					"actor_role":   claims.ActorRole.String(),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
