package middleware

import (
	"log/slog"
	"net/http"

	"github.com/msallam/hotel-management/internal/auth"
	"github.com/msallam/hotel-management/internal/permission"
)

// RequirePermission guards a route with a (module, action) check. The
// effective set is resolved once per request and memoized in the context, so
// stacked guards and handlers reuse the same snapshot. Resolution failures
// deny access.
func RequirePermission(resolver *permission.Resolver, module, action string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := auth.UserFromContext(r.Context())
			if !ok {
				writeForbidden(w, "missing authenticated user")
				return
			}

			ctx := r.Context()
			set, cached := permission.EffectiveSetFromContext(ctx)
			if !cached {
				var err error
				set, err = resolver.EffectiveSet(ctx, u.ID)
				if err != nil {
					log.Error("permission resolution failed, denying",
						"user_id", u.ID, "module", module, "action", action, "error", err)
					writeForbidden(w, "insufficient permissions")
					return
				}
				ctx = permission.ContextWithEffectiveSet(ctx, set)
			}

			if !set.Allowed(permission.Key{Module: module, Action: action}) {
				log.Warn("access denied",
					"user_id", u.ID, "module", module, "action", action)
				writeForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeForbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"error":{"type":"FORBIDDEN","code":"MISSING_PERMISSIONS","message":"` + message + `"}}`))
}
