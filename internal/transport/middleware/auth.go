package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	errors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/auth"
	"github.com/msallam/hotel-management/internal/user"
	"github.com/msallam/hotel-management/pkg/logger"
)

// TokenValidator verifies an access token and returns its claims.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*auth.Claims, error)
}

// UserLoader fetches the account for a validated token.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// AuthMiddleware validates the bearer token, loads the account and puts both
// the user and the user id into the request context. Inactive accounts are
// rejected even with a valid token.
func AuthMiddleware(tokens TokenValidator, users UserLoader, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				writeAuthError(w, errors.ErrInvalidToken)
				return
			}

			claims, err := tokens.ValidateAccessToken(token)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			u, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				log.Error("failed to load user for token", "user_id", claims.UserID, "error", err)
				writeAuthError(w, errors.ErrInvalidToken)
				return
			}
			if u == nil {
				writeAuthError(w, errors.ErrInvalidToken)
				return
			}
			if !u.IsActive {
				writeAuthError(w, errors.ErrUserInactive)
				return
			}

			ctx := auth.ContextWithUser(r.Context(), u)
			ctx = errors.ContextWithUserID(ctx, u.ID)
			ctx = logger.With(ctx, "userID", u.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	body := `{"error":{"type":"UNAUTHORIZED","code":"INVALID_TOKEN","message":"invalid token"}}`
	if appErr, ok := errors.IsAppError(err); ok {
		status = appErr.StatusCode
		if data, merr := appErr.MarshalJSON(); merr == nil {
			body = `{"error":` + string(data) + `}`
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
