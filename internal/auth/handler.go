package auth

import (
	"context"
	"net/http"

	errors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/permission"
	"github.com/msallam/hotel-management/internal/transport"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (*LoginResponse, error)
	RefreshTokens(ctx context.Context, dto RefreshTokenDTO) (*AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Resolver *permission.Resolver
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, resolver *permission.Resolver) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Resolver:    resolver,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

// Logout is stateless: tokens are short-lived and not tracked server side, so
// the endpoint only acknowledges the client discarding them.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated account with its effective permissions.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, errors.ErrInvalidToken)
		return
	}

	eps, err := h.Resolver.EffectivePermissions(r.Context(), u.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user": SessionUser{
			ID:      u.ID,
			Email:   u.Email,
			Name:    u.Name,
			GroupID: u.GroupID,
		},
		"permissions": eps,
	})
}
