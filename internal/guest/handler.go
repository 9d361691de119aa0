package guest

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/msallam/hotel-management/internal/transport"
)

type ServiceAPI interface {
	ListGuests(ctx context.Context, filter ListFilter) ([]*Guest, error)
	GetGuest(ctx context.Context, id string) (*Guest, error)
	CreateGuest(ctx context.Context, dto CreateGuestDTO) (*Guest, error)
	UpdateGuest(ctx context.Context, id string, dto UpdateGuestDTO) (*Guest, error)
	DeleteGuest(ctx context.Context, id string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	guests, err := h.Service.ListGuests(r.Context(), ListFilter{
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"guests": guests,
		"total":  len(guests),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.Service.GetGuest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateGuestDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	g, err := h.Service.CreateGuest(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, g)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var dto UpdateGuestDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	g, err := h.Service.UpdateGuest(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteGuest(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
