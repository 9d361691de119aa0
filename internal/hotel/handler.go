package hotel

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/msallam/hotel-management/internal/transport"
)

type ServiceAPI interface {
	ListHotels(ctx context.Context, filter ListFilter) ([]*Hotel, error)
	GetHotel(ctx context.Context, id string) (*Hotel, error)
	CreateHotel(ctx context.Context, dto CreateHotelDTO) (*Hotel, error)
	UpdateHotel(ctx context.Context, id string, dto UpdateHotelDTO) (*Hotel, error)
	DeleteHotel(ctx context.Context, id string) error
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
	filter := ListFilter{
		City:       r.URL.Query().Get("city"),
		Country:    r.URL.Query().Get("country"),
		Search:     r.URL.Query().Get("search"),
		ActiveOnly: r.URL.Query().Get("active_only") == "true",
	}

	hotels, err := h.Service.ListHotels(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"hotels": hotels,
		"total":  len(hotels),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Service.GetHotel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, hotel)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateHotelDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	hotel, err := h.Service.CreateHotel(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, hotel)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var dto UpdateHotelDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	hotel, err := h.Service.UpdateHotel(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, hotel)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteHotel(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
