package room

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/msallam/hotel-management/internal/transport"
)

type ServiceAPI interface {
	ListRooms(ctx context.Context, filter ListFilter) ([]*Room, error)
	GetRoom(ctx context.Context, id string) (*Room, error)
	CreateRoom(ctx context.Context, dto CreateRoomDTO) (*Room, error)
	UpdateRoom(ctx context.Context, id string, dto UpdateRoomDTO) (*Room, error)
	DeleteRoom(ctx context.Context, id string) error
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
		HotelID: r.URL.Query().Get("hotel_id"),
		Status:  Status(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("min_capacity"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.MinCapacity = v
		}
	}

	rooms, err := h.Service.ListRooms(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": rooms,
		"total": len(rooms),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rm, err := h.Service.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rm)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateRoomDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	rm, err := h.Service.CreateRoom(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, rm)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var dto UpdateRoomDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	rm, err := h.Service.UpdateRoom(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rm)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteRoom(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
