package booking

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/msallam/hotel-management/internal/transport"
)

type ServiceAPI interface {
	ListBookings(ctx context.Context, filter ListFilter) ([]*Booking, error)
	GetBooking(ctx context.Context, id string) (*Booking, error)
	CreateBooking(ctx context.Context, dto CreateBookingDTO) (*Booking, error)
	UpdateBooking(ctx context.Context, id string, dto UpdateBookingDTO) (*Booking, error)
	CancelBooking(ctx context.Context, id string) (*Booking, error)
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
		RoomID:  r.URL.Query().Get("room_id"),
		GuestID: r.URL.Query().Get("guest_id"),
		Status:  Status(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = t
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = t
		}
	}

	bookings, err := h.Service.ListBookings(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"total":    len(bookings),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateBookingDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	b, err := h.Service.CreateBooking(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var dto UpdateBookingDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	b, err := h.Service.UpdateBooking(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.CancelBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, b)
}
