package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	errors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/guest"
	"github.com/msallam/hotel-management/internal/room"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	Create(ctx context.Context, b *Booking) error
	Update(ctx context.Context, b *Booking) error
	// OverlapCount counts non-cancelled bookings for the room intersecting
	// the [checkIn, checkOut) window, excluding excludeID when non-empty.
	OverlapCount(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeID string) (int64, error)
}

type RoomLookup interface {
	GetByID(ctx context.Context, id string) (*room.Room, error)
}

type GuestLookup interface {
	GetByID(ctx context.Context, id string) (*guest.Guest, error)
}

type Service struct {
	repo   Repository
	rooms  RoomLookup
	guests GuestLookup
	logger *slog.Logger
}

func NewService(repo Repository, rooms RoomLookup, guests GuestLookup, logger *slog.Logger) *Service {
	return &Service{repo: repo, rooms: rooms, guests: guests, logger: logger}
}

func (s *Service) ListBookings(ctx context.Context, filter ListFilter) ([]*Booking, error) {
	bookings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.NewStoreError("failed to list bookings", err)
	}
	return bookings, nil
}

func (s *Service) GetBooking(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewStoreError("failed to get booking", err)
	}
	if b == nil {
		return nil, errors.NewNotFoundError("booking not found", errors.ErrCodeBookingNotFound)
	}
	return b, nil
}

// CreateBooking books a room for a guest. The room must exist, not be under
// maintenance, and have no overlapping booking in the requested window. The
// total is the room's nightly price times the number of nights.
func (s *Service) CreateBooking(ctx context.Context, dto CreateBookingDTO) (*Booking, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	rm, err := s.rooms.GetByID(ctx, dto.RoomID)
	if err != nil {
		return nil, errors.NewStoreError("failed to get room", err)
	}
	if rm == nil {
		return nil, errors.NewNotFoundError("room not found", errors.ErrCodeRoomNotFound)
	}
	if rm.Status == room.StatusMaintenance {
		return nil, errors.NewConflictError("room is under maintenance", errors.ErrCodeRoomUnavailable)
	}

	g, err := s.guests.GetByID(ctx, dto.GuestID)
	if err != nil {
		return nil, errors.NewStoreError("failed to get guest", err)
	}
	if g == nil {
		return nil, errors.NewNotFoundError("guest not found", errors.ErrCodeGuestNotFound)
	}

	overlaps, err := s.repo.OverlapCount(ctx, dto.RoomID, dto.CheckIn, dto.CheckOut, "")
	if err != nil {
		return nil, errors.NewStoreError("failed to check room availability", err)
	}
	if overlaps > 0 {
		return nil, errors.NewConflictError("room is already booked for this period", errors.ErrCodeRoomUnavailable)
	}

	b := &Booking{
		ID:        uuid.New().String(),
		RoomID:    dto.RoomID,
		GuestID:   dto.GuestID,
		CheckIn:   dto.CheckIn,
		CheckOut:  dto.CheckOut,
		Status:    StatusPending,
		Notes:     dto.Notes,
		CreatedBy: errors.UserIDFromContext(ctx),
	}
	b.TotalAmount = int64(b.Nights()) * rm.PricePerNight

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, errors.NewStoreError("failed to create booking", err)
	}

	s.logger.Info("booking created", "booking_id", b.ID, "room_id", b.RoomID, "guest_id", b.GuestID)
	return b, nil
}

func (s *Service) UpdateBooking(ctx context.Context, id string, dto UpdateBookingDTO) (*Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Status != nil && *dto.Status != b.Status {
		if !b.Status.CanTransitionTo(*dto.Status) {
			return nil, errors.NewConflictError(
				fmt.Sprintf("cannot change booking from %s to %s", b.Status, *dto.Status),
				errors.ErrCodeInvalidBookingState,
			)
		}
		b.Status = *dto.Status
	}

	if dto.CheckIn != nil || dto.CheckOut != nil {
		checkIn, checkOut := b.CheckIn, b.CheckOut
		if dto.CheckIn != nil {
			checkIn = *dto.CheckIn
		}
		if dto.CheckOut != nil {
			checkOut = *dto.CheckOut
		}
		if !checkOut.After(checkIn) {
			return nil, errors.NewValidationFieldError("check_out", "check_out must be after check_in", errors.ErrCodeInvalidDate)
		}

		overlaps, err := s.repo.OverlapCount(ctx, b.RoomID, checkIn, checkOut, b.ID)
		if err != nil {
			return nil, errors.NewStoreError("failed to check room availability", err)
		}
		if overlaps > 0 {
			return nil, errors.NewConflictError("room is already booked for this period", errors.ErrCodeRoomUnavailable)
		}

		b.CheckIn = checkIn
		b.CheckOut = checkOut
		if rm, err := s.rooms.GetByID(ctx, b.RoomID); err == nil && rm != nil {
			b.TotalAmount = int64(b.Nights()) * rm.PricePerNight
		}
	}

	if dto.Notes != nil {
		b.Notes = dto.Notes
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, errors.NewStoreError("failed to update booking", err)
	}
	return b, nil
}

// CancelBooking moves a booking to cancelled. Checked out and already
// cancelled bookings cannot be cancelled.
func (s *Service) CancelBooking(ctx context.Context, id string) (*Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransitionTo(StatusCancelled) {
		return nil, errors.NewConflictError(
			fmt.Sprintf("cannot cancel a %s booking", b.Status),
			errors.ErrCodeInvalidBookingState,
		)
	}

	b.Status = StatusCancelled
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, errors.NewStoreError("failed to cancel booking", err)
	}

	s.logger.Info("booking cancelled", "booking_id", b.ID)
	return b, nil
}
