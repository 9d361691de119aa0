package room

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	errors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/hotel"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]*Room, error)
	GetByID(ctx context.Context, id string) (*Room, error)
	GetByNumber(ctx context.Context, hotelID, number string) (*Room, error)
	Create(ctx context.Context, r *Room) error
	Update(ctx context.Context, r *Room) error
	Delete(ctx context.Context, id string) error
	ActiveBookingCount(ctx context.Context, roomID string) (int64, error)
}

type HotelLookup interface {
	GetByID(ctx context.Context, id string) (*hotel.Hotel, error)
}

type Service struct {
	repo   Repository
	hotels HotelLookup
	logger *slog.Logger
}

func NewService(repo Repository, hotels HotelLookup, logger *slog.Logger) *Service {
	return &Service{repo: repo, hotels: hotels, logger: logger}
}

func (s *Service) ListRooms(ctx context.Context, filter ListFilter) ([]*Room, error) {
	rooms, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.NewStoreError("failed to list rooms", err)
	}
	return rooms, nil
}

func (s *Service) GetRoom(ctx context.Context, id string) (*Room, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewStoreError("failed to get room", err)
	}
	if r == nil {
		return nil, errors.NewNotFoundError("room not found", errors.ErrCodeRoomNotFound)
	}
	return r, nil
}

func (s *Service) CreateRoom(ctx context.Context, dto CreateRoomDTO) (*Room, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	h, err := s.hotels.GetByID(ctx, dto.HotelID)
	if err != nil {
		return nil, errors.NewStoreError("failed to get hotel", err)
	}
	if h == nil {
		return nil, errors.NewNotFoundError("hotel not found", errors.ErrCodeHotelNotFound)
	}

	existing, err := s.repo.GetByNumber(ctx, dto.HotelID, dto.Number)
	if err != nil {
		return nil, errors.NewStoreError("failed to check room number", err)
	}
	if existing != nil {
		return nil, errors.NewConflictError("room number already exists in this hotel", errors.ErrCodeDuplicateKey)
	}

	r := &Room{
		ID:            uuid.New().String(),
		HotelID:       dto.HotelID,
		Number:        dto.Number,
		Type:          dto.Type,
		Capacity:      dto.Capacity,
		PricePerNight: dto.PricePerNight,
		Status:        StatusAvailable,
		CreatedBy:     errors.UserIDFromContext(ctx),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, errors.NewStoreError("failed to create room", err)
	}

	s.logger.Info("room created", "room_id", r.ID, "hotel_id", r.HotelID, "number", r.Number)
	return r, nil
}

func (s *Service) UpdateRoom(ctx context.Context, id string, dto UpdateRoomDTO) (*Room, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	r, err := s.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Number != nil && *dto.Number != r.Number {
		existing, err := s.repo.GetByNumber(ctx, r.HotelID, *dto.Number)
		if err != nil {
			return nil, errors.NewStoreError("failed to check room number", err)
		}
		if existing != nil && existing.ID != r.ID {
			return nil, errors.NewConflictError("room number already exists in this hotel", errors.ErrCodeDuplicateKey)
		}
		r.Number = *dto.Number
	}
	if dto.Type != nil {
		r.Type = *dto.Type
	}
	if dto.Capacity != nil {
		r.Capacity = *dto.Capacity
	}
	if dto.PricePerNight != nil {
		r.PricePerNight = *dto.PricePerNight
	}
	if dto.Status != nil {
		r.Status = *dto.Status
	}

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, errors.NewStoreError("failed to update room", err)
	}
	return r, nil
}

// DeleteRoom refuses while the room has bookings that are not cancelled or
// checked out.
func (s *Service) DeleteRoom(ctx context.Context, id string) error {
	if _, err := s.GetRoom(ctx, id); err != nil {
		return err
	}

	active, err := s.repo.ActiveBookingCount(ctx, id)
	if err != nil {
		return errors.NewStoreError("failed to count room bookings", err)
	}
	if active > 0 {
		return errors.NewConflictError("room still has active bookings", errors.ErrCodeRoomHasBookings).
			WithDetails(map[string]int64{"booking_count": active})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.NewStoreError("failed to delete room", err)
	}
	s.logger.Info("room deleted", "room_id", id)
	return nil
}
