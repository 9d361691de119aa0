package hotel

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	errors "github.com/msallam/hotel-management/internal"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]*Hotel, error)
	GetByID(ctx context.Context, id string) (*Hotel, error)
	Create(ctx context.Context, h *Hotel) error
	Update(ctx context.Context, h *Hotel) error
	Delete(ctx context.Context, id string) error
	RoomCount(ctx context.Context, hotelID string) (int64, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) ListHotels(ctx context.Context, filter ListFilter) ([]*Hotel, error) {
	hotels, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.NewStoreError("failed to list hotels", err)
	}
	return hotels, nil
}

func (s *Service) GetHotel(ctx context.Context, id string) (*Hotel, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewStoreError("failed to get hotel", err)
	}
	if h == nil {
		return nil, errors.NewNotFoundError("hotel not found", errors.ErrCodeHotelNotFound)
	}
	return h, nil
}

func (s *Service) CreateHotel(ctx context.Context, dto CreateHotelDTO) (*Hotel, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	h := &Hotel{
		ID:          uuid.New().String(),
		Name:        dto.Name,
		Address:     dto.Address,
		City:        dto.City,
		Country:     dto.Country,
		StarRating:  dto.StarRating,
		Description: dto.Description,
		IsActive:    true,
		CreatedBy:   errors.UserIDFromContext(ctx),
	}
	if err := s.repo.Create(ctx, h); err != nil {
		return nil, errors.NewStoreError("failed to create hotel", err)
	}

	s.logger.Info("hotel created", "hotel_id", h.ID, "name", h.Name)
	return h, nil
}

func (s *Service) UpdateHotel(ctx context.Context, id string, dto UpdateHotelDTO) (*Hotel, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	h, err := s.GetHotel(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		h.Name = *dto.Name
	}
	if dto.Address != nil {
		h.Address = *dto.Address
	}
	if dto.City != nil {
		h.City = *dto.City
	}
	if dto.Country != nil {
		h.Country = *dto.Country
	}
	if dto.StarRating != nil {
		h.StarRating = *dto.StarRating
	}
	if dto.Description != nil {
		h.Description = dto.Description
	}
	if dto.IsActive != nil {
		h.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, h); err != nil {
		return nil, errors.NewStoreError("failed to update hotel", err)
	}
	return h, nil
}

// DeleteHotel refuses while rooms still belong to the hotel.
func (s *Service) DeleteHotel(ctx context.Context, id string) error {
	if _, err := s.GetHotel(ctx, id); err != nil {
		return err
	}

	roomCount, err := s.repo.RoomCount(ctx, id)
	if err != nil {
		return errors.NewStoreError("failed to count hotel rooms", err)
	}
	if roomCount > 0 {
		return errors.NewConflictError("hotel still has rooms", errors.ErrCodeHotelHasRooms).
			WithDetails(map[string]int64{"room_count": roomCount})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.NewStoreError("failed to delete hotel", err)
	}
	s.logger.Info("hotel deleted", "hotel_id", id)
	return nil
}
