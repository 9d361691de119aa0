package guest

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	errors "github.com/msallam/hotel-management/internal"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]*Guest, error)
	GetByID(ctx context.Context, id string) (*Guest, error)
	Create(ctx context.Context, g *Guest) error
	Update(ctx context.Context, g *Guest) error
	Delete(ctx context.Context, id string) error
	BookingCount(ctx context.Context, guestID string) (int64, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) ListGuests(ctx context.Context, filter ListFilter) ([]*Guest, error) {
	guests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.NewStoreError("failed to list guests", err)
	}
	return guests, nil
}

func (s *Service) GetGuest(ctx context.Context, id string) (*Guest, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewStoreError("failed to get guest", err)
	}
	if g == nil {
		return nil, errors.NewNotFoundError("guest not found", errors.ErrCodeGuestNotFound)
	}
	return g, nil
}

func (s *Service) CreateGuest(ctx context.Context, dto CreateGuestDTO) (*Guest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	g := &Guest{
		ID:             uuid.New().String(),
		Name:           dto.Name,
		Email:          dto.Email,
		Phone:          dto.Phone,
		DocumentNumber: dto.DocumentNumber,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, errors.NewStoreError("failed to create guest", err)
	}

	s.logger.Info("guest created", "guest_id", g.ID)
	return g, nil
}

func (s *Service) UpdateGuest(ctx context.Context, id string, dto UpdateGuestDTO) (*Guest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	g, err := s.GetGuest(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		g.Name = *dto.Name
	}
	if dto.Email != nil {
		g.Email = dto.Email
	}
	if dto.Phone != nil {
		g.Phone = dto.Phone
	}
	if dto.DocumentNumber != nil {
		g.DocumentNumber = dto.DocumentNumber
	}

	if err := s.repo.Update(ctx, g); err != nil {
		return nil, errors.NewStoreError("failed to update guest", err)
	}
	return g, nil
}

// DeleteGuest refuses while bookings still reference the guest.
func (s *Service) DeleteGuest(ctx context.Context, id string) error {
	if _, err := s.GetGuest(ctx, id); err != nil {
		return err
	}

	bookings, err := s.repo.BookingCount(ctx, id)
	if err != nil {
		return errors.NewStoreError("failed to count guest bookings", err)
	}
	if bookings > 0 {
		return errors.NewConflictError("guest still has bookings", errors.ErrCodeGuestHasBookings).
			WithDetails(map[string]int64{"booking_count": bookings})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.NewStoreError("failed to delete guest", err)
	}
	s.logger.Info("guest deleted", "guest_id", id)
	return nil
}
