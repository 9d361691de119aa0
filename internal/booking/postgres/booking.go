package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/msallam/hotel-management/internal/booking"
	"github.com/msallam/hotel-management/internal/core/database"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) List(ctx context.Context, filter booking.ListFilter) ([]*booking.Booking, error) {
	q := database.GetDB(ctx, r.db).Model(&booking.Booking{})
	if filter.RoomID != "" {
		q = q.Where("room_id = ?", filter.RoomID)
	}
	if filter.GuestID != "" {
		q = q.Where("guest_id = ?", filter.GuestID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if !filter.From.IsZero() {
		q = q.Where("check_out > ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("check_in < ?", filter.To)
	}

	var bookings []*booking.Booking
	err := q.Order("check_in DESC").Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var b booking.Booking
	err := database.GetDB(ctx, r.db).Where("id = ?", id).First(&b).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	return database.GetDB(ctx, r.db).Create(b).Error
}

func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	return database.GetDB(ctx, r.db).Save(b).Error
}

func (r *BookingRepository) OverlapCount(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeID string) (int64, error) {
	q := database.GetDB(ctx, r.db).Model(&booking.Booking{}).
		Where("room_id = ?", roomID).
		Where("status NOT IN ?", []string{string(booking.StatusCancelled), string(booking.StatusCheckedOut)}).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	err := q.Count(&count).Error
	return count, err
}
