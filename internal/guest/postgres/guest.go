package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/msallam/hotel-management/internal/core/database"
	"github.com/msallam/hotel-management/internal/guest"
)

type GuestRepository struct {
	db *gorm.DB
}

func NewGuestRepository(db *gorm.DB) *GuestRepository {
	return &GuestRepository{db: db}
}

func (r *GuestRepository) List(ctx context.Context, filter guest.ListFilter) ([]*guest.Guest, error) {
	q := database.GetDB(ctx, r.db).Model(&guest.Guest{})
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(document_number) LIKE ?",
			pattern, pattern, pattern)
	}

	var guests []*guest.Guest
	err := q.Order("name ASC").Find(&guests).Error
	return guests, err
}

func (r *GuestRepository) GetByID(ctx context.Context, id string) (*guest.Guest, error) {
	var g guest.Guest
	err := database.GetDB(ctx, r.db).Where("id = ?", id).First(&g).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *GuestRepository) Create(ctx context.Context, g *guest.Guest) error {
	return database.GetDB(ctx, r.db).Create(g).Error
}

func (r *GuestRepository) Update(ctx context.Context, g *guest.Guest) error {
	return database.GetDB(ctx, r.db).Save(g).Error
}

func (r *GuestRepository) Delete(ctx context.Context, id string) error {
	return database.GetDB(ctx, r.db).Where("id = ?", id).Delete(&guest.Guest{}).Error
}

func (r *GuestRepository) BookingCount(ctx context.Context, guestID string) (int64, error) {
	var count int64
	err := database.GetDB(ctx, r.db).Table("bookings").
		Where("guest_id = ?", guestID).
		Count(&count).Error
	return count, err
}
