package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/msallam/hotel-management/internal/core/database"
	"github.com/msallam/hotel-management/internal/hotel"
)

type HotelRepository struct {
	db *gorm.DB
}

func NewHotelRepository(db *gorm.DB) *HotelRepository {
	return &HotelRepository{db: db}
}

func (r *HotelRepository) List(ctx context.Context, filter hotel.ListFilter) ([]*hotel.Hotel, error) {
	q := database.GetDB(ctx, r.db).Model(&hotel.Hotel{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.City != "" {
		q = q.Where("city = ?", filter.City)
	}
	if filter.Country != "" {
		q = q.Where("country = ?", filter.Country)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(city) LIKE ?", pattern, pattern)
	}

	var hotels []*hotel.Hotel
	err := q.Order("name ASC").Find(&hotels).Error
	return hotels, err
}

func (r *HotelRepository) GetByID(ctx context.Context, id string) (*hotel.Hotel, error) {
	var h hotel.Hotel
	err := database.GetDB(ctx, r.db).Where("id = ?", id).First(&h).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func (r *HotelRepository) Create(ctx context.Context, h *hotel.Hotel) error {
	return database.GetDB(ctx, r.db).Create(h).Error
}

func (r *HotelRepository) Update(ctx context.Context, h *hotel.Hotel) error {
	return database.GetDB(ctx, r.db).Save(h).Error
}

func (r *HotelRepository) Delete(ctx context.Context, id string) error {
	return database.GetDB(ctx, r.db).Where("id = ?", id).Delete(&hotel.Hotel{}).Error
}

func (r *HotelRepository) RoomCount(ctx context.Context, hotelID string) (int64, error) {
	var count int64
	err := database.GetDB(ctx, r.db).Table("rooms").
		Where("hotel_id = ?", hotelID).
		Count(&count).Error
	return count, err
}
