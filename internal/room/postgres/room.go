package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/msallam/hotel-management/internal/core/database"
	"github.com/msallam/hotel-management/internal/room"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) List(ctx context.Context, filter room.ListFilter) ([]*room.Room, error) {
	q := database.GetDB(ctx, r.db).Model(&room.Room{})
	if filter.HotelID != "" {
		q = q.Where("hotel_id = ?", filter.HotelID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.MinCapacity > 0 {
		q = q.Where("capacity >= ?", filter.MinCapacity)
	}

	var rooms []*room.Room
	err := q.Order("hotel_id ASC, number ASC").Find(&rooms).Error
	return rooms, err
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (*room.Room, error) {
	var rm room.Room
	err := database.GetDB(ctx, r.db).Where("id = ?", id).First(&rm).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepository) GetByNumber(ctx context.Context, hotelID, number string) (*room.Room, error) {
	var rm room.Room
	err := database.GetDB(ctx, r.db).
		Where("hotel_id = ? AND number = ?", hotelID, number).
		First(&rm).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepository) Create(ctx context.Context, rm *room.Room) error {
	return database.GetDB(ctx, r.db).Create(rm).Error
}

func (r *RoomRepository) Update(ctx context.Context, rm *room.Room) error {
	return database.GetDB(ctx, r.db).Save(rm).Error
}

func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	return database.GetDB(ctx, r.db).Where("id = ?", id).Delete(&room.Room{}).Error
}

func (r *RoomRepository) ActiveBookingCount(ctx context.Context, roomID string) (int64, error) {
	var count int64
	err := database.GetDB(ctx, r.db).Table("bookings").
		Where("room_id = ? AND status NOT IN ?", roomID, []string{"cancelled", "checked_out"}).
		Count(&count).Error
	return count, err
}
