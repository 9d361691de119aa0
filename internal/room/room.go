package room

import (
	"strings"
	"time"

	errors "github.com/msallam/hotel-management/internal"
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusOccupied    Status = "occupied"
	StatusMaintenance Status = "maintenance"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusMaintenance:
		return true
	}
	return false
}

type Room struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	HotelID       string    `json:"hotel_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_hotel_room_number"`
	Number        string    `json:"number" gorm:"size:20;not null;uniqueIndex:idx_hotel_room_number"`
	Type          string    `json:"type" gorm:"size:50"`
	Capacity      int       `json:"capacity"`
	PricePerNight int64     `json:"price_per_night"`
	Status        Status    `json:"status" gorm:"size:20;default:available"`
	CreatedBy     string    `json:"created_by" gorm:"type:varchar(36)"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Room) TableName() string {
	return "rooms"
}

type CreateRoomDTO struct {
	HotelID       string `json:"hotel_id"`
	Number        string `json:"number"`
	Type          string `json:"type"`
	Capacity      int    `json:"capacity"`
	PricePerNight int64  `json:"price_per_night"`
}

func (d CreateRoomDTO) Validate() error {
	if d.HotelID == "" {
		return errors.NewValidationFieldError("hotel_id", "hotel_id is required", errors.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.Number) == "" {
		return errors.NewValidationFieldError("number", "number is required", errors.ErrCodeValidationFailed)
	}
	if d.Capacity <= 0 {
		return errors.NewValidationFieldError("capacity", "capacity must be positive", errors.ErrCodeValidationFailed)
	}
	if d.PricePerNight < 0 {
		return errors.NewValidationFieldError("price_per_night", "price_per_night must not be negative", errors.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateRoomDTO struct {
	Number        *string `json:"number,omitempty"`
	Type          *string `json:"type,omitempty"`
	Capacity      *int    `json:"capacity,omitempty"`
	PricePerNight *int64  `json:"price_per_night,omitempty"`
	Status        *Status `json:"status,omitempty"`
}

func (d UpdateRoomDTO) Validate() error {
	if d.Number != nil && strings.TrimSpace(*d.Number) == "" {
		return errors.NewValidationFieldError("number", "number must not be empty", errors.ErrCodeValidationFailed)
	}
	if d.Capacity != nil && *d.Capacity <= 0 {
		return errors.NewValidationFieldError("capacity", "capacity must be positive", errors.ErrCodeValidationFailed)
	}
	if d.PricePerNight != nil && *d.PricePerNight < 0 {
		return errors.NewValidationFieldError("price_per_night", "price_per_night must not be negative", errors.ErrCodeValidationFailed)
	}
	if d.Status != nil && !d.Status.Valid() {
		return errors.NewValidationFieldError("status", "status must be available, occupied or maintenance", errors.ErrCodeValidationFailed)
	}
	return nil
}

type ListFilter struct {
	HotelID     string
	Status      Status
	MinCapacity int
}
