package hotel

import (
	"time"

	errors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/core/common/validation"
)

type Hotel struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Address     string    `json:"address" gorm:"size:500"`
	City        string    `json:"city" gorm:"size:100"`
	Country     string    `json:"country" gorm:"size:100"`
	StarRating  int       `json:"star_rating"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedBy   string    `json:"created_by" gorm:"type:varchar(36)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Hotel) TableName() string {
	return "hotels"
}

type CreateHotelDTO struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	StarRating  int     `json:"star_rating"`
	Description *string `json:"description,omitempty"`
}

func (d CreateHotelDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("star_rating", d.StarRating).IntRange(0, 5, errors.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateHotelDTO struct {
	Name        *string `json:"name,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	Country     *string `json:"country,omitempty"`
	StarRating  *int    `json:"star_rating,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (d UpdateHotelDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", d.Name).Required().MaxLength(255)
	}
	v.Field("star_rating", d.StarRating).IntRange(0, 5, errors.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	City       string
	Country    string
	Search     string
	ActiveOnly bool
}
