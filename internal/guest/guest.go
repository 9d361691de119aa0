package guest

import (
	"time"

	"github.com/msallam/hotel-management/internal/core/common/validation"
)

type Guest struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name           string    `json:"name" gorm:"size:255;not null"`
	Email          *string   `json:"email,omitempty" gorm:"size:255"`
	Phone          *string   `json:"phone,omitempty" gorm:"size:50"`
	DocumentNumber *string   `json:"document_number,omitempty" gorm:"size:100"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Guest) TableName() string {
	return "guests"
}

type CreateGuestDTO struct {
	Name           string  `json:"name"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	DocumentNumber *string `json:"document_number,omitempty"`
}

func (d CreateGuestDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("email", d.Email).Email()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateGuestDTO struct {
	Name           *string `json:"name,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	DocumentNumber *string `json:"document_number,omitempty"`
}

func (d UpdateGuestDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", d.Name).Required().MaxLength(255)
	}
	v.Field("email", d.Email).Email()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	Search string
}
