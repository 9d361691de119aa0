package booking

import (
	"time"

	errors "github.com/msallam/hotel-management/internal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCancelled  Status = "cancelled"
)

// transitions lists the allowed status changes. Cancelled and checked out
// are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn: {StatusCheckedOut},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RoomID      string    `json:"room_id" gorm:"type:varchar(36);not null;index"`
	GuestID     string    `json:"guest_id" gorm:"type:varchar(36);not null;index"`
	CheckIn     time.Time `json:"check_in" gorm:"not null"`
	CheckOut    time.Time `json:"check_out" gorm:"not null"`
	Status      Status    `json:"status" gorm:"size:20;default:pending"`
	TotalAmount int64     `json:"total_amount"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedBy   string    `json:"created_by" gorm:"type:varchar(36)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

type CreateBookingDTO struct {
	RoomID   string    `json:"room_id"`
	GuestID  string    `json:"guest_id"`
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Notes    *string   `json:"notes,omitempty"`
}

func (d CreateBookingDTO) Validate() error {
	if d.RoomID == "" {
		return errors.NewValidationFieldError("room_id", "room_id is required", errors.ErrCodeValidationFailed)
	}
	if d.GuestID == "" {
		return errors.NewValidationFieldError("guest_id", "guest_id is required", errors.ErrCodeValidationFailed)
	}
	if d.CheckIn.IsZero() || d.CheckOut.IsZero() {
		return errors.NewValidationFieldError("check_in", "check_in and check_out are required", errors.ErrCodeInvalidDate)
	}
	if !d.CheckOut.After(d.CheckIn) {
		return errors.NewValidationFieldError("check_out", "check_out must be after check_in", errors.ErrCodeInvalidDate)
	}
	return nil
}

type UpdateBookingDTO struct {
	CheckIn  *time.Time `json:"check_in,omitempty"`
	CheckOut *time.Time `json:"check_out,omitempty"`
	Status   *Status    `json:"status,omitempty"`
	Notes    *string    `json:"notes,omitempty"`
}

type ListFilter struct {
	RoomID  string
	GuestID string
	Status  Status
	From    time.Time
	To      time.Time
}
