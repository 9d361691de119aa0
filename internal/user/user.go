package user

import (
	"time"

	"github.com/msallam/hotel-management/internal/permission"
)

// User is a back office account. GroupID is nullable: a user without a group
// only has the permissions granted to them directly.
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Name         string     `json:"name" gorm:"size:255;not null"`
	PasswordHash string     `json:"-" gorm:"column:password_hash;not null"`
	GroupID      *string    `json:"group_id,omitempty" gorm:"type:varchar(36)"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserPermission is a per-user override row. It wins over whatever the user's
// group says for the same permission.
type UserPermission struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID       string    `json:"user_id" gorm:"uniqueIndex:idx_user_permission;type:varchar(36);not null"`
	PermissionID string    `json:"permission_id" gorm:"uniqueIndex:idx_user_permission;type:varchar(36);not null"`
	IsAllowed    bool      `json:"is_allowed" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}

// OwnershipCounts tallies the records a user authored. A user owning any of
// them is deactivated on delete instead of removed, so audit trails keep a
// valid author.
type OwnershipCounts struct {
	Bookings int64 `json:"bookings"`
	Hotels   int64 `json:"hotels"`
	Rooms    int64 `json:"rooms"`
}

func (c OwnershipCounts) Total() int64 {
	return c.Bookings + c.Hotels + c.Rooms
}

// PermissionSummary breaks a user's effective permissions down by origin for
// the admin detail view.
type PermissionSummary struct {
	UserID     string                                      `json:"user_id"`
	GroupID    *string                                     `json:"group_id,omitempty"`
	GroupName  *string                                     `json:"group_name,omitempty"`
	Direct     []permission.Grant                          `json:"direct"`
	FromGroup  []permission.Grant                          `json:"from_group"`
	Effective  []permission.EffectivePermission            `json:"effective"`
	ByModule   map[string][]permission.EffectivePermission `json:"by_module"`
	TotalCount int                                         `json:"total_count"`
}

// Stats summarizes the account base for the admin dashboard.
type Stats struct {
	TotalUsers    int64            `json:"total_users"`
	ActiveUsers   int64            `json:"active_users"`
	InactiveUsers int64            `json:"inactive_users"`
	WithoutGroup  int64            `json:"without_group"`
	WithOverrides int64            `json:"with_overrides"`
	UsersPerGroup map[string]int64 `json:"users_per_group"`
}

// DeleteOutcome reports whether a delete removed the user or downgraded to a
// deactivation because the user still owns records.
type DeleteOutcome struct {
	Deleted     bool             `json:"deleted"`
	Deactivated bool             `json:"deactivated"`
	Ownership   *OwnershipCounts `json:"ownership,omitempty"`
}
