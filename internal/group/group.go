package group

import (
	"time"

	"github.com/msallam/hotel-management/internal/permission"
)

// Group is a named permission bundle users can be assigned to. Its grants
// form the base layer of a member's effective permissions.
type Group struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Group) TableName() string {
	return "user_groups"
}

// GroupPermission links a group to a permission. IsAllowed defaults to true;
// an explicit false row is a deny the group hands down to its members.
type GroupPermission struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	GroupID      string    `json:"group_id" gorm:"uniqueIndex:idx_group_permission;type:varchar(36);not null"`
	PermissionID string    `json:"permission_id" gorm:"uniqueIndex:idx_group_permission;type:varchar(36);not null"`
	IsAllowed    bool      `json:"is_allowed" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
}

func (GroupPermission) TableName() string {
	return "group_permissions"
}

// GroupWithPermissions is a group joined with its grant rows, used by the
// detail endpoint and export.
type GroupWithPermissions struct {
	Group
	Permissions []permission.Grant `json:"permissions"`
	UserCount   int64              `json:"user_count"`
}

// Stats summarizes the group landscape for the admin dashboard.
type Stats struct {
	TotalGroups    int64             `json:"total_groups"`
	ActiveGroups   int64             `json:"active_groups"`
	InactiveGroups int64             `json:"inactive_groups"`
	UsersPerGroup  map[string]int64  `json:"users_per_group"`
	AvgPermissions float64           `json:"avg_permissions_per_group"`
	TopPermissions []PermissionUsage `json:"top_permissions"`
}

// PermissionUsage ranks a permission by how many groups grant it.
type PermissionUsage struct {
	Key        string `json:"key"`
	GroupCount int64  `json:"group_count"`
}
