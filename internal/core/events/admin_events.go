package events

import (
	"time"

	"github.com/google/uuid"
)

// Admin mutation events. They feed the audit log subscriber; any cache of
// resolved permissions must also be invalidated on these.
const (
	EventTypePermissionsChanged      = "permissions.changed"
	EventTypeGroupPermissionsChanged = "group.permissions.changed"
	EventTypeUserPermissionsChanged  = "user.permissions.changed"
	EventTypeGroupChanged            = "group.changed"
	EventTypeUserChanged             = "user.changed"
)

type PermissionsChangedEvent struct {
	BaseEvent
	ActorID   string   `json:"actor_id"`
	Operation string   `json:"operation"`
	Affected  []string `json:"affected"`
}

func NewPermissionsChangedEvent(actorID, operation string, affected []string) *PermissionsChangedEvent {
	return &PermissionsChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermissionsChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"actor_id":  actorID,
				"operation": operation,
				"affected":  affected,
			},
		},
		ActorID:   actorID,
		Operation: operation,
		Affected:  affected,
	}
}

type GroupPermissionsChangedEvent struct {
	BaseEvent
	ActorID       string   `json:"actor_id"`
	GroupID       string   `json:"group_id"`
	Mode          string   `json:"mode"`
	PermissionIDs []string `json:"permission_ids"`
}

func NewGroupPermissionsChangedEvent(actorID, groupID, mode string, permissionIDs []string) *GroupPermissionsChangedEvent {
	return &GroupPermissionsChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeGroupPermissionsChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"actor_id":       actorID,
				"group_id":       groupID,
				"mode":           mode,
				"permission_ids": permissionIDs,
			},
		},
		ActorID:       actorID,
		GroupID:       groupID,
		Mode:          mode,
		PermissionIDs: permissionIDs,
	}
}

type UserPermissionsChangedEvent struct {
	BaseEvent
	ActorID       string   `json:"actor_id"`
	UserID        string   `json:"user_id"`
	Mode          string   `json:"mode"`
	PermissionIDs []string `json:"permission_ids"`
}

func NewUserPermissionsChangedEvent(actorID, userID, mode string, permissionIDs []string) *UserPermissionsChangedEvent {
	return &UserPermissionsChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserPermissionsChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"actor_id":       actorID,
				"user_id":        userID,
				"mode":           mode,
				"permission_ids": permissionIDs,
			},
		},
		ActorID:       actorID,
		UserID:        userID,
		Mode:          mode,
		PermissionIDs: permissionIDs,
	}
}

type GroupChangedEvent struct {
	BaseEvent
	ActorID   string `json:"actor_id"`
	GroupID   string `json:"group_id"`
	Operation string `json:"operation"`
}

func NewGroupChangedEvent(actorID, groupID, operation string) *GroupChangedEvent {
	return &GroupChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeGroupChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"actor_id":  actorID,
				"group_id":  groupID,
				"operation": operation,
			},
		},
		ActorID:   actorID,
		GroupID:   groupID,
		Operation: operation,
	}
}

type UserChangedEvent struct {
	BaseEvent
	ActorID   string `json:"actor_id"`
	UserID    string `json:"user_id"`
	Operation string `json:"operation"`
}

func NewUserChangedEvent(actorID, userID, operation string) *UserChangedEvent {
	return &UserChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"actor_id":  actorID,
				"user_id":   userID,
				"operation": operation,
			},
		},
		ActorID:   actorID,
		UserID:    userID,
		Operation: operation,
	}
}
