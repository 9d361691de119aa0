package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	errors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/core/database"
	"github.com/msallam/hotel-management/internal/core/events"
	"github.com/msallam/hotel-management/internal/group"
	"github.com/msallam/hotel-management/internal/permission"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
	OwnershipCounts(ctx context.Context, userID string) (OwnershipCounts, error)
	FindPermissions(ctx context.Context, userID string) ([]permission.Grant, error)
	LinkedPermissionIDs(ctx context.Context, userID string, permissionIDs []string) ([]string, error)
	CreateLinks(ctx context.Context, links []*UserPermission) error
	DeleteLinks(ctx context.Context, userID string, permissionIDs []string) (int64, error)
	DeleteAllLinks(ctx context.Context, userID string) error
	CountWithOverrides(ctx context.Context) (int64, error)
}

type PermissionLookup interface {
	FindByIDs(ctx context.Context, ids []string) ([]*permission.Permission, error)
}

type GroupLookup interface {
	GetByID(ctx context.Context, id string) (*group.Group, error)
	FindPermissions(ctx context.Context, groupID string) ([]permission.Grant, error)
	UserCounts(ctx context.Context) (map[string]int64, error)
}

type Service struct {
	repo       Repository
	perms      PermissionLookup
	groups     GroupLookup
	txm        database.TransactionManager
	bus        *events.EventBus
	logger     *slog.Logger
	bcryptCost int
}

func NewService(repo Repository, perms PermissionLookup, groups GroupLookup, txm database.TransactionManager, bus *events.EventBus, logger *slog.Logger, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		perms:      perms,
		groups:     groups,
		txm:        txm,
		bus:        bus,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

func (s *Service) ListUsers(ctx context.Context, filter ListFilter) ([]*User, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.NewStoreError("failed to list users", err)
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewStoreError("failed to get user", err)
	}
	if u == nil {
		return nil, errors.NewNotFoundError("user not found", errors.ErrCodeUserNotFound)
	}
	return u, nil
}

func (s *Service) CreateUser(ctx context.Context, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		return nil, errors.NewStoreError("failed to check email", err)
	}
	if existing != nil {
		return nil, errors.NewConflictError("email is already in use", errors.ErrCodeDuplicateKey)
	}
	if dto.GroupID != nil {
		if err := s.checkGroupExists(ctx, *dto.GroupID); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: string(hash),
		GroupID:      dto.GroupID,
		IsActive:     true,
	}
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, errors.NewStoreError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", u.ID, "email", u.Email)
	s.publishUserChange(ctx, u.ID, "create")
	return u, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Email != nil && *dto.Email != u.Email {
		other, err := s.repo.GetByEmail(ctx, *dto.Email)
		if err != nil {
			return nil, errors.NewStoreError("failed to check email", err)
		}
		if other != nil && other.ID != u.ID {
			return nil, errors.NewConflictError("email is already in use", errors.ErrCodeDuplicateKey)
		}
		u.Email = *dto.Email
	}
	if dto.Name != nil {
		u.Name = *dto.Name
	}
	if dto.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*dto.Password), s.bcryptCost)
		if err != nil {
			return nil, errors.NewInternalError("failed to hash password", err)
		}
		u.PasswordHash = string(hash)
	}
	if dto.GroupID != nil {
		if *dto.GroupID == "" {
			u.GroupID = nil
		} else {
			if err := s.checkGroupExists(ctx, *dto.GroupID); err != nil {
				return nil, err
			}
			u.GroupID = dto.GroupID
		}
	}
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, errors.NewStoreError("failed to update user", err)
	}
	s.publishUserChange(ctx, u.ID, "update")
	return u, nil
}

// DeleteUser removes an account, unless the user authored bookings, hotels
// or rooms. In that case the account is deactivated instead so those records
// keep a valid author, and the outcome says so.
func (s *Service) DeleteUser(ctx context.Context, id string) (*DeleteOutcome, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	ownership, err := s.repo.OwnershipCounts(ctx, id)
	if err != nil {
		return nil, errors.NewStoreError("failed to count owned records", err)
	}
	if ownership.Total() > 0 {
		u.IsActive = false
		if err := s.repo.Update(ctx, u); err != nil {
			return nil, errors.NewStoreError("failed to deactivate user", err)
		}
		s.logger.Info("user deactivated instead of deleted",
			"user_id", id, "bookings", ownership.Bookings, "hotels", ownership.Hotels, "rooms", ownership.Rooms)
		s.publishUserChange(ctx, id, "deactivate")
		return &DeleteOutcome{Deactivated: true, Ownership: &ownership}, nil
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeleteAllLinks(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return nil, errors.NewStoreError("failed to delete user", err)
	}

	s.logger.Info("user deleted", "user_id", id)
	s.publishUserChange(ctx, id, "delete")
	return &DeleteOutcome{Deleted: true}, nil
}

// LinkPermissions mutates a user's override rows. All referenced permissions
// must exist before anything changes. Returns the overrides after the change.
func (s *Service) LinkPermissions(ctx context.Context, userID string, dto LinkPermissionsDTO) ([]permission.Grant, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	ids := dto.PermissionIDs()
	if len(ids) > 0 {
		found, err := s.perms.FindByIDs(ctx, ids)
		if err != nil {
			return nil, errors.NewStoreError("failed to look up permissions", err)
		}
		if len(found) != len(ids) {
			return nil, errors.NewNotFoundError("some permissions do not exist", errors.ErrCodePermissionNotFound).
				WithDetails(missingIDs(ids, found))
		}
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		switch dto.Mode {
		case permission.LinkAdd:
			linked, err := s.repo.LinkedPermissionIDs(txCtx, userID, ids)
			if err != nil {
				return err
			}
			return s.repo.CreateLinks(txCtx, s.buildLinks(userID, dto.Grants, linked))

		case permission.LinkRemove:
			_, err := s.repo.DeleteLinks(txCtx, userID, ids)
			return err

		case permission.LinkReplace:
			if err := s.repo.DeleteAllLinks(txCtx, userID); err != nil {
				return err
			}
			return s.repo.CreateLinks(txCtx, s.buildLinks(userID, dto.Grants, nil))
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewStoreError("failed to update user permissions", err)
	}

	s.logger.Info("user permissions changed", "user_id", userID, "mode", dto.Mode, "count", len(ids))
	if s.bus != nil {
		actorID := errors.UserIDFromContext(ctx)
		_ = s.bus.Publish(ctx, events.NewUserPermissionsChangedEvent(actorID, userID, string(dto.Mode), ids))
	}

	grants, err := s.repo.FindPermissions(ctx, userID)
	if err != nil {
		return nil, errors.NewStoreError("failed to load user permissions", err)
	}
	return grants, nil
}

func (s *Service) buildLinks(userID string, grants []GrantInput, skip []string) []*UserPermission {
	skipSet := make(map[string]bool, len(skip))
	for _, id := range skip {
		skipSet[id] = true
	}
	links := make([]*UserPermission, 0, len(grants))
	for _, g := range grants {
		if skipSet[g.PermissionID] {
			continue
		}
		links = append(links, &UserPermission{
			ID:           uuid.New().String(),
			UserID:       userID,
			PermissionID: g.PermissionID,
			IsAllowed:    g.Allowed(),
		})
	}
	return links
}

// PermissionSummary breaks a user's permissions down into the group layer,
// the override layer and the merged result.
func (s *Service) PermissionSummary(ctx context.Context, userID string) (*PermissionSummary, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &PermissionSummary{
		UserID:  u.ID,
		GroupID: u.GroupID,
	}

	var groupGrants []permission.Grant
	if u.GroupID != nil {
		g, err := s.groups.GetByID(ctx, *u.GroupID)
		if err != nil {
			return nil, errors.NewStoreError("failed to get group", err)
		}
		if g != nil {
			summary.GroupName = &g.Name
			if g.IsActive {
				groupGrants, err = s.groups.FindPermissions(ctx, g.ID)
				if err != nil {
					return nil, errors.NewStoreError("failed to load group permissions", err)
				}
			}
		}
	}

	directGrants, err := s.repo.FindPermissions(ctx, userID)
	if err != nil {
		return nil, errors.NewStoreError("failed to load user permissions", err)
	}

	effective := permission.Merge(groupGrants, directGrants)
	summary.Direct = directGrants
	summary.FromGroup = groupGrants
	summary.Effective = effective.Values()
	summary.TotalCount = len(summary.Effective)
	summary.ByModule = make(map[string][]permission.EffectivePermission)
	for _, ep := range summary.Effective {
		summary.ByModule[ep.Permission.Module] = append(summary.ByModule[ep.Permission.Module], ep)
	}
	return summary, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, errors.NewStoreError("failed to list users", err)
	}
	withOverrides, err := s.repo.CountWithOverrides(ctx)
	if err != nil {
		return nil, errors.NewStoreError("failed to count overrides", err)
	}

	stats := &Stats{
		WithOverrides: withOverrides,
		UsersPerGroup: make(map[string]int64),
	}
	groupNames := make(map[string]string)
	for _, u := range users {
		stats.TotalUsers++
		if u.IsActive {
			stats.ActiveUsers++
		} else {
			stats.InactiveUsers++
		}
		if u.GroupID == nil {
			stats.WithoutGroup++
			continue
		}
		name, ok := groupNames[*u.GroupID]
		if !ok {
			g, err := s.groups.GetByID(ctx, *u.GroupID)
			if err != nil {
				return nil, errors.NewStoreError("failed to get group", err)
			}
			if g == nil {
				continue
			}
			name = g.Name
			groupNames[*u.GroupID] = name
		}
		stats.UsersPerGroup[name]++
	}
	return stats, nil
}

// Export flattens accounts with their group name and override keys.
func (s *Service) Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	users, err := s.repo.List(ctx, ListFilter{ActiveOnly: !opts.IncludeInactive})
	if err != nil {
		return nil, errors.NewStoreError("failed to list users", err)
	}

	groupNames := make(map[string]string)
	result := &ExportResult{
		GeneratedAt: time.Now(),
		Total:       len(users),
		Users:       make([]ExportedUser, 0, len(users)),
	}
	for _, u := range users {
		row := ExportedUser{
			Email:    u.Email,
			Name:     u.Name,
			IsActive: u.IsActive,
		}
		if u.GroupID != nil {
			name, ok := groupNames[*u.GroupID]
			if !ok {
				g, err := s.groups.GetByID(ctx, *u.GroupID)
				if err != nil {
					return nil, errors.NewStoreError("failed to get group", err)
				}
				if g != nil {
					name = g.Name
					groupNames[*u.GroupID] = name
				}
			}
			if name != "" {
				row.GroupName = &name
			}
		}

		grants, err := s.repo.FindPermissions(ctx, u.ID)
		if err != nil {
			return nil, errors.NewStoreError("failed to load user permissions", err)
		}
		row.Overrides = make([]string, 0, len(grants))
		for _, grant := range grants {
			key := grant.Permission.Key().String()
			if !grant.IsAllowed {
				key = fmt.Sprintf("!%s", key)
			}
			row.Overrides = append(row.Overrides, key)
		}
		result.Users = append(result.Users, row)
	}
	return result, nil
}

func (s *Service) checkGroupExists(ctx context.Context, groupID string) error {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return errors.NewStoreError("failed to get group", err)
	}
	if g == nil {
		return errors.NewNotFoundError("group not found", errors.ErrCodeGroupNotFound)
	}
	return nil
}

func (s *Service) publishUserChange(ctx context.Context, userID, operation string) {
	if s.bus == nil {
		return
	}
	actorID := errors.UserIDFromContext(ctx)
	_ = s.bus.Publish(ctx, events.NewUserChangedEvent(actorID, userID, operation))
}

func missingIDs(wanted []string, found []*permission.Permission) []string {
	have := make(map[string]bool, len(found))
	for _, p := range found {
		have[p.ID] = true
	}
	var missing []string
	for _, id := range wanted {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
