package group

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	errors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/core/database"
	"github.com/msallam/hotel-management/internal/core/events"
	"github.com/msallam/hotel-management/internal/permission"
)

// topPermissionLimit caps the ranked permission list in stats responses.
const topPermissionLimit = 10

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]*Group, error)
	GetByID(ctx context.Context, id string) (*Group, error)
	GetByName(ctx context.Context, name string) (*Group, error)
	Create(ctx context.Context, g *Group) error
	Update(ctx context.Context, g *Group) error
	Delete(ctx context.Context, id string) error
	UserCount(ctx context.Context, groupID string) (int64, error)
	UserCounts(ctx context.Context) (map[string]int64, error)
	FindPermissions(ctx context.Context, groupID string) ([]permission.Grant, error)
	// LinkedPermissionIDs returns the subset of permissionIDs already linked
	// to the group.
	LinkedPermissionIDs(ctx context.Context, groupID string, permissionIDs []string) ([]string, error)
	CreateLinks(ctx context.Context, links []*GroupPermission) error
	DeleteLinks(ctx context.Context, groupID string, permissionIDs []string) (int64, error)
	DeleteAllLinks(ctx context.Context, groupID string) error
	PermissionCounts(ctx context.Context) (map[string]int64, error)
	// TopPermissions ranks permissions by the number of groups granting
	// them, most granted first.
	TopPermissions(ctx context.Context, limit int) ([]PermissionUsage, error)
}

// PermissionLookup is the slice of the permission repository the group
// service needs for link validation and import resolution.
type PermissionLookup interface {
	FindByIDs(ctx context.Context, ids []string) ([]*permission.Permission, error)
	FindByKeys(ctx context.Context, keys []permission.Key) ([]*permission.Permission, error)
	CreateMany(ctx context.Context, ps []*permission.Permission) (int64, error)
}

type Service struct {
	repo   Repository
	perms  PermissionLookup
	txm    database.TransactionManager
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, perms PermissionLookup, txm database.TransactionManager, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		perms:  perms,
		txm:    txm,
		bus:    bus,
		logger: logger,
	}
}

func (s *Service) ListGroups(ctx context.Context, filter ListFilter) ([]*Group, error) {
	groups, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.NewStoreError("failed to list groups", err)
	}
	return groups, nil
}

func (s *Service) GetGroup(ctx context.Context, id string) (*GroupWithPermissions, error) {
	g, err := s.getGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	grants, err := s.repo.FindPermissions(ctx, id)
	if err != nil {
		return nil, errors.NewStoreError("failed to load group permissions", err)
	}
	userCount, err := s.repo.UserCount(ctx, id)
	if err != nil {
		return nil, errors.NewStoreError("failed to count group users", err)
	}
	return &GroupWithPermissions{
		Group:       *g,
		Permissions: grants,
		UserCount:   userCount,
	}, nil
}

func (s *Service) CreateGroup(ctx context.Context, dto CreateGroupDTO) (*Group, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByName(ctx, dto.Name)
	if err != nil {
		return nil, errors.NewStoreError("failed to check group name", err)
	}
	if existing != nil {
		return nil, errors.NewConflictError(
			fmt.Sprintf("group %q already exists", dto.Name),
			errors.ErrCodeDuplicateName,
		)
	}

	g := &Group{
		ID:          uuid.New().String(),
		Name:        dto.Name,
		Description: dto.Description,
		IsActive:    true,
	}
	if dto.IsActive != nil {
		g.IsActive = *dto.IsActive
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, errors.NewStoreError("failed to create group", err)
	}

	s.logger.Info("group created", "group_id", g.ID, "name", g.Name)
	s.publishGroupChange(ctx, g.ID, "create")
	return g, nil
}

func (s *Service) UpdateGroup(ctx context.Context, id string, dto UpdateGroupDTO) (*Group, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	g, err := s.getGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil && *dto.Name != g.Name {
		other, err := s.repo.GetByName(ctx, *dto.Name)
		if err != nil {
			return nil, errors.NewStoreError("failed to check group name", err)
		}
		if other != nil && other.ID != g.ID {
			return nil, errors.NewConflictError(
				fmt.Sprintf("group %q already exists", *dto.Name),
				errors.ErrCodeDuplicateName,
			)
		}
		g.Name = *dto.Name
	}
	if dto.Description != nil {
		g.Description = dto.Description
	}
	if dto.IsActive != nil {
		g.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, g); err != nil {
		return nil, errors.NewStoreError("failed to update group", err)
	}
	s.publishGroupChange(ctx, g.ID, "update")
	return g, nil
}

// DeleteGroup removes a group and its permission links. It refuses with
// Conflict while any user is still assigned to the group.
func (s *Service) DeleteGroup(ctx context.Context, id string) error {
	g, err := s.getGroup(ctx, id)
	if err != nil {
		return err
	}

	userCount, err := s.repo.UserCount(ctx, id)
	if err != nil {
		return errors.NewStoreError("failed to count group users", err)
	}
	if userCount > 0 {
		return errors.NewConflictError("group still has assigned users", errors.ErrCodeGroupHasUsers).
			WithDetails(map[string]int64{"user_count": userCount})
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeleteAllLinks(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return errors.NewStoreError("failed to delete group", err)
	}

	s.logger.Info("group deleted", "group_id", id, "name", g.Name)
	s.publishGroupChange(ctx, id, "delete")
	return nil
}

// LinkPermissions mutates a group's permission links. All referenced
// permissions must exist before anything is changed; the mutation itself runs
// in a single transaction. Returns the group's links after the change.
func (s *Service) LinkPermissions(ctx context.Context, groupID string, dto LinkPermissionsDTO) ([]permission.Grant, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.getGroup(ctx, groupID); err != nil {
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
			linked, err := s.repo.LinkedPermissionIDs(txCtx, groupID, ids)
			if err != nil {
				return err
			}
			return s.repo.CreateLinks(txCtx, s.buildLinks(groupID, dto.Grants, linked))

		case permission.LinkRemove:
			_, err := s.repo.DeleteLinks(txCtx, groupID, ids)
			return err

		case permission.LinkReplace:
			if err := s.repo.DeleteAllLinks(txCtx, groupID); err != nil {
				return err
			}
			return s.repo.CreateLinks(txCtx, s.buildLinks(groupID, dto.Grants, nil))
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewStoreError("failed to update group permissions", err)
	}

	s.logger.Info("group permissions changed", "group_id", groupID, "mode", dto.Mode, "count", len(ids))
	if s.bus != nil {
		actorID := errors.UserIDFromContext(ctx)
		_ = s.bus.Publish(ctx, events.NewGroupPermissionsChangedEvent(actorID, groupID, string(dto.Mode), ids))
	}

	grants, err := s.repo.FindPermissions(ctx, groupID)
	if err != nil {
		return nil, errors.NewStoreError("failed to load group permissions", err)
	}
	return grants, nil
}

func (s *Service) buildLinks(groupID string, grants []GrantInput, skip []string) []*GroupPermission {
	skipSet := make(map[string]bool, len(skip))
	for _, id := range skip {
		skipSet[id] = true
	}
	links := make([]*GroupPermission, 0, len(grants))
	for _, g := range grants {
		if skipSet[g.PermissionID] {
			continue
		}
		links = append(links, &GroupPermission{
			ID:           uuid.New().String(),
			GroupID:      groupID,
			PermissionID: g.PermissionID,
			IsAllowed:    g.Allowed(),
		})
	}
	return links
}

// Import reconciles a list of groups with their permission key lists. Unknown
// permission keys either fail the group entry or, with
// create_missing_permissions, are created on the fly. Per-entry failures are
// collected into the summary instead of aborting the import.
func (s *Service) Import(ctx context.Context, dto ImportGroupsDTO) (*ImportResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(dto.Groups))
	for _, g := range dto.Groups {
		names = append(names, g.Name)
	}
	existingByName := make(map[string]*Group, len(names))
	for _, name := range names {
		g, err := s.repo.GetByName(ctx, name)
		if err != nil {
			return nil, errors.NewStoreError("failed to look up group", err)
		}
		if g != nil {
			existingByName[name] = g
		}
	}

	newCount := len(dto.Groups) - len(existingByName)
	if dto.Options.ValidateOnly {
		return &ImportResult{
			Validation: &ImportValidation{
				Total:      len(dto.Groups),
				New:        newCount,
				Duplicates: len(existingByName),
				Valid:      true,
			},
		}, nil
	}

	if len(existingByName) > 0 && !dto.Options.SkipDuplicates && !dto.Options.UpdateExisting {
		dupNames := make([]string, 0, len(existingByName))
		for name := range existingByName {
			dupNames = append(dupNames, name)
		}
		return nil, errors.NewConflictError("import contains groups that already exist", errors.ErrCodeDuplicateName).
			WithDetails(dupNames)
	}

	summary := &ImportSummary{Total: len(dto.Groups)}
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		permsByKey, created, err := s.resolvePermissionKeys(txCtx, dto)
		if err != nil {
			return err
		}
		summary.PermissionsCreated = created

		for _, entry := range dto.Groups {
			grantIDs, missing := resolveEntryKeys(entry, permsByKey)
			if len(missing) > 0 {
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("group %q references unknown permissions: %v", entry.Name, missing))
				summary.Skipped++
				continue
			}

			if existing, ok := existingByName[entry.Name]; ok {
				if !dto.Options.UpdateExisting {
					summary.Skipped++
					continue
				}
				if err := s.applyImportUpdate(txCtx, existing, entry, grantIDs); err != nil {
					summary.Errors = append(summary.Errors,
						fmt.Sprintf("failed to update group %q: %v", entry.Name, err))
					continue
				}
				summary.Updated++
				continue
			}

			if err := s.applyImportCreate(txCtx, entry, grantIDs); err != nil {
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("failed to create group %q: %v", entry.Name, err))
				continue
			}
			summary.Created++
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewStoreError("group import failed", err)
	}

	s.logger.Info("groups imported",
		"total", summary.Total,
		"created", summary.Created,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"permissions_created", summary.PermissionsCreated,
		"errors", len(summary.Errors))
	s.publishGroupChange(ctx, "", "import")
	return &ImportResult{Summary: summary}, nil
}

// resolvePermissionKeys maps every permission key referenced by the import to
// a stored permission, creating missing ones when the options allow it.
func (s *Service) resolvePermissionKeys(ctx context.Context, dto ImportGroupsDTO) (map[permission.Key]*permission.Permission, int, error) {
	keySet := make(map[permission.Key]bool)
	for _, g := range dto.Groups {
		for _, raw := range g.Permissions {
			k, _ := permission.ParseKey(raw)
			keySet[k] = true
		}
	}
	keys := make([]permission.Key, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}

	found, err := s.perms.FindByKeys(ctx, keys)
	if err != nil {
		return nil, 0, err
	}
	byKey := make(map[permission.Key]*permission.Permission, len(found))
	for _, p := range found {
		byKey[p.Key()] = p
	}

	if !dto.Options.CreateMissingPermissions {
		return byKey, 0, nil
	}

	var toCreate []*permission.Permission
	for _, k := range keys {
		if _, ok := byKey[k]; ok {
			continue
		}
		desc := fmt.Sprintf("Auto-created during group import on %s", time.Now().Format("2006-01-02"))
		p := &permission.Permission{
			ID:          uuid.New().String(),
			Module:      k.Module,
			Action:      k.Action,
			Description: &desc,
		}
		toCreate = append(toCreate, p)
		byKey[k] = p
	}
	if len(toCreate) == 0 {
		return byKey, 0, nil
	}
	created, err := s.perms.CreateMany(ctx, toCreate)
	if err != nil {
		return nil, 0, err
	}
	return byKey, int(created), nil
}

func resolveEntryKeys(entry ImportGroupEntry, byKey map[permission.Key]*permission.Permission) (ids []string, missing []string) {
	for _, raw := range entry.Permissions {
		k, _ := permission.ParseKey(raw)
		p, ok := byKey[k]
		if !ok {
			missing = append(missing, raw)
			continue
		}
		ids = append(ids, p.ID)
	}
	return ids, missing
}

func (s *Service) applyImportCreate(ctx context.Context, entry ImportGroupEntry, permissionIDs []string) error {
	g := &Group{
		ID:          uuid.New().String(),
		Name:        entry.Name,
		Description: entry.Description,
		IsActive:    true,
	}
	if entry.IsActive != nil {
		g.IsActive = *entry.IsActive
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return err
	}
	return s.repo.CreateLinks(ctx, importLinks(g.ID, permissionIDs))
}

func (s *Service) applyImportUpdate(ctx context.Context, g *Group, entry ImportGroupEntry, permissionIDs []string) error {
	if entry.Description != nil {
		g.Description = entry.Description
	}
	if entry.IsActive != nil {
		g.IsActive = *entry.IsActive
	}
	if err := s.repo.Update(ctx, g); err != nil {
		return err
	}
	if err := s.repo.DeleteAllLinks(ctx, g.ID); err != nil {
		return err
	}
	return s.repo.CreateLinks(ctx, importLinks(g.ID, permissionIDs))
}

func importLinks(groupID string, permissionIDs []string) []*GroupPermission {
	links := make([]*GroupPermission, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		links = append(links, &GroupPermission{
			ID:           uuid.New().String(),
			GroupID:      groupID,
			PermissionID: id,
			IsAllowed:    true,
		})
	}
	return links
}

// Export flattens the group catalog with permission keys and member counts.
func (s *Service) Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	groups, err := s.repo.List(ctx, ListFilter{ActiveOnly: !opts.IncludeInactive})
	if err != nil {
		return nil, errors.NewStoreError("failed to list groups", err)
	}
	userCounts, err := s.repo.UserCounts(ctx)
	if err != nil {
		return nil, errors.NewStoreError("failed to count group users", err)
	}

	result := &ExportResult{
		GeneratedAt: time.Now(),
		Total:       len(groups),
		Groups:      make([]ExportedGroup, 0, len(groups)),
	}
	for _, g := range groups {
		grants, err := s.repo.FindPermissions(ctx, g.ID)
		if err != nil {
			return nil, errors.NewStoreError("failed to load group permissions", err)
		}
		keys := make([]string, 0, len(grants))
		for _, grant := range grants {
			keys = append(keys, grant.Permission.Key().String())
		}
		result.Groups = append(result.Groups, ExportedGroup{
			Name:        g.Name,
			Description: g.Description,
			IsActive:    g.IsActive,
			Permissions: keys,
			UserCount:   userCounts[g.ID],
		})
	}
	return result, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	groups, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, errors.NewStoreError("failed to list groups", err)
	}
	userCounts, err := s.repo.UserCounts(ctx)
	if err != nil {
		return nil, errors.NewStoreError("failed to count group users", err)
	}
	permCounts, err := s.repo.PermissionCounts(ctx)
	if err != nil {
		return nil, errors.NewStoreError("failed to count group permissions", err)
	}

	stats := &Stats{UsersPerGroup: make(map[string]int64, len(groups))}
	var totalPerms int64
	for _, g := range groups {
		stats.TotalGroups++
		if g.IsActive {
			stats.ActiveGroups++
		} else {
			stats.InactiveGroups++
		}
		stats.UsersPerGroup[g.Name] = userCounts[g.ID]
		totalPerms += permCounts[g.ID]
	}
	if stats.TotalGroups > 0 {
		stats.AvgPermissions = float64(totalPerms) / float64(stats.TotalGroups)
	}
	stats.TopPermissions, err = s.repo.TopPermissions(ctx, topPermissionLimit)
	if err != nil {
		return nil, errors.NewStoreError("failed to rank permissions", err)
	}
	return stats, nil
}

func (s *Service) getGroup(ctx context.Context, id string) (*Group, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewStoreError("failed to get group", err)
	}
	if g == nil {
		return nil, errors.NewNotFoundError("group not found", errors.ErrCodeGroupNotFound)
	}
	return g, nil
}

func (s *Service) publishGroupChange(ctx context.Context, groupID, operation string) {
	if s.bus == nil {
		return
	}
	actorID := errors.UserIDFromContext(ctx)
	_ = s.bus.Publish(ctx, events.NewGroupChangedEvent(actorID, groupID, operation))
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
