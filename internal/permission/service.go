package permission

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	errors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/core/database"
	"github.com/msallam/hotel-management/internal/core/events"
)

// Repository is the write/admin side of the permission store.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]*Permission, error)
	GetByID(ctx context.Context, id string) (*Permission, error)
	GetByKey(ctx context.Context, module, action string) (*Permission, error)
	FindByIDs(ctx context.Context, ids []string) ([]*Permission, error)
	FindByKeys(ctx context.Context, keys []Key) ([]*Permission, error)
	Create(ctx context.Context, p *Permission) error
	// CreateMany inserts the given permissions, silently skipping rows whose
	// (module, action) already exists. Returns the number actually inserted.
	CreateMany(ctx context.Context, ps []*Permission) (int64, error)
	Update(ctx context.Context, p *Permission) error
	Delete(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	UsageCounts(ctx context.Context, ids []string) (map[string]Usage, error)
}

type Service struct {
	repo   Repository
	txm    database.TransactionManager
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, txm database.TransactionManager, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		txm:    txm,
		bus:    bus,
		logger: logger,
	}
}

func (s *Service) ListPermissions(ctx context.Context, filter ListFilter) ([]*Permission, error) {
	perms, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.NewStoreError("failed to list permissions", err)
	}
	return perms, nil
}

func (s *Service) GetPermission(ctx context.Context, id string) (*Permission, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewStoreError("failed to get permission", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("permission not found", errors.ErrCodePermissionNotFound)
	}
	return p, nil
}

func (s *Service) CreatePermission(ctx context.Context, dto CreatePermissionDTO) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByKey(ctx, dto.Module, dto.Action)
	if err != nil {
		return nil, errors.NewStoreError("failed to check permission key", err)
	}
	if existing != nil {
		return nil, errors.NewConflictError(
			fmt.Sprintf("permission %s:%s already exists", dto.Module, dto.Action),
			errors.ErrCodeDuplicateKey,
		)
	}

	p := &Permission{
		ID:          uuid.New().String(),
		Module:      dto.Module,
		Action:      dto.Action,
		Description: dto.Description,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.NewStoreError("failed to create permission", err)
	}

	s.logger.Info("permission created", "permission_id", p.ID, "key", p.Key().String())
	s.publishChange(ctx, "create", []string{p.ID})
	return p, nil
}

func (s *Service) UpdatePermission(ctx context.Context, id string, dto UpdatePermissionDTO) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}

	module, action := p.Module, p.Action
	if dto.Module != nil {
		module = *dto.Module
	}
	if dto.Action != nil {
		action = *dto.Action
	}
	if module != p.Module || action != p.Action {
		other, err := s.repo.GetByKey(ctx, module, action)
		if err != nil {
			return nil, errors.NewStoreError("failed to check permission key", err)
		}
		if other != nil && other.ID != p.ID {
			return nil, errors.NewConflictError(
				fmt.Sprintf("permission %s:%s already exists", module, action),
				errors.ErrCodeDuplicateKey,
			)
		}
	}

	p.Module = module
	p.Action = action
	if dto.Description != nil {
		p.Description = dto.Description
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, errors.NewStoreError("failed to update permission", err)
	}

	s.publishChange(ctx, "update", []string{p.ID})
	return p, nil
}

// DeletePermission removes a permission, refusing with Conflict while any
// group or user link still references it.
func (s *Service) DeletePermission(ctx context.Context, id string) error {
	p, err := s.GetPermission(ctx, id)
	if err != nil {
		return err
	}

	usage, err := s.repo.UsageCounts(ctx, []string{id})
	if err != nil {
		return errors.NewStoreError("failed to count permission usage", err)
	}
	if u := usage[id]; u.Total() > 0 {
		return errors.NewConflictError("permission is still in use", errors.ErrCodePermissionInUse).
			WithDetails([]BlockedPermission{{
				ID:         p.ID,
				Module:     p.Module,
				Action:     p.Action,
				GroupCount: u.GroupCount,
				UserCount:  u.UserCount,
			}})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.NewStoreError("failed to delete permission", err)
	}

	s.logger.Info("permission deleted", "permission_id", id, "key", p.Key().String())
	s.publishChange(ctx, "delete", []string{id})
	return nil
}

// BulkCreate inserts a batch of permissions. Keys duplicated inside the
// payload are rejected before any store call; keys that already exist in the
// store are skipped at the storage level.
func (s *Service) BulkCreate(ctx context.Context, dto BulkCreateDTO) (int64, error) {
	if err := dto.Validate(); err != nil {
		return 0, err
	}
	if dups := duplicateKeys(dto.Permissions); len(dups) > 0 {
		return 0, errors.NewValidationError("payload contains duplicate permission keys", errors.ErrCodeDuplicatesInPayload).
			WithDetails(dups)
	}

	ps := make([]*Permission, 0, len(dto.Permissions))
	for _, d := range dto.Permissions {
		ps = append(ps, &Permission{
			ID:          uuid.New().String(),
			Module:      d.Module,
			Action:      d.Action,
			Description: d.Description,
		})
	}

	created, err := s.repo.CreateMany(ctx, ps)
	if err != nil {
		return 0, errors.NewStoreError("failed to create permissions", err)
	}

	s.logger.Info("permissions bulk created", "requested", len(ps), "created", created)
	s.publishChange(ctx, "bulk_create", nil)
	return created, nil
}

// BulkDelete removes a batch of permissions. Every id must exist and none may
// be referenced; otherwise the whole call fails and nothing is removed.
func (s *Service) BulkDelete(ctx context.Context, dto BulkDeleteDTO) (int64, error) {
	if err := dto.Validate(); err != nil {
		return 0, err
	}

	found, err := s.repo.FindByIDs(ctx, dto.PermissionIDs)
	if err != nil {
		return 0, errors.NewStoreError("failed to look up permissions", err)
	}
	if len(found) != len(dto.PermissionIDs) {
		return 0, errors.NewNotFoundError("some permissions do not exist", errors.ErrCodePermissionNotFound).
			WithDetails(missingIDs(dto.PermissionIDs, found))
	}

	usage, err := s.repo.UsageCounts(ctx, dto.PermissionIDs)
	if err != nil {
		return 0, errors.NewStoreError("failed to count permission usage", err)
	}

	var blocked []BlockedPermission
	for _, p := range found {
		if u := usage[p.ID]; u.Total() > 0 {
			blocked = append(blocked, BlockedPermission{
				ID:         p.ID,
				Module:     p.Module,
				Action:     p.Action,
				GroupCount: u.GroupCount,
				UserCount:  u.UserCount,
			})
		}
	}
	if len(blocked) > 0 {
		return 0, errors.NewConflictError("some permissions are still in use", errors.ErrCodePermissionInUse).
			WithDetails(blocked)
	}

	deleted, err := s.repo.DeleteByIDs(ctx, dto.PermissionIDs)
	if err != nil {
		return 0, errors.NewStoreError("failed to delete permissions", err)
	}

	s.logger.Info("permissions bulk deleted", "count", deleted)
	s.publishChange(ctx, "bulk_delete", dto.PermissionIDs)
	return deleted, nil
}

// Import reconciles a permission list against the store. Partition into new
// and duplicate, preview when validate-only, then apply: new entries are
// created, duplicates are skipped or have their description updated depending
// on the options. Per-item failures are reported, not fatal.
func (s *Service) Import(ctx context.Context, dto ImportPermissionsDTO) (*ImportResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dups := duplicateKeys(dto.Permissions); len(dups) > 0 {
		return nil, errors.NewValidationError("import payload contains duplicate permission keys", errors.ErrCodeDuplicatesInPayload).
			WithDetails(dups)
	}

	keys := make([]Key, 0, len(dto.Permissions))
	for _, p := range dto.Permissions {
		keys = append(keys, Key{Module: p.Module, Action: p.Action})
	}
	existing, err := s.repo.FindByKeys(ctx, keys)
	if err != nil {
		return nil, errors.NewStoreError("failed to look up existing permissions", err)
	}
	existingByKey := make(map[Key]*Permission, len(existing))
	for _, p := range existing {
		existingByKey[p.Key()] = p
	}

	var newEntries, duplicates []CreatePermissionDTO
	for _, p := range dto.Permissions {
		if _, ok := existingByKey[Key{Module: p.Module, Action: p.Action}]; ok {
			duplicates = append(duplicates, p)
		} else {
			newEntries = append(newEntries, p)
		}
	}

	if dto.Options.ValidateOnly {
		preview := newEntries
		if len(preview) > 5 {
			preview = preview[:5]
		}
		return &ImportResult{
			Validation: &ImportValidation{
				Total:      len(dto.Permissions),
				New:        len(newEntries),
				Duplicates: len(duplicates),
				Valid:      true,
			},
			Preview: preview,
		}, nil
	}

	if len(duplicates) > 0 && !dto.Options.SkipDuplicates && !dto.Options.UpdateExisting {
		dupKeys := make([]string, 0, len(duplicates))
		for _, d := range duplicates {
			dupKeys = append(dupKeys, Key{Module: d.Module, Action: d.Action}.String())
		}
		return nil, errors.NewConflictError("import contains permissions that already exist", errors.ErrCodeDuplicateKey).
			WithDetails(dupKeys)
	}

	summary := &ImportSummary{Total: len(dto.Permissions)}
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if len(newEntries) > 0 {
			ps := make([]*Permission, 0, len(newEntries))
			for _, d := range newEntries {
				ps = append(ps, &Permission{
					ID:          uuid.New().String(),
					Module:      d.Module,
					Action:      d.Action,
					Description: d.Description,
				})
			}
			created, err := s.repo.CreateMany(txCtx, ps)
			if err != nil {
				return err
			}
			summary.Created = int(created)
		}

		if dto.Options.UpdateExisting {
			for _, d := range duplicates {
				current := existingByKey[Key{Module: d.Module, Action: d.Action}]
				if !descriptionDiffers(current.Description, d.Description) {
					summary.Skipped++
					continue
				}
				current.Description = d.Description
				if err := s.repo.Update(txCtx, current); err != nil {
					summary.Errors = append(summary.Errors,
						fmt.Sprintf("failed to update %s:%s: %v", d.Module, d.Action, err))
					continue
				}
				summary.Updated++
			}
		} else {
			summary.Skipped = len(duplicates)
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewStoreError("permission import failed", err)
	}

	s.logger.Info("permissions imported",
		"total", summary.Total,
		"created", summary.Created,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"errors", len(summary.Errors))
	s.publishChange(ctx, "import", nil)
	return &ImportResult{Summary: summary}, nil
}

// Export returns the full permission catalog, optionally with usage counts.
func (s *Service) Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	perms, err := s.repo.List(ctx, ListFilter{Module: opts.Module})
	if err != nil {
		return nil, errors.NewStoreError("failed to list permissions", err)
	}

	var usage map[string]Usage
	if opts.IncludeUsage {
		ids := make([]string, 0, len(perms))
		for _, p := range perms {
			ids = append(ids, p.ID)
		}
		usage, err = s.repo.UsageCounts(ctx, ids)
		if err != nil {
			return nil, errors.NewStoreError("failed to count permission usage", err)
		}
	}

	result := &ExportResult{
		GeneratedAt: time.Now(),
		Total:       len(perms),
		Permissions: make([]ExportedPermission, 0, len(perms)),
	}
	for _, p := range perms {
		row := ExportedPermission{
			ID:          p.ID,
			Module:      p.Module,
			Action:      p.Action,
			Description: p.Description,
		}
		if opts.IncludeUsage {
			u := usage[p.ID]
			gc, uc := u.GroupCount, u.UserCount
			row.GroupCount = &gc
			row.UserCount = &uc
		}
		result.Permissions = append(result.Permissions, row)
	}
	return result, nil
}

func (s *Service) publishChange(ctx context.Context, operation string, affected []string) {
	if s.bus == nil {
		return
	}
	actorID := errors.UserIDFromContext(ctx)
	_ = s.bus.Publish(ctx, events.NewPermissionsChangedEvent(actorID, operation, affected))
}

func duplicateKeys(ps []CreatePermissionDTO) []string {
	seen := make(map[Key]bool, len(ps))
	var dups []string
	for _, p := range ps {
		k := Key{Module: p.Module, Action: p.Action}
		if seen[k] {
			dups = append(dups, k.String())
		}
		seen[k] = true
	}
	return dups
}

func missingIDs(wanted []string, found []*Permission) []string {
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

func descriptionDiffers(a, b *string) bool {
	if a == nil && b == nil {
		return false
	}
	if a == nil || b == nil {
		return true
	}
	return *a != *b
}
