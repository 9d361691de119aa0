package permission

import (
	"context"
	"log/slog"
)

// GroupRef identifies the group a user belongs to. A nil GroupRef means the
// user has no group.
type GroupRef struct {
	ID       string
	IsActive bool
}

// ResolverStore is the read side of the permission store used to compute a
// user's effective permission set.
type ResolverStore interface {
	// GetUserGroup returns the user's group reference, or nil when the user
	// has no group. It fails with a NotFound AppError when the user itself
	// does not exist.
	GetUserGroup(ctx context.Context, userID string) (*GroupRef, error)
	FindGroupPermissions(ctx context.Context, groupID string) ([]Grant, error)
	FindUserPermissions(ctx context.Context, userID string) ([]Grant, error)
}

// EffectiveSet is a user's merged allow/deny table keyed by (module, action).
type EffectiveSet map[Key]EffectivePermission

// Allowed looks up a key and returns its allow flag. Absent keys are denied.
func (s EffectiveSet) Allowed(k Key) bool {
	ep, ok := s[k]
	return ok && ep.IsAllowed
}

func (s EffectiveSet) Values() []EffectivePermission {
	out := make([]EffectivePermission, 0, len(s))
	for _, ep := range s {
		out = append(out, ep)
	}
	return out
}

// Merge builds the effective set from group grants and user overrides. The
// precedence is structural: user entries overwrite group entries for the same
// key unconditionally, regardless of either side's allow flag. An override
// with IsAllowed=false therefore suppresses an allowed group grant, and an
// override with IsAllowed=true grants something the group denies or never
// mentions.
func Merge(groupGrants, userGrants []Grant) EffectiveSet {
	set := make(EffectiveSet, len(groupGrants)+len(userGrants))
	for _, g := range groupGrants {
		set[g.Permission.Key()] = EffectivePermission{
			Permission: g.Permission,
			IsAllowed:  g.IsAllowed,
			Source:     SourceGroup,
		}
	}
	for _, g := range userGrants {
		set[g.Permission.Key()] = EffectivePermission{
			Permission: g.Permission,
			IsAllowed:  g.IsAllowed,
			Source:     SourceUser,
		}
	}
	return set
}

// Resolver answers permission point queries by merging a user's group grants
// with their individual overrides. It is purely read-driven and holds no
// state between calls; callers that need the set more than once in a request
// should resolve it once and carry it in the request context.
type Resolver struct {
	store  ResolverStore
	logger *slog.Logger
}

func NewResolver(store ResolverStore, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// EffectiveSet computes the user's merged permission table. An inactive or
// missing group contributes no permissions.
func (r *Resolver) EffectiveSet(ctx context.Context, userID string) (EffectiveSet, error) {
	group, err := r.store.GetUserGroup(ctx, userID)
	if err != nil {
		return nil, err
	}

	var groupGrants []Grant
	if group != nil && group.IsActive {
		groupGrants, err = r.store.FindGroupPermissions(ctx, group.ID)
		if err != nil {
			return nil, err
		}
	}

	userGrants, err := r.store.FindUserPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}

	return Merge(groupGrants, userGrants), nil
}

// EffectivePermissions returns the merged table as a list.
func (r *Resolver) EffectivePermissions(ctx context.Context, userID string) ([]EffectivePermission, error) {
	set, err := r.EffectiveSet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return set.Values(), nil
}

// HasPermission reports whether the user may perform module:action. Unknown
// keys are denied, and store failures surface as errors so the caller can
// fail closed.
func (r *Resolver) HasPermission(ctx context.Context, userID, module, action string) (bool, error) {
	set, err := r.EffectiveSet(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.Allowed(Key{Module: module, Action: action}), nil
}

// HasAny reports whether at least one of the keys resolves to allowed.
func (r *Resolver) HasAny(ctx context.Context, userID string, keys []Key) (bool, error) {
	set, err := r.EffectiveSet(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if set.Allowed(k) {
			return true, nil
		}
	}
	return false, nil
}

// HasAll reports whether every key resolves to allowed.
func (r *Resolver) HasAll(ctx context.Context, userID string, keys []Key) (bool, error) {
	set, err := r.EffectiveSet(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if !set.Allowed(k) {
			return false, nil
		}
	}
	return true, nil
}

// CanManage is shorthand for HasPermission(userID, module, "manage").
func (r *Resolver) CanManage(ctx context.Context, userID, module string) (bool, error) {
	return r.HasPermission(ctx, userID, module, ActionManage)
}

type effectiveSetCtxKey struct{}

// ContextWithEffectiveSet stores a resolved set in the context so handlers in
// the same request do not recompute it. The set must never be carried across
// requests: a stale grant is a security defect.
func ContextWithEffectiveSet(ctx context.Context, set EffectiveSet) context.Context {
	return context.WithValue(ctx, effectiveSetCtxKey{}, set)
}

// EffectiveSetFromContext returns the request-scoped set, if any.
func EffectiveSetFromContext(ctx context.Context) (EffectiveSet, bool) {
	set, ok := ctx.Value(effectiveSetCtxKey{}).(EffectiveSet)
	return set, ok
}
