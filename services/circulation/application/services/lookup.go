package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/tenancy"
	circdomain "github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/domain/repositories"
	domainsvcs "github.com/ghuser/bookcirc/services/circulation/domain/services"
)

// finder adapts one repository to the generic natural-key resolution.
type finder[T any] struct {
	getByID      func(context.Context, uuid.UUID) (T, error)
	getForUpdate func(context.Context, uuid.UUID) (T, error)
	findByKey    func(context.Context, string) ([]T, error)
	findBySuffix func(context.Context, string) ([]T, error)
	idOf         func(T) uuid.UUID
	tenantOf     func(T) uuid.NullUUID
	notFound     error
}

// resolve loads the record ref points at and checks the caller may touch it.
// Keys are normalised before any comparison. The trailing-suffix fallback
// runs only when no exact match exists and is reported through fuzzy.
// With lock set the returned row is re-read under a row lock.
func resolve[T any](ctx context.Context, caller tenancy.Caller, policy models.PolicyConfig, f finder[T], ref Ref, lock bool) (rec T, fuzzy bool, err error) {
	var zero T

	switch {
	case ref.ID != uuid.Nil:
		get := f.getByID
		if lock {
			get = f.getForUpdate
		}
		if rec, err = get(ctx, ref.ID); err != nil {
			return zero, false, err
		}
		if !tenancy.CanAccess(caller, f.tenantOf(rec)) {
			return zero, false, fmt.Errorf("%w: record %s belongs to another branch", circdomain.ErrAccessDenied, ref.ID)
		}
		return rec, false, nil

	case ref.Key != "":
		norm := models.NormalizeKey(ref.Key)
		if norm == "" {
			return zero, false, fmt.Errorf("%w: blank key", circdomain.ErrMissingReference)
		}

		candidates, err := f.findByKey(ctx, norm)
		if err != nil {
			return zero, false, err
		}
		if len(candidates) == 0 {
			if suffix, ok := models.KeySuffix(norm, policy.FuzzySuffixLength); ok {
				if candidates, err = f.findBySuffix(ctx, suffix); err != nil {
					return zero, false, err
				}
				fuzzy = len(candidates) > 0
			}
		}

		rec, err = domainsvcs.PickCandidate(caller, candidates, f.tenantOf, f.notFound, ref.Key)
		if err != nil {
			return zero, false, err
		}
		if lock {
			if rec, err = f.getForUpdate(ctx, f.idOf(rec)); err != nil {
				return zero, false, err
			}
		}
		return rec, fuzzy, nil
	}

	return zero, false, circdomain.ErrMissingReference
}

func itemFinder(repos repositories.Repositories) finder[*models.Item] {
	return finder[*models.Item]{
		getByID:      repos.Items.GetByID,
		getForUpdate: repos.Items.GetByIDForUpdate,
		findByKey:    repos.Items.FindByKey,
		findBySuffix: repos.Items.FindByKeySuffix,
		idOf:         func(i *models.Item) uuid.UUID { return i.ID },
		tenantOf:     func(i *models.Item) uuid.NullUUID { return i.TenantID },
		notFound:     circdomain.ErrItemNotFound,
	}
}

func memberFinder(repos repositories.Repositories) finder[*models.Member] {
	return finder[*models.Member]{
		getByID:      repos.Members.GetByID,
		getForUpdate: repos.Members.GetByIDForUpdate,
		findByKey:    repos.Members.FindByKey,
		findBySuffix: repos.Members.FindByKeySuffix,
		idOf:         func(m *models.Member) uuid.UUID { return m.ID },
		tenantOf:     func(m *models.Member) uuid.NullUUID { return m.TenantID },
		notFound:     circdomain.ErrMemberNotFound,
	}
}

func resolveItem(ctx context.Context, repos repositories.Repositories, caller tenancy.Caller, policy models.PolicyConfig, ref Ref, lock bool) (*models.Item, bool, error) {
	item, fuzzy, err := resolve(ctx, caller, policy, itemFinder(repos), ref, lock)
	if err != nil {
		return nil, false, fmt.Errorf("resolve item: %w", err)
	}
	return item, fuzzy, nil
}

func resolveMember(ctx context.Context, repos repositories.Repositories, caller tenancy.Caller, policy models.PolicyConfig, ref Ref, lock bool) (*models.Member, bool, error) {
	member, fuzzy, err := resolve(ctx, caller, policy, memberFinder(repos), ref, lock)
	if err != nil {
		return nil, false, fmt.Errorf("resolve member: %w", err)
	}
	return member, fuzzy, nil
}

// writeTenant picks the tenant a new loan or reservation is filed under:
// the item's branch, else the member's, else the caller's write target.
func writeTenant(caller tenancy.Caller, requested string, item *models.Item, member *models.Member) (uuid.NullUUID, error) {
	if item.TenantID.Valid {
		return item.TenantID, nil
	}
	if member.TenantID.Valid {
		return member.TenantID, nil
	}
	return tenancy.ResolveWriteTenant(caller, requested)
}
