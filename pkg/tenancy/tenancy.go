// Package tenancy decides which branch partitions a caller may read and write.
//
// Every circulation record carries a nullable tenant_id. A NULL tenant marks a
// shared record that is visible to every caller. Privileged callers (admins)
// may look across branches; everyone else is pinned to their home branch no
// matter what they ask for.
package tenancy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
)

const (
	// RequestAll is the requested-tenant value that lifts the filter for privileged callers.
	RequestAll = "all"
	// RequestNone targets shared (NULL tenant) records explicitly.
	RequestNone = "none"
)

// ErrInvalidTenant is returned when a requested tenant is neither "all",
// "none" nor a UUID.
var ErrInvalidTenant = errors.New("invalid tenant")

// Role is the caller's capability level.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// ParseRole maps a stored role string to a Role. Unknown values degrade to staff.
func ParseRole(s string) Role {
	if Role(strings.ToLower(strings.TrimSpace(s))) == RoleAdmin {
		return RoleAdmin
	}
	return RoleStaff
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID     string
	Role       Role
	HomeTenant uuid.NullUUID
}

// Privileged reports whether the caller may act across tenants.
func (c Caller) Privileged() bool {
	return c.Role == RoleAdmin
}

// Filter is a resolved read scope over one tenant column.
type Filter struct {
	column string
	all    bool
	tenant uuid.NullUUID
}

// ScopeFilter resolves the read scope for caller. requested is the raw
// tenant parameter from the request ("" when omitted).
func ScopeFilter(caller Caller, requested, column string) (Filter, error) {
	f := Filter{column: column}

	if !caller.Privileged() {
		f.tenant = caller.HomeTenant
		return f, nil
	}

	req := strings.TrimSpace(requested)
	switch {
	case req == "":
		f.tenant = caller.HomeTenant
	case strings.EqualFold(req, RequestAll):
		f.all = true
	case strings.EqualFold(req, RequestNone):
		f.tenant = uuid.NullUUID{}
	default:
		id, err := uuid.Parse(req)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %q", ErrInvalidTenant, requested)
		}
		f.tenant = uuid.NullUUID{UUID: id, Valid: true}
	}
	return f, nil
}

// All reports whether the filter admits every tenant.
func (f Filter) All() bool { return f.all }

// Tenant returns the resolved tenant. Valid=false with All()=false means
// shared rows only.
func (f Filter) Tenant() uuid.NullUUID { return f.tenant }

// Column returns the tenant column the filter applies to.
func (f Filter) Column() string { return f.column }

// Expression renders the predicate with bound parameters. Shared rows
// (tenant IS NULL) are always admitted. Returns nil when the filter is All.
func (f Filter) Expression() exp.Expression {
	if f.all {
		return nil
	}
	col := goqu.I(f.column)
	if !f.tenant.Valid {
		return col.IsNull()
	}
	return goqu.Or(col.IsNull(), col.Eq(f.tenant.UUID))
}

// Apply adds the predicate to ds unless the filter is All.
func (f Filter) Apply(ds *goqu.SelectDataset) *goqu.SelectDataset {
	if e := f.Expression(); e != nil {
		return ds.Where(e)
	}
	return ds
}

// Matches evaluates the filter in process against a record's tenant.
func (f Filter) Matches(tenant uuid.NullUUID) bool {
	if f.all || !tenant.Valid {
		return true
	}
	return f.tenant.Valid && f.tenant.UUID == tenant.UUID
}

// ResolveWriteTenant decides the tenant a new record is written to.
// Non-privileged callers always write to their home tenant.
func ResolveWriteTenant(caller Caller, requested string) (uuid.NullUUID, error) {
	if !caller.Privileged() {
		return caller.HomeTenant, nil
	}

	req := strings.TrimSpace(requested)
	switch {
	case req == "":
		return caller.HomeTenant, nil
	case strings.EqualFold(req, RequestNone):
		return uuid.NullUUID{}, nil
	case strings.EqualFold(req, RequestAll):
		return uuid.NullUUID{}, fmt.Errorf("%w: cannot write to %q", ErrInvalidTenant, requested)
	}

	id, err := uuid.Parse(req)
	if err != nil {
		return uuid.NullUUID{}, fmt.Errorf("%w: %q", ErrInvalidTenant, requested)
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

// CanAccess reports whether caller may touch a resource owned by resourceTenant.
func CanAccess(caller Caller, resourceTenant uuid.NullUUID) bool {
	if caller.Privileged() || !resourceTenant.Valid {
		return true
	}
	return caller.HomeTenant.Valid && caller.HomeTenant.UUID == resourceTenant.UUID
}
