package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/tenancy"
	"github.com/ghuser/bookcirc/services/circulation/domain"
)

// PickCandidate chooses the record a natural key refers to.
//
// No candidates yields notFound. Candidates the caller cannot access are
// dropped; if that leaves none the result is ErrAccessDenied, so an existing
// record is never reported as missing. Among several accessible candidates
// the caller's home tenant wins; any remaining tie is ErrAmbiguousKey.
func PickCandidate[T any](caller tenancy.Caller, candidates []T, tenantOf func(T) uuid.NullUUID, notFound error, key string) (T, error) {
	var zero T
	if len(candidates) == 0 {
		return zero, fmt.Errorf("%w: %q", notFound, key)
	}

	accessible := make([]T, 0, len(candidates))
	for _, c := range candidates {
		if tenancy.CanAccess(caller, tenantOf(c)) {
			accessible = append(accessible, c)
		}
	}
	switch len(accessible) {
	case 0:
		return zero, fmt.Errorf("%w: %q belongs to another branch", domain.ErrAccessDenied, key)
	case 1:
		return accessible[0], nil
	}

	if caller.HomeTenant.Valid {
		var home []T
		for _, c := range accessible {
			if t := tenantOf(c); t.Valid && t.UUID == caller.HomeTenant.UUID {
				home = append(home, c)
			}
		}
		if len(home) == 1 {
			return home[0], nil
		}
	}

	return zero, fmt.Errorf("%w: %q matches %d records", domain.ErrAmbiguousKey, key, len(accessible))
}
