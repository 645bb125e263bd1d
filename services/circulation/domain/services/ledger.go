package services

import (
	"fmt"

	"github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
)

// Availability is the outcome of reading an item's loanable count.
type Availability struct {
	Value int
	// Derived is true when Value was recomputed from open loans.
	Derived bool
	// Violation is set when the stored value was out of range.
	Violation error
}

// ResolveAvailable returns the item's loanable count. A stored value within
// [0, copies] is trusted. Otherwise the count is derived as copies minus open
// loans; an out-of-range stored value is reported as an invariant violation,
// a missing one is derived silently.
func ResolveAvailable(item *models.Item, openLoans int) Availability {
	if v, ok := item.StoredAvailable(); ok {
		return Availability{Value: v}
	}

	a := Availability{Value: DeriveAvailable(item.Copies, openLoans), Derived: true}
	if item.Available != nil {
		a.Violation = fmt.Errorf("%w: item %s stored available=%d outside [0, %d]",
			domain.ErrInvariantViolation, item.ID, *item.Available, item.Copies)
	}
	return a
}

// DeriveAvailable computes copies minus open loans, clamped to [0, copies].
func DeriveAvailable(copies, openLoans int) int {
	return clamp(copies-openLoans, copies)
}

// ApplyDelta adds delta to current and clamps to [0, copies]. A non-nil
// violation reports that clamping was needed.
func ApplyDelta(current, delta, copies int) (next int, violation error) {
	raw := current + delta
	next = clamp(raw, copies)
	if next != raw {
		violation = fmt.Errorf("%w: available %d%+d leaves [0, %d]",
			domain.ErrInvariantViolation, current, delta, copies)
	}
	return next, violation
}

func clamp(v, copies int) int {
	if copies < 0 {
		copies = 0
	}
	if v < 0 {
		return 0
	}
	if v > copies {
		return copies
	}
	return v
}
