package models

import (
	"github.com/google/uuid"
)

// Item is a catalog entry as seen by circulation. The catalog store owns it;
// circulation only reads it and adjusts Available.
type Item struct {
	ID       uuid.UUID
	TenantID uuid.NullUUID // NULL = shared across branches
	ISBN     string
	Title    string
	Copies   int
	// Available is the stored loanable count. nil means never recorded and
	// is derived from open loans on read.
	Available *int
}

// StoredAvailable reports the stored count and whether it lies within [0, Copies].
func (i *Item) StoredAvailable() (value int, valid bool) {
	if i.Available == nil {
		return 0, false
	}
	v := *i.Available
	return v, v >= 0 && v <= i.Copies
}

// SetAvailable records a new loanable count.
func (i *Item) SetAvailable(v int) {
	i.Available = &v
}

// Member is a borrower as seen by circulation. The directory store owns it.
type Member struct {
	ID        uuid.UUID
	TenantID  uuid.NullUUID
	Number    string
	Name      string
	IsBlocked bool
	Note      string
}

// Tenant is a branch. Immutable once referenced.
type Tenant struct {
	ID   uuid.UUID
	Name string
	Code string
}
