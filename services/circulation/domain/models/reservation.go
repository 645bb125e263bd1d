package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/services/circulation/domain"
)

// ReservationStatus is the lifecycle state of a hold.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationFulfilled ReservationStatus = "fulfilled"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation is a hold on an item. Active reservations of one item form a
// FIFO queue ordered by (CreatedAt, ID).
type Reservation struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	MemberID  uuid.UUID
	TenantID  uuid.NullUUID
	Status    ReservationStatus
	CreatedAt time.Time
}

// NewReservation creates an active reservation.
func NewReservation(itemID, memberID uuid.UUID, tenant uuid.NullUUID, now time.Time) *Reservation {
	return &Reservation{
		ID:        uuid.New(),
		ItemID:    itemID,
		MemberID:  memberID,
		TenantID:  tenant,
		Status:    ReservationActive,
		CreatedAt: now.UTC(),
	}
}

// IsActive reports whether the reservation is still queued.
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationActive
}

// Cancel moves an active reservation to cancelled. It reports false without
// error when the reservation is already terminal.
func (r *Reservation) Cancel() bool {
	if !r.IsActive() {
		return false
	}
	r.Status = ReservationCancelled
	return true
}

// Fulfil marks the reservation as satisfied by a checkout.
func (r *Reservation) Fulfil() error {
	if !r.IsActive() {
		return fmt.Errorf("%w: reservation %s is %s", domain.ErrInvalidInput, r.ID, r.Status)
	}
	r.Status = ReservationFulfilled
	return nil
}

// QueueLess orders reservations by (CreatedAt, ID).
func QueueLess(a, b *Reservation) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
