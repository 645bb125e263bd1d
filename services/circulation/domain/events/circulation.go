// Package events defines the audit events emitted by the circulation engine.
// Payloads are versioned; bump Version on breaking changes.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Watermill topics for circulation audit events.
const (
	TopicLoanCheckedOut       = "circulation.loan.checked_out"
	TopicLoanReturned         = "circulation.loan.returned"
	TopicLoanExtended         = "circulation.loan.extended"
	TopicReservationCreated   = "circulation.reservation.created"
	TopicReservationCancelled = "circulation.reservation.cancelled"
	TopicPolicyUpdated        = "circulation.policy.updated"
)

// AuditTopics lists every topic the audit sink subscribes to.
var AuditTopics = []string{
	TopicLoanCheckedOut,
	TopicLoanReturned,
	TopicLoanExtended,
	TopicReservationCreated,
	TopicReservationCancelled,
	TopicPolicyUpdated,
}

// Envelope carries the fields common to every audit event.
type Envelope struct {
	EventID    uuid.UUID     `json:"event_id"` // unique per publish, for deduplication
	Version    int           `json:"version"`
	ActorID    string        `json:"actor_id,omitempty"`
	TenantID   uuid.NullUUID `json:"tenant_id"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewEnvelope stamps a fresh event id.
func NewEnvelope(actorID string, tenant uuid.NullUUID, at time.Time) Envelope {
	return Envelope{
		EventID:    uuid.New(),
		Version:    1,
		ActorID:    actorID,
		TenantID:   tenant,
		OccurredAt: at.UTC(),
	}
}

// Header returns the envelope; every event embedding it satisfies Headed.
func (e Envelope) Header() Envelope { return e }

// Headed is implemented by every audit event.
type Headed interface {
	Header() Envelope
}

// LoanCheckedOutEvent is published after a checkout commits.
type LoanCheckedOutEvent struct {
	Envelope
	LoanID                 uuid.UUID  `json:"loan_id"`
	ItemID                 uuid.UUID  `json:"item_id"`
	MemberID               uuid.UUID  `json:"member_id"`
	DueDate                string     `json:"due_date"`
	Available              int        `json:"available"`
	FuzzyMatch             bool       `json:"fuzzy_match"`
	FulfilledReservationID *uuid.UUID `json:"fulfilled_reservation_id,omitempty"`
}

// LoanReturnedEvent is published after a return commits.
type LoanReturnedEvent struct {
	Envelope
	LoanID    uuid.UUID `json:"loan_id"`
	ItemID    uuid.UUID `json:"item_id"`
	MemberID  uuid.UUID `json:"member_id"`
	DaysLate  int       `json:"days_late"`
	FineCents int64     `json:"fine_cents"`
	Available int       `json:"available"`
}

// LoanExtendedEvent is published after an extension commits.
type LoanExtendedEvent struct {
	Envelope
	LoanID      uuid.UUID `json:"loan_id"`
	PreviousDue string    `json:"previous_due"`
	DueDate     string    `json:"due_date"`
	DaysAdded   int       `json:"days_added"`
}

// ReservationCreatedEvent is published after a reservation is queued.
type ReservationCreatedEvent struct {
	Envelope
	ReservationID uuid.UUID `json:"reservation_id"`
	ItemID        uuid.UUID `json:"item_id"`
	MemberID      uuid.UUID `json:"member_id"`
	Position      int       `json:"position"`
}

// ReservationCancelledEvent is published when an active reservation is cancelled.
type ReservationCancelledEvent struct {
	Envelope
	ReservationID uuid.UUID `json:"reservation_id"`
	ItemID        uuid.UUID `json:"item_id"`
	MemberID      uuid.UUID `json:"member_id"`
}

// PolicyUpdatedEvent is published when circulation settings change.
// Subscribers drop their cached policy.
type PolicyUpdatedEvent struct {
	Envelope
	Settings map[string]string `json:"settings"`
}
