package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the circulation domain. Use errors.Is() to check these.
var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	ErrItemNotFound        = fmt.Errorf("item %w", ErrNotFound)
	ErrMemberNotFound      = fmt.Errorf("member %w", ErrNotFound)
	ErrLoanNotFound        = fmt.Errorf("loan %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
	ErrTenantNotFound      = fmt.Errorf("tenant %w", ErrNotFound)

	// ErrReservationClosed is returned when a status change targets a
	// reservation that another transaction already fulfilled or cancelled.
	ErrReservationClosed = errors.New("reservation is no longer active")

	// ErrAccessDenied indicates the record exists but lies outside the caller's tenant scope.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput indicates a malformed request.
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrInvalidInput)
	ErrInvalidDays      = fmt.Errorf("%w: invalid days", ErrInvalidInput)
	ErrMissingReference = fmt.Errorf("%w: missing reference", ErrInvalidInput)
	ErrAmbiguousKey     = fmt.Errorf("%w: ambiguous key", ErrInvalidInput)
	ErrInvalidPolicy    = fmt.Errorf("%w: invalid policy", ErrInvalidInput)

	// ErrPolicyRejected is wrapped by every *PolicyError.
	ErrPolicyRejected = errors.New("policy rejected")

	// ErrInvariantViolation marks stored state that contradicts the availability invariant.
	// It is logged and healed, never returned to callers.
	ErrInvariantViolation = errors.New("invariant violation")
)

// Reason is the machine-readable code carried by a PolicyError.
type Reason string

const (
	ReasonMemberBlocked        Reason = "member_blocked"
	ReasonOverdueBlock         Reason = "overdue_block"
	ReasonLoanLimit            Reason = "loan_limit"
	ReasonOutOfStock           Reason = "out_of_stock"
	ReasonQueueConflict        Reason = "queue_conflict"
	ReasonAlreadyReturned      Reason = "already_returned"
	ReasonDuplicateReservation Reason = "duplicate_reservation"
)

// PolicyError is a rejection of a circulation request by a business rule.
type PolicyError struct {
	Reason  Reason
	Message string
	Details map[string]any
}

// NewPolicyError builds a PolicyError. details may be nil.
func NewPolicyError(reason Reason, message string, details map[string]any) *PolicyError {
	return &PolicyError{Reason: reason, Message: message, Details: details}
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Unwrap lets errors.Is(err, ErrPolicyRejected) match every PolicyError.
func (e *PolicyError) Unwrap() error {
	return ErrPolicyRejected
}

// AsPolicyError extracts a *PolicyError from err's chain.
func AsPolicyError(err error) (*PolicyError, bool) {
	var pe *PolicyError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// HasReason reports whether err carries a PolicyError with the given reason.
func HasReason(err error, reason Reason) bool {
	pe, ok := AsPolicyError(err)
	return ok && pe.Reason == reason
}
