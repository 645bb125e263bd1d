package services

import (
	"time"

	"github.com/ghuser/bookcirc/services/circulation/domain/models"
)

// DaysLate counts whole days between the due date and the return, floored at zero.
func DaysLate(due, returnedAt time.Time) int {
	if d := models.DaysBetween(due, returnedAt); d > 0 {
		return d
	}
	return 0
}

// ComputeFine is daysLate × fine_per_day_cents when fines are enabled, else 0.
func ComputeFine(policy models.PolicyConfig, due, returnedAt time.Time) int64 {
	if !policy.FinesEnabled || policy.FinePerDayCents <= 0 {
		return 0
	}
	return int64(DaysLate(due, returnedAt)) * policy.FinePerDayCents
}
