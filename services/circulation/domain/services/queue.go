package services

import (
	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
)

// CheckQueue decides whether memberID may take an item whose reservation
// queue is headed by head. An empty queue admits anyone. Otherwise only the
// head's member is admitted, and the head is returned so the checkout can
// mark it fulfilled.
func CheckQueue(head *models.Reservation, memberID uuid.UUID) (*models.Reservation, error) {
	if head == nil {
		return nil, nil
	}
	if head.MemberID == memberID {
		return head, nil
	}
	return nil, domain.NewPolicyError(domain.ReasonQueueConflict,
		"item is reserved for another member",
		map[string]any{"item_id": head.ItemID, "head_reservation_id": head.ID})
}

// QueuePosition returns the 1-based position of reservationID in queue, or 0.
func QueuePosition(queue []*models.Reservation, reservationID uuid.UUID) int {
	for i, r := range queue {
		if r.ID == reservationID {
			return i + 1
		}
	}
	return 0
}
