package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/logger"
	"github.com/ghuser/bookcirc/pkg/tenancy"
	circdomain "github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/events"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/domain/repositories"
	domainsvcs "github.com/ghuser/bookcirc/services/circulation/domain/services"
)

// ReserveCommand asks to queue a member for an item.
type ReserveCommand struct {
	Item   Ref
	Member Ref
	Tenant string
}

// QueueEntry is one active reservation with its 1-based queue position.
type QueueEntry struct {
	Reservation *models.Reservation
	Position    int
}

// ReservationService manages the per-item FIFO hold queue.
type ReservationService struct {
	uow     repositories.UnitOfWork
	audit   auditor
	metrics *metrics
	log     logger.Logger
	now     func() time.Time
}

func NewReservationService(uow repositories.UnitOfWork, audit AuditPublisher, log logger.Logger, now func() time.Time) *ReservationService {
	if now == nil {
		now = systemClock
	}
	return &ReservationService{
		uow:     uow,
		audit:   auditor{pub: audit, log: log},
		metrics: newMetrics(),
		log:     log,
		now:     now,
	}
}

// Create appends an active reservation to the item's queue and returns its position.
func (s *ReservationService) Create(ctx context.Context, caller tenancy.Caller, policy models.PolicyConfig, cmd ReserveCommand) (*QueueEntry, error) {
	ctx, span := tracer.Start(ctx, "circulation.Reserve")
	defer span.End()

	now := s.now()
	entry := &QueueEntry{}
	err := s.uow.Do(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		member, _, err := resolveMember(ctx, repos, caller, policy, cmd.Member, true)
		if err != nil {
			return err
		}
		item, _, err := resolveItem(ctx, repos, caller, policy, cmd.Item, true)
		if err != nil {
			return err
		}

		queue, err := repos.Reservations.ListActive(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("load queue: %w", err)
		}
		for _, r := range queue {
			if r.MemberID == member.ID {
				return circdomain.NewPolicyError(circdomain.ReasonDuplicateReservation,
					"member already holds an active reservation for this item",
					map[string]any{"reservation_id": r.ID, "item_id": item.ID})
			}
		}

		tenant, err := writeTenant(caller, cmd.Tenant, item, member)
		if err != nil {
			return err
		}

		r := models.NewReservation(item.ID, member.ID, tenant, now)
		if err := repos.Reservations.Create(ctx, r); err != nil {
			return err
		}
		entry.Reservation = r
		entry.Position = len(queue) + 1
		return nil
	})
	if err != nil {
		s.metrics.fail(ctx, span, "reserve", err)
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	add(ctx, s.metrics.reservations)
	r := entry.Reservation
	s.log.InfoContext(ctx, "reservation created", "reservation_id", r.ID, "item_id", r.ItemID, "position", entry.Position)
	s.audit.emit(ctx, events.TopicReservationCreated, events.ReservationCreatedEvent{
		Envelope:      events.NewEnvelope(caller.UserID, r.TenantID, now),
		ReservationID: r.ID,
		ItemID:        r.ItemID,
		MemberID:      r.MemberID,
		Position:      entry.Position,
	})
	return entry, nil
}

// Cancel withdraws an active reservation. Cancelling a fulfilled or
// cancelled reservation is a no-op and returns it unchanged.
func (s *ReservationService) Cancel(ctx context.Context, caller tenancy.Caller, id uuid.UUID) (*models.Reservation, error) {
	ctx, span := tracer.Start(ctx, "circulation.CancelReservation")
	defer span.End()

	var (
		res       *models.Reservation
		cancelled bool
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		r, err := repos.Reservations.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !tenancy.CanAccess(caller, r.TenantID) {
			return fmt.Errorf("%w: reservation %s belongs to another branch", circdomain.ErrAccessDenied, r.ID)
		}
		res = r
		if cancelled = r.Cancel(); !cancelled {
			return nil
		}
		return repos.Reservations.UpdateStatus(ctx, r.ID, r.Status)
	})
	if err != nil {
		s.metrics.fail(ctx, span, "cancel_reservation", err)
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	if cancelled {
		s.audit.emit(ctx, events.TopicReservationCancelled, events.ReservationCancelledEvent{
			Envelope:      events.NewEnvelope(caller.UserID, res.TenantID, s.now()),
			ReservationID: res.ID,
			ItemID:        res.ItemID,
			MemberID:      res.MemberID,
		})
	}
	return res, nil
}

// Queue lists the item's active reservations in FIFO order.
func (s *ReservationService) Queue(ctx context.Context, caller tenancy.Caller, itemID uuid.UUID) ([]QueueEntry, error) {
	ctx, span := tracer.Start(ctx, "circulation.ReservationQueue")
	defer span.End()

	repos := s.uow.Read()
	item, err := repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("reservation queue: %w", err)
	}
	if !tenancy.CanAccess(caller, item.TenantID) {
		return nil, fmt.Errorf("reservation queue: %w", circdomain.ErrAccessDenied)
	}

	queue, err := repos.Reservations.ListActive(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("reservation queue: %w", err)
	}
	out := make([]QueueEntry, 0, len(queue))
	for _, r := range queue {
		out = append(out, QueueEntry{Reservation: r, Position: domainsvcs.QueuePosition(queue, r.ID)})
	}
	return out, nil
}
