package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ghuser/bookcirc/pkg/logger"
	"github.com/ghuser/bookcirc/pkg/tenancy"
	circdomain "github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/events"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/domain/repositories"
	domainsvcs "github.com/ghuser/bookcirc/services/circulation/domain/services"
)

// PolicyService builds the PolicyConfig for each request from
// circulation_settings over the configured defaults.
// Reads are served from the policy cache when available.
type PolicyService struct {
	uow      repositories.UnitOfWork
	cache    PolicyCache
	defaults models.PolicyConfig
	audit    auditor
	log      logger.Logger
	now      func() time.Time
}

func NewPolicyService(uow repositories.UnitOfWork, cache PolicyCache, defaults models.PolicyConfig, audit AuditPublisher, log logger.Logger, now func() time.Time) *PolicyService {
	if now == nil {
		now = systemClock
	}
	return &PolicyService{
		uow:      uow,
		cache:    cache,
		defaults: defaults,
		audit:    auditor{pub: audit, log: log},
		log:      log,
		now:      now,
	}
}

// Current returns the policy in force. Malformed settings rows are logged and
// the default is kept for that key.
func (s *PolicyService) Current(ctx context.Context) (models.PolicyConfig, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return models.PolicyConfig{}, fmt.Errorf("load policy: %w", err)
	}

	policy, warnings := domainsvcs.BuildPolicy(s.defaults, settings)
	for _, w := range warnings {
		s.log.WarnContext(ctx, "ignoring circulation setting", "error", w)
	}
	return policy, nil
}

// settings reads through the cache. Cache errors fall back to the database.
func (s *PolicyService) settings(ctx context.Context) (map[string]string, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "policy cache read failed", "error", err)
		}
	}

	settings, err := s.uow.Read().Settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, settings); err != nil {
			s.log.WarnContext(ctx, "policy cache write failed", "error", err)
		}
	}
	return settings, nil
}

// Update applies patch to the current policy and stores the result.
// Only privileged callers may change the policy.
func (s *PolicyService) Update(ctx context.Context, caller tenancy.Caller, patch domainsvcs.PolicyPatch) (models.PolicyConfig, error) {
	ctx, span := tracer.Start(ctx, "circulation.UpdatePolicy")
	defer span.End()

	if !caller.Privileged() {
		return models.PolicyConfig{}, fmt.Errorf("update policy: %w: administrator role required", circdomain.ErrAccessDenied)
	}

	var next models.PolicyConfig
	err := s.uow.Do(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		stored, err := repos.Settings.Load(ctx)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		current, _ := domainsvcs.BuildPolicy(s.defaults, stored)
		if next, err = domainsvcs.ApplyPatch(current, patch); err != nil {
			return err
		}
		return repos.Settings.Save(ctx, next.Settings())
	})
	if err != nil {
		span.RecordError(err)
		return models.PolicyConfig{}, fmt.Errorf("update policy: %w", err)
	}

	s.Invalidate(ctx)
	s.log.InfoContext(ctx, "circulation policy updated", "actor_id", caller.UserID)
	s.audit.emit(ctx, events.TopicPolicyUpdated, events.PolicyUpdatedEvent{
		Envelope: events.NewEnvelope(caller.UserID, caller.HomeTenant, s.now()),
		Settings: next.Settings(),
	})
	return next, nil
}

// Invalidate drops the cached settings.
func (s *PolicyService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx); err != nil {
		s.log.WarnContext(ctx, "policy cache invalidation failed", "error", err)
	}
}
