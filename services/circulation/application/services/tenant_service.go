package services

import (
	"context"
	"fmt"

	"github.com/ghuser/bookcirc/pkg/tenancy"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/domain/repositories"
)

// TenantService lists the branches a caller may see.
type TenantService struct {
	uow repositories.UnitOfWork
}

func NewTenantService(uow repositories.UnitOfWork) *TenantService {
	return &TenantService{uow: uow}
}

// List returns the branches visible to caller. requested follows the same
// rules as every other scoped read.
func (s *TenantService) List(ctx context.Context, caller tenancy.Caller, requested string) ([]*models.Tenant, error) {
	scope, err := tenancy.ScopeFilter(caller, requested, "id")
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	tenants, err := s.uow.Read().Tenants.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}
