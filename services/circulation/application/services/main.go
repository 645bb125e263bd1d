package services

import (
	"time"

	"github.com/ghuser/bookcirc/pkg/app"
	"github.com/ghuser/bookcirc/pkg/cache"
	"github.com/ghuser/bookcirc/pkg/config"
	"github.com/ghuser/bookcirc/pkg/logger"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/domain/repositories"
	"github.com/ghuser/bookcirc/services/circulation/infrastructure/messaging"
	"github.com/ghuser/bookcirc/services/circulation/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Loans        *LoanService
	Reservations *ReservationService
	Policy       *PolicyService
	Tenants      *TenantService
}

// Deps are the infrastructure ports the services run on. Tests pass the
// in-memory store; production passes the postgres unit of work.
type Deps struct {
	UnitOfWork  repositories.UnitOfWork
	Audit       AuditPublisher
	PolicyCache PolicyCache
	Defaults    models.PolicyConfig
	Logger      logger.Logger
	Now         func() time.Time
}

// NewWith builds the services from explicit dependencies.
func NewWith(d Deps) *Services {
	return &Services{
		Loans:        NewLoanService(d.UnitOfWork, d.Audit, d.Logger, d.Now),
		Reservations: NewReservationService(d.UnitOfWork, d.Audit, d.Logger, d.Now),
		Policy:       NewPolicyService(d.UnitOfWork, d.PolicyCache, d.Defaults, d.Audit, d.Logger, d.Now),
		Tenants:      NewTenantService(d.UnitOfWork),
	}
}

// New wires all circulation application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	d := Deps{
		UnitOfWork: postgres.NewUnitOfWork(a.Db),
		Logger:     a.Logger,
		Defaults:   DefaultsFromConfig(a.Config.Circulation),
	}
	if a.EventBus != nil {
		d.Audit = messaging.NewAuditPublisher(a.EventBus)
	}
	if a.Redis != nil {
		d.PolicyCache = cache.NewPolicyCache(a.Redis, a.Config.Circulation.PolicyCacheTTL)
	}
	return NewWith(d)
}

// DefaultsFromConfig maps the environment defaults to a PolicyConfig.
func DefaultsFromConfig(c config.Circulation) models.PolicyConfig {
	return models.PolicyConfig{
		DefaultLoanDays:   c.DefaultLoanDays,
		DefaultExtendDays: c.DefaultExtendDays,
		MaxActiveLoans:    c.MaxActiveLoans,
		BlockOnOverdue:    c.BlockOnOverdue,
		FinesEnabled:      c.FinesEnabled,
		FinePerDayCents:   c.FinePerDayCents,
		FuzzySuffixLength: c.FuzzySuffixLength,
	}
}
