package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/ghuser/bookcirc/pkg/app"
	"github.com/ghuser/bookcirc/pkg/auth"
	"github.com/ghuser/bookcirc/pkg/logger"
	"github.com/ghuser/bookcirc/services/circulation/application/handlers"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
)

// CirculationRoutes registers circulation endpoints on the provided chi router.
func CirculationRoutes(r chi.Router, a *app.Application) {
	Routes(r, appsvcs.New(a), a.SessionStore, a.Logger)
}

// Routes mounts the circulation endpoints for an already wired service container.
// Every route requires an authenticated session.
func Routes(r chi.Router, svcs *appsvcs.Services, store sessions.Store, log logger.Logger) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(store, log))
		r.Route("/circulation", func(r chi.Router) {
			r.Route("/loans", func(r chi.Router) {
				r.Get("/", handlers.NewGetLoansHandler(svcs).Execute)
				r.Get("/check", handlers.NewGetCheckHandler(svcs).Execute)
				r.Post("/checkout", handlers.NewPostCheckoutHandler(svcs).Execute)
				r.Post("/return", handlers.NewPostReturnHandler(svcs).Execute)
				r.Post("/{id}/extend", handlers.NewPostExtendHandler(svcs).Execute)
			})
			r.Route("/reservations", func(r chi.Router) {
				r.Post("/", handlers.NewPostReservationHandler(svcs).Execute)
				r.Post("/{id}/cancel", handlers.NewPostCancelReservationHandler(svcs).Execute)
			})
			r.Get("/items/{id}/queue", handlers.NewGetItemQueueHandler(svcs).Execute)
			r.Get("/tenants", handlers.NewGetTenantsHandler(svcs).Execute)
			r.Get("/policy", handlers.NewGetPolicyHandler(svcs).Execute)
			r.Put("/policy", handlers.NewPutPolicyHandler(svcs).Execute)
		})
	})
}
