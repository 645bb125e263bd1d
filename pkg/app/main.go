package app

import (
	"github.com/gorilla/sessions"

	"github.com/ghuser/bookcirc/pkg/cache"
	"github.com/ghuser/bookcirc/pkg/config"
	"github.com/ghuser/bookcirc/pkg/database"
	"github.com/ghuser/bookcirc/pkg/events"
	"github.com/ghuser/bookcirc/pkg/logger"
)

// Application holds shared infrastructure dependencies for all services.
// Pass to all service route functions during server initialization.
//
// Logging: app.Logger is backed by a trace-aware handler. Use the context
// methods and trace_id, span_id, and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "loan checked out", "loan_id", id)
//	app.Logger.ErrorContext(ctx, "failed to save", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config       *config.Config
	Db           *database.Database
	Logger       logger.Logger
	EventBus     *events.EventBus
	Redis        *cache.RedisClient
	SessionStore sessions.Store // Redis-backed session store; nil in worker process
}
