// Command circctl is the operator CLI for the circulation service: schema
// migrations, the overdue report and the effective policy.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ghuser/bookcirc/pkg/app"
	"github.com/ghuser/bookcirc/pkg/config"
	"github.com/ghuser/bookcirc/pkg/database"
	"github.com/ghuser/bookcirc/pkg/logger"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "circctl",
		Short:        "Operate the circulation service",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newOverdueCmd(), newPolicyCmd())
	return root
}

// env holds what every database-backed command needs.
type env struct {
	cfg *config.Config
	log logger.Logger
	db  *database.Database
}

func (e *env) Close() {
	if e.db != nil {
		_ = e.db.DB().Close()
	}
}

// services builds the circulation services without the event bus or Redis;
// the CLI only reads.
func (e *env) services() *appsvcs.Services {
	return appsvcs.New(&app.Application{Config: e.cfg, Db: e.db, Logger: e.log})
}

func loadEnv(ctx context.Context, connect bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	e := &env{cfg: cfg, log: logger.New(cfg)}
	if !connect {
		return e, nil
	}
	e.db, err = database.NewPool(ctx, cfg.DatabaseURL, e.log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return e, nil
}
