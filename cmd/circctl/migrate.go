package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghuser/bookcirc/migrations/circulation"
	"github.com/ghuser/bookcirc/pkg/migrator"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the circulation schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := migrator.RunMigrations(cmd.Context(), e.cfg.DatabaseURL, circulation.FS); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			v, err := migrator.Version(cmd.Context(), e.db.DB(), circulation.FS)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	})

	return cmd
}
