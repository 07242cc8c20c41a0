package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/enzymemap/internal/infrastructure/database/postgres"
)

func newMigrateCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending schema migrations",
			RunE: func(*cobra.Command, []string) error {
				return runMigration(root, func(m *postgres.Migrator) error { return m.Up() })
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent schema migration",
			RunE: func(*cobra.Command, []string) error {
				return runMigration(root, func(m *postgres.Migrator) error { return m.Down() })
			},
		},
	)
	return cmd
}

func runMigration(root *RootOptions, fn func(*postgres.Migrator) error) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	return fn(postgres.NewMigrator(cfg.Database, logger))
}
