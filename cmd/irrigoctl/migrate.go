package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/irrigo/irrigo/internal/app"
	"github.com/irrigo/irrigo/internal/platform/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if err := db.MigrateUp(cfg.PGDSN); err != nil {
				return err
			}
			return printVersion(cmd, cfg.PGDSN)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if err := db.MigrateDown(cfg.PGDSN, steps); err != nil {
				return err
			}
			return printVersion(cmd, cfg.PGDSN)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert")

	cmd.AddCommand(up, down)
	return cmd
}

func printVersion(cmd *cobra.Command, dsn string) error {
	version, dirty, err := db.MigrationVersion(dsn)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
	return nil
}
