// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taibuivan/sessiongate/internal/platform/config"
	"github.com/taibuivan/sessiongate/internal/platform/migration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the account schema",
		Long: `Apply, roll back or inspect migrations under MIGRATION_PATH.

The server applies pending migrations on startup; these commands exist for
rollbacks and for preparing a database ahead of a deploy.`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, cliLogger())
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return migration.RunDown(cfg.DatabaseURL, cfg.MigrationPath, steps, cliLogger())
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	var output string
	status := &cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			current, err := migration.CurrentStatus(cfg.DatabaseURL, cfg.MigrationPath, cliLogger())
			if err != nil {
				return err
			}

			if output == formatTable {
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", current.Version, current.Dirty)
				return nil
			}
			return writeValue(cmd.OutOrStdout(), output, current)
		},
	}
	status.Flags().StringVarP(&output, "output", "o", formatTable, "Output format (table, yaml, json)")

	cmd.AddCommand(up, down, status)
	return cmd
}
