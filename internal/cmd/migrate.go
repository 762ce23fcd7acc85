/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/corral-cloud/corral/internal/config"
	"github.com/corral-cloud/corral/internal/database"
)

// migrateCmd runs the schema migrations all the way up.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run schema migrations",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := config.Load()
		if err != nil {
			slog.Error("failed to load configuration", "err", err)
			os.Exit(1)
		}
		if err := database.StartMigration(settings.PgConfig()); err != nil {
			slog.Error("failed to run migrations", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
