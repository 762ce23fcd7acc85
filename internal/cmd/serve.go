/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/corral-cloud/corral/internal/config"
	"github.com/corral-cloud/corral/internal/database"
	"github.com/corral-cloud/corral/internal/engine"
	"github.com/corral-cloud/corral/internal/storage/postgres"
)

// serveCmd starts the engine.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the corral engine",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := config.Load()
		if err != nil {
			slog.Error("failed to load configuration", "err", err)
			os.Exit(1)
		}
		if err := settings.ApplyFlags(cmd.Flags()); err != nil {
			slog.Error("failed to apply flags", "err", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := database.NewPgxPool(ctx, settings.PgConfig())
		if err != nil {
			slog.Error("failed to connect to database", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		instance := engine.New(engine.Params{
			Store:   postgres.NewStore(pool),
			Workers: settings.Workers,
			AuthURL: settings.AuthURL,
			Logger:  slog.Default(),
		})
		if err := instance.Run(ctx); err != nil {
			slog.Error("engine stopped with error", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.Int64(config.WorkersFlagName, 0, "Number of concurrent action workers.")
	flags.String(config.AuthURLFlagName, "", "Identity endpoint of the infrastructure driver.")
	rootCmd.AddCommand(serveCmd)
}
