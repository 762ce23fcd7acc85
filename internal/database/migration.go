/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrationsTable table created by migration lib to track state of migration
const MigrationsTable = "schema_migrations"

//go:embed migrations/*.sql
var migrations embed.FS

type MigrationHandler struct {
	Migrate *migrate.Migrate
}

// Printf is the implementation of migrate lib's logger interface
func (h *MigrationHandler) Printf(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf(format, v...))
}

// Verbose is the implementation of migrate lib's logger interface
func (h *MigrationHandler) Verbose() bool {
	return true
}

// NewMigrationHandler builds a migrate instance over the embedded SQL sources.
func NewMigrationHandler(cfg PgConfig) (*MigrationHandler, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migrations source: %w", err)
	}

	// https://github.com/golang-migrate/migrate/tree/master/database/pgx/v5
	connStr := fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=disable&connect_timeout=10&x-migrations-table=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, MigrationsTable)

	m, err := migrate.NewWithSourceInstance("iofs", source, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	h := &MigrationHandler{
		Migrate: m,
	}
	m.Log = h

	return h, nil
}

func timer(name string) func() {
	start := time.Now()
	return func() {
		slog.Debug(fmt.Sprintf("%s took %s", name, time.Since(start)))
	}
}

// StartMigration runs all pending migrations.
func StartMigration(cfg PgConfig) error {
	h, err := NewMigrationHandler(cfg)
	if err != nil {
		return fmt.Errorf("failed to create migrations handler: %w", err)
	}

	defer timer("Up")()
	if err := h.Migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed up: %w", err)
	}

	slog.Info("Migrations completed successfully")
	return nil
}
