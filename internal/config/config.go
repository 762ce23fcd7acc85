/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package config holds the environment-driven settings of the corral
// binary.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"

	"github.com/corral-cloud/corral/internal/database"
)

// Flag names understood by ApplyFlags.
const (
	WorkersFlagName = "workers"
	AuthURLFlagName = "auth-url"
)

// Settings is filled from CORRAL_* environment variables.
type Settings struct {
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"corral"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"corral"`
	DBName     string `envconfig:"DB_NAME" default:"corral"`

	// Workers bounds the number of actions executing concurrently.
	Workers int64 `envconfig:"WORKERS" default:"8"`

	// AuthURL is the identity endpoint handed to the infrastructure driver.
	AuthURL string `envconfig:"AUTH_URL"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the settings from the environment.
func Load() (*Settings, error) {
	var settings Settings
	if err := envconfig.Process("corral", &settings); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if settings.Workers < 1 {
		return nil, fmt.Errorf("worker count must be positive, got %d", settings.Workers)
	}
	return &settings, nil
}

// ApplyFlags overrides environment settings with command line flags.
// Only flags the user actually set are applied.
func (s *Settings) ApplyFlags(flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	if flags.Changed(WorkersFlagName) {
		value, err := flags.GetInt64(WorkersFlagName)
		if err != nil {
			return err
		}
		if value < 1 {
			return fmt.Errorf("worker count must be positive, got %d", value)
		}
		s.Workers = value
	}
	if flags.Changed(AuthURLFlagName) {
		value, err := flags.GetString(AuthURLFlagName)
		if err != nil {
			return err
		}
		s.AuthURL = value
	}
	return nil
}

// PgConfig renders the database part of the settings.
func (s *Settings) PgConfig() database.PgConfig {
	return database.PgConfig{
		Host:     s.DBHost,
		Port:     s.DBPort,
		User:     s.DBUser,
		Password: s.DBPassword,
		Database: s.DBName,
	}
}
