/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package cmd defines the corral command tree.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the entry point of the corral binary.
var rootCmd = &cobra.Command{
	Use:   "corral",
	Short: "Corral clustering control plane",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Nothing to do. Use sub-commands instead.")
	},
}

// GetRootCmd returns the assembled command tree.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	configureLogger()
}

func configureLogger() {
	level := slog.LevelInfo
	if raw := os.Getenv("CORRAL_LOG_LEVEL"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			level = slog.LevelInfo
		}
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	}))
	slog.SetDefault(logger)
}
