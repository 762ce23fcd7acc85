/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"log/slog"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// versionCmd prints build information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		buildCommit := unknownSettingValue
		buildTime := unknownSettingValue
		if info, ok := debug.ReadBuildInfo(); ok {
			if value := getSetting(info, vcsRevisionSettingKey); value != "" {
				buildCommit = value
			}
			if value := getSetting(info, vcsTimeSettingKey); value != "" {
				buildTime = value
			}
		}
		slog.Info("Version",
			slog.String("commit", buildCommit),
			slog.String("time", buildTime))
	},
}

// getSetting returns the value of the build setting with the given key.
// Returns an empty string if no such setting exists.
func getSetting(info *debug.BuildInfo, key string) string {
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// Names of build settings we are interested on:
const (
	vcsRevisionSettingKey = "vcs.revision"
	vcsTimeSettingKey     = "vcs.time"
)

// Fallback value for unknown settings:
const unknownSettingValue = "unknown"

func init() {
	rootCmd.AddCommand(versionCmd)
}
