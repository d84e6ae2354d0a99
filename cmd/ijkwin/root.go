// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the ijkwin CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ijkwin",
		Short: "ijkwin - a hot-reloading plugin window host",
		Long: `ijkwin opens a window, loads a plugin exposing a fixed table of
callbacks, routes input into it and can rebuild and hot-swap the plugin
without restarting.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/ijkwin/config.yaml)")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewCatalogCmd())
	cmd.AddCommand(NewBuildCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}
