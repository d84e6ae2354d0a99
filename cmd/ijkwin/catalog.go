// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/ijkwin/ijkwin/internal/config"
	"github.com/ijkwin/ijkwin/internal/plugin"
)

// NewCatalogCmd creates the catalog subcommand.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the selectable plugins",
		Long: `Parse the plugin catalog and print its entries as YAML with the ids
the LOAD command accepts.`,
		RunE: runCatalog,
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, _, err := setupLogging(cfg, false); err != nil {
		return err
	}

	catalog, err := plugin.LoadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	defer catalog.Release()

	if n := catalog.Skipped(); n > 0 {
		cmd.PrintErrf("skipped %d malformed entries\n", n)
	}
	return catalog.WriteYAML(cmd.OutOrStdout())
}
