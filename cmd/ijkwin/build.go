// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ijkwin/ijkwin/internal/build"
	"github.com/ijkwin/ijkwin/internal/config"
)

// NewBuildCmd creates the build subcommand.
func NewBuildCmd() *cobra.Command {
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the debug plugin once without opening a window",
		Long: `Run the configured build pipeline once: unlock the debug symbols,
run the build (or rebuild) command and then the copy command.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, rebuild, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "run the rebuild command instead of the build command")
	return cmd
}

// runBuild runs one build job. opts are passed to build.New.
func runBuild(cmd *cobra.Command, rebuild bool, opts []build.Option) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.BuildEnabled() {
		return config.ErrInvalidConfig("build-command", cfg.BuildCommand, "no build command configured")
	}
	logger, _, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}

	done := make(chan build.Completion, 1)
	post := func(_ context.Context, c build.Completion) error {
		done <- c
		return nil
	}
	b, err := build.New(cfg.Build(), post, append([]build.Option{build.WithLogger(logger)}, opts...)...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	b.Request(ctx, rebuild)
	c := <-done
	b.Wait()

	if !c.Success {
		return c.Err
	}
	if err := b.Copy(ctx); err != nil {
		return err
	}
	cmd.Printf("build %s succeeded\n", c.JobID)
	return nil
}
