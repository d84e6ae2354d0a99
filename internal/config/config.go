// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

// Package config loads ijkwin settings from an optional YAML file and
// command-line flags.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ijkwin/ijkwin/internal/build"
	"github.com/ijkwin/ijkwin/internal/logging"
	"github.com/ijkwin/ijkwin/internal/plugin"
	"github.com/ijkwin/ijkwin/internal/window"
	"github.com/ijkwin/ijkwin/internal/xdg"
)

// Backends.
const (
	BackendTerminal = "terminal"
	BackendHeadless = "headless"
)

// LoadNone and LoadDebug are the special values of Config.Load.
const (
	LoadNone  = plugin.NoPlugin
	LoadDebug = plugin.DebugID
)

// Config holds every ijkwin setting. Keys are shared by the YAML file and
// the flags of the same name.
type Config struct {
	PluginDir  string   `koanf:"plugin-dir" json:"plugin-dir,omitempty" jsonschema:"description=Directory plugin binaries are loaded from"`
	Catalog    string   `koanf:"catalog" json:"catalog,omitempty" jsonschema:"description=Plugin catalog file"`
	DebugDylib string   `koanf:"debug-dylib" json:"debug-dylib,omitempty" jsonschema:"description=Base name of the hot-built plugin"`
	Load       int      `koanf:"load" json:"load,omitempty" jsonschema:"minimum=-2,description=Catalog index loaded at startup; -1 none and -2 the debug plugin"`
	Flags      []string `koanf:"flags" json:"flags,omitempty" jsonschema:"description=Control flag patterns such as f* or escape"`
	FrameWait  int      `koanf:"frame-wait-ms" json:"frame-wait-ms,omitempty" jsonschema:"minimum=0,description=Idle wait per frame in milliseconds"`
	Backend    string   `koanf:"backend" json:"backend,omitempty" jsonschema:"enum=terminal,enum=headless"`

	LogFormat   string `koanf:"log-format" json:"log-format,omitempty" jsonschema:"enum=json,enum=text"`
	LogLevel    string `koanf:"log-level" json:"log-level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	LogFile     string `koanf:"log-file" json:"log-file,omitempty" jsonschema:"description=Log destination; terminal mode defaults to the XDG state dir"`
	MetricsAddr string `koanf:"metrics-addr" json:"metrics-addr,omitempty" jsonschema:"description=Listen address for /metrics and health probes; empty disables"`

	BuildDir       string   `koanf:"build-dir" json:"build-dir,omitempty"`
	BuildCommand   []string `koanf:"build-command" json:"build-command,omitempty"`
	RebuildCommand []string `koanf:"rebuild-command" json:"rebuild-command,omitempty"`
	CopyCommand    []string `koanf:"copy-command" json:"copy-command,omitempty"`
	SymbolsPath    string   `koanf:"symbols-path" json:"symbols-path,omitempty"`
	UnlockRetries  int      `koanf:"unlock-retries" json:"unlock-retries,omitempty" jsonschema:"minimum=0,description=Retries after the first symbol unlock attempt; 0 tries once"`
	UnlockDelay    int      `koanf:"unlock-delay-ms" json:"unlock-delay-ms,omitempty" jsonschema:"minimum=0"`
}

// RegisterFlags adds one flag per Config key. Flag defaults are the
// config defaults.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("plugin-dir", plugin.DefaultDir, "directory plugin binaries are loaded from")
	flags.String("catalog", filepath.Join(plugin.DefaultDir, "catalog.txt"), "plugin catalog file")
	flags.String("debug-dylib", plugin.DefaultDebugDylib, "base name of the hot-built plugin")
	flags.Int("load", LoadNone, "catalog index to load at startup (-1 none, -2 debug plugin)")
	flags.StringSlice("flags", []string{"f*", "escape"},
		"control flag patterns over "+strings.Join(window.FlagNames(), ", "))
	flags.Int("frame-wait-ms", int(window.DefaultFrameWait/time.Millisecond), "idle wait per frame in milliseconds")
	flags.String("backend", BackendTerminal, "window backend (terminal, headless)")

	flags.String("log-format", logging.FormatJSON, "log format (json, text)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "log file; terminal mode defaults to the XDG state dir")
	flags.String("metrics-addr", "", "listen address for metrics and health probes")

	flags.String("build-dir", ".", "working directory of the build tools")
	flags.StringSlice("build-command", nil, "incremental build command")
	flags.StringSlice("rebuild-command", nil, "full rebuild command")
	flags.StringSlice("copy-command", nil, "command copying the built plugin into place")
	flags.String("symbols-path", "", "debug symbol file to unlock before building")
	flags.Int("unlock-retries", build.DefaultUnlockRetries, "symbol unlock retries after the first attempt")
	flags.Int("unlock-delay-ms", int(build.DefaultUnlockDelay/time.Millisecond), "pause before each unlock retry in milliseconds")
}

// Default returns the configuration with no file and no flags set.
func Default() *Config {
	flags := pflag.NewFlagSet("defaults", pflag.ContinueOnError)
	RegisterFlags(flags)
	cfg, err := load("", flags)
	if err != nil {
		panic(err) // flag defaults always decode
	}
	return cfg
}

// Load reads path, or the XDG default config file when path is empty and
// the file exists, then overlays the flags changed in flags. Unchanged flags
// supply defaults for keys the file leaves out. flags must have been passed
// to RegisterFlags.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	path, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	return load(path, flags)
}

func load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // config path comes from the command line
		if err != nil {
			return nil, ErrConfigNotFound(path, err)
		}
		if err := ValidateYAML(data); err != nil {
			return nil, ErrSchemaViolation(path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, ErrConfigNotFound(path, err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, ErrInvalidConfig("flags", flags.Name(), err.Error())
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, ErrInvalidConfig("config", path, err.Error())
	}
	return &cfg, nil
}

// resolvePath keeps an explicit path and otherwise returns the XDG config
// file if it exists, or "" for none.
func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	def, err := xdg.ConfigFile()
	if err != nil {
		return "", nil //nolint:nilerr // no home directory means no default file
	}
	if _, err := os.Stat(def); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", ErrConfigNotFound(def, err)
	}
	return def, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if c.PluginDir == "" {
		return ErrInvalidConfig("plugin-dir", c.PluginDir, "must not be empty")
	}
	if c.Load < LoadDebug {
		return ErrInvalidConfig("load", c.Load, "must be a catalog index, -1 or -2")
	}
	if c.FrameWait < 0 {
		return ErrInvalidConfig("frame-wait-ms", c.FrameWait, "must not be negative")
	}
	if !slices.Contains([]string{BackendTerminal, BackendHeadless}, c.Backend) {
		return ErrInvalidConfig("backend", c.Backend, "must be terminal or headless")
	}
	if !slices.Contains([]string{logging.FormatJSON, logging.FormatText}, c.LogFormat) {
		return ErrInvalidConfig("log-format", c.LogFormat, "must be json or text")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return ErrInvalidConfig("log-level", c.LogLevel, err.Error())
	}
	if _, err := c.ControlFlags(); err != nil {
		return ErrInvalidConfig("flags", c.Flags, err.Error())
	}
	if c.UnlockRetries < 0 {
		return ErrInvalidConfig("unlock-retries", c.UnlockRetries, "must not be negative")
	}
	if c.UnlockDelay < 0 {
		return ErrInvalidConfig("unlock-delay-ms", c.UnlockDelay, "must not be negative")
	}
	if len(c.BuildCommand) == 0 && (len(c.RebuildCommand) > 0 || len(c.CopyCommand) > 0) {
		return ErrInvalidConfig("build-command", c.BuildCommand, "required when rebuild-command or copy-command is set")
	}
	return nil
}

// ControlFlags parses Flags.
func (c *Config) ControlFlags() (window.ControlFlags, error) {
	return window.ParseControlFlags(c.Flags)
}

// FrameWaitDuration returns FrameWait as a duration.
func (c *Config) FrameWaitDuration() time.Duration {
	return time.Duration(c.FrameWait) * time.Millisecond
}

// BuildEnabled reports whether a build command is configured.
func (c *Config) BuildEnabled() bool {
	return len(c.BuildCommand) > 0
}

// Build returns the build pipeline settings.
func (c *Config) Build() build.Config {
	retries := uint64(c.UnlockRetries) //nolint:gosec // validated non-negative
	return build.Config{
		Dir:            c.BuildDir,
		BuildCommand:   c.BuildCommand,
		RebuildCommand: c.RebuildCommand,
		CopyCommand:    c.CopyCommand,
		SymbolsPath:    c.SymbolsPath,
		UnlockRetries:  &retries,
		UnlockDelay:    time.Duration(c.UnlockDelay) * time.Millisecond,
	}
}

// DebugDescriptor returns the descriptor of the hot-built plugin.
func (c *Config) DebugDescriptor() plugin.Descriptor {
	return plugin.DebugDescriptor(c.DebugDylib)
}

// ResolveLogFile returns LogFile, or the XDG log file in terminal mode when
// unset. "" means stderr.
func (c *Config) ResolveLogFile() (string, error) {
	if c.LogFile != "" || c.Backend != BackendTerminal {
		return c.LogFile, nil
	}
	return xdg.LogFile()
}
