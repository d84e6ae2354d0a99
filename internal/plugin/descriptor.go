// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package plugin

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
)

// Field bounds, in runes.
const (
	maxNameLength    = 64
	maxDylibLength   = 64
	maxAuthorLength  = 64
	maxVersionLength = 32
	maxInfoLength    = 256
)

// Defaults substituted for empty or invalid descriptor fields.
const (
	DefaultName    = "unnamed plugin"
	DefaultDylib   = "ijk-plugin"
	DefaultAuthor  = "unknown"
	DefaultVersion = "0.0.0"
	DefaultInfo    = "no description"

	// DefaultDebugDylib is the base name of the hot-build output.
	DefaultDebugDylib = "ijk-plugin-debug"
)

// dylibPattern accepts a plain file base name: no separators, no leading dot.
var dylibPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.+-]*$`)

// Descriptor is the immutable metadata of a selectable plugin. The zero
// value is not usable for loading; construct with NewDescriptor.
type Descriptor struct {
	name    string
	dylib   string
	author  string
	version string
	info    string
}

// NewDescriptor builds a descriptor. Fields that are empty or invalid are
// replaced by defaults and overlong fields are truncated, so it never fails.
func NewDescriptor(name, dylib, author, version, info string) Descriptor {
	return Descriptor{
		name:    textOr(name, maxNameLength, DefaultName),
		dylib:   dylibOr(dylib, DefaultDylib),
		author:  textOr(author, maxAuthorLength, DefaultAuthor),
		version: versionOr(version, DefaultVersion),
		info:    textOr(info, maxInfoLength, DefaultInfo),
	}
}

// DebugDescriptor returns the descriptor of the default/debug plugin built by
// the hot-build pipeline. An empty dylib selects DefaultDebugDylib.
func DebugDescriptor(dylib string) Descriptor {
	return NewDescriptor("debug plugin", dylibOr(dylib, DefaultDebugDylib), "", "", "hot-built development plugin")
}

// Name returns the display name.
func (d Descriptor) Name() string { return d.name }

// Dylib returns the library base name, without directory or extension.
func (d Descriptor) Dylib() string { return d.dylib }

// Author returns the author.
func (d Descriptor) Author() string { return d.author }

// Version returns the version text.
func (d Descriptor) Version() string { return d.version }

// Info returns the description blurb.
func (d Descriptor) Info() string { return d.info }

// IsZero reports whether d was not built by NewDescriptor.
func (d Descriptor) IsZero() bool {
	return d.dylib == ""
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s by %s (%s)", d.name, d.version, d.author, d.dylib)
}

func textOr(s string, limit int, def string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if r := []rune(s); len(r) > limit {
		s = strings.TrimSpace(string(r[:limit]))
	}
	return s
}

func dylibOr(s, def string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxDylibLength || strings.Contains(s, "..") || !dylibPattern.MatchString(s) {
		return def
	}
	return s
}

func versionOr(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxVersionLength {
		return def
	}
	if _, err := semver.NewVersion(s); err != nil {
		return def
	}
	return s
}
