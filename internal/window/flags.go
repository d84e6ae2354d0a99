// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package window

import (
	"strings"

	"github.com/gobwas/glob"
)

// ControlFlags enables individual window control keys and features. A
// control key whose flag is clear is delivered to the plugin as an ordinary
// virtual key.
type ControlFlags uint32

// Control flags.
const (
	FlagF1 ControlFlags = 1 << iota
	FlagF2
	FlagF3
	FlagF4
	FlagF5
	FlagF6
	FlagF7
	FlagF8
	FlagF9
	FlagF10
	FlagF11
	FlagF12
	FlagEscape
	FlagLockCursor
	FlagHideCursor
	FlagDrawInactive
)

// FlagsAllKeys enables every control key.
const FlagsAllKeys = FlagF1 | FlagF2 | FlagF3 | FlagF4 | FlagF5 | FlagF6 |
	FlagF7 | FlagF8 | FlagF9 | FlagF10 | FlagF11 | FlagF12 | FlagEscape

// DefaultFlags is used when no flags are configured.
const DefaultFlags = FlagsAllKeys

// flagNames lists flags in bit order.
var flagNames = []struct {
	flag ControlFlags
	name string
}{
	{FlagF1, "f1"},
	{FlagF2, "f2"},
	{FlagF3, "f3"},
	{FlagF4, "f4"},
	{FlagF5, "f5"},
	{FlagF6, "f6"},
	{FlagF7, "f7"},
	{FlagF8, "f8"},
	{FlagF9, "f9"},
	{FlagF10, "f10"},
	{FlagF11, "f11"},
	{FlagF12, "f12"},
	{FlagEscape, "escape"},
	{FlagLockCursor, "lock-cursor"},
	{FlagHideCursor, "hide-cursor"},
	{FlagDrawInactive, "draw-inactive"},
}

// FlagNames returns the name of every flag in bit order.
func FlagNames() []string {
	names := make([]string, len(flagNames))
	for i, f := range flagNames {
		names[i] = f.name
	}
	return names
}

// Has reports whether every bit of x is set.
func (f ControlFlags) Has(x ControlFlags) bool {
	return f&x == x
}

// String joins the names of the set flags with '|'.
func (f ControlFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, n := range flagNames {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseControlFlags combines flag names and glob patterns, matched
// case-insensitively: "f3", "escape", "f*" (all function keys), "*". The
// special name "none" contributes nothing. A pattern matching no flag is an
// error.
func ParseControlFlags(patterns []string) (ControlFlags, error) {
	var flags ControlFlags
	for _, raw := range patterns {
		p := strings.ToLower(strings.TrimSpace(raw))
		if p == "" || p == "none" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return 0, ErrInvalidFlag(raw, err)
		}
		matched := false
		for _, n := range flagNames {
			if g.Match(n.name) {
				flags |= n.flag
				matched = true
			}
		}
		if !matched {
			return 0, ErrInvalidFlag(raw, nil)
		}
	}
	return flags, nil
}

// controlFlagFor returns the flag gating a control key, or 0 when k is not
// a control key.
func controlFlagFor(k Key) ControlFlags {
	switch {
	case k >= KeyF1 && k <= KeyF12:
		return FlagF1 << (k - KeyF1)
	case k == KeyEscape:
		return FlagEscape
	default:
		return 0
	}
}
