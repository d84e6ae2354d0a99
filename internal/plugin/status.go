// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package plugin

// Status is a snapshot of a Plugin. Unlike the Plugin itself it may be read
// from any goroutine.
type Status struct {
	Loaded   bool     `json:"loaded"`
	ID       int      `json:"id"`
	Hot      bool     `json:"hot"`
	Name     string   `json:"name,omitempty"`
	Dylib    string   `json:"dylib,omitempty"`
	Version  string   `json:"version,omitempty"`
	Resolved []string `json:"resolved,omitempty"`
}

// Status returns the snapshot published by the last transition.
func (p *Plugin) Status() Status {
	if s := p.status.Load(); s != nil {
		return *s
	}
	return Status{ID: NoPlugin}
}

// publish records the current state for Status readers.
func (p *Plugin) publish() {
	s := &Status{ID: p.id}
	if p.lib != nil {
		s.Loaded = true
		s.Hot = p.id < 0
		s.Name = p.desc.Name()
		s.Dylib = p.desc.Dylib()
		s.Version = p.desc.Version()
		for _, slot := range Slots() {
			if p.table.Resolved(slot) {
				s.Resolved = append(s.Resolved, slot.Symbol())
			}
		}
	}
	p.status.Store(s)
}
