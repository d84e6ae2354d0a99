// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package window

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EventsTotal counts routed events by kind.
// Use RegisterMetrics to register this with a Prometheus registry.
var EventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ijkwin_window_events_total",
		Help: "Total number of window events routed",
	},
	[]string{"kind"},
)

// RegisterMetrics registers window package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(EventsTotal)
}
