// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package plugin

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Status labels for transition metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Transitions counts lifecycle transitions by operation and outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var Transitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ijkwin_plugin_transitions_total",
		Help: "Total number of plugin load/reload/unload transitions",
	},
	[]string{"op", "status"},
)

// RegisterMetrics registers plugin package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Transitions)
}

func recordTransition(op string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	Transitions.WithLabelValues(op, status).Inc()
}
