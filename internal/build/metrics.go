// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package build

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Status labels for build metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusDropped = "dropped"
)

// BuildsTotal counts build requests by mode and outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var BuildsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ijkwin_builds_total",
		Help: "Total number of plugin build requests",
	},
	[]string{"mode", "status"},
)

// BuildDuration observes how long accepted build jobs take.
// Use RegisterMetrics to register this with a Prometheus registry.
var BuildDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ijkwin_build_duration_seconds",
		Help:    "Plugin build job duration in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	},
	[]string{"mode"},
)

// RegisterMetrics registers build package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(BuildsTotal)
	reg.MustRegister(BuildDuration)
}

func mode(rebuild bool) string {
	if rebuild {
		return "rebuild"
	}
	return "build"
}
