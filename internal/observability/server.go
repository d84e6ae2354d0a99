// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

// Package observability serves the window host's metrics, health probes and
// status over HTTP.
package observability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"

	"github.com/ijkwin/ijkwin/internal/plugin"
)

// HostStatus is the window host state behind /status, readiness and the
// host gauges.
type HostStatus struct {
	Running  bool          `json:"running"`
	Windows  int           `json:"windows"`
	Building bool          `json:"building"`
	Plugin   plugin.Status `json:"plugin"`
}

// Ready reports whether the router is pumping events for an open window.
func (h HostStatus) Ready() bool {
	return h.Running && h.Windows > 0
}

// StatusFunc reports the current host state. It is called from HTTP handlers
// and scrapes, so it must be safe for concurrent use.
type StatusFunc func() HostStatus

// Registrar registers a package's collectors, e.g. plugin.RegisterMetrics.
type Registrar func(prometheus.Registerer)

// Metrics contains process-level ijkwin metrics.
type Metrics struct {
	Info      *prometheus.GaugeVec
	StartTime prometheus.Gauge
}

// NewMetrics creates and registers the process-level metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ijkwin_info",
			Help: "Build information, always 1",
		}, []string{"version", "commit"}),
		StartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ijkwin_start_time_seconds",
			Help: "Unix time the window host started",
		}),
	}
	reg.MustRegister(m.Info, m.StartTime)
	return m
}

// SetBuildInfo publishes version and commit and stamps the start time.
func (m *Metrics) SetBuildInfo(version, commit string) {
	m.Info.Reset()
	m.Info.WithLabelValues(version, commit).Set(1)
	m.StartTime.SetToCurrentTime()
}

var (
	runningDesc = prometheus.NewDesc("ijkwin_host_running",
		"1 while the router is pumping events", nil, nil)
	windowsDesc = prometheus.NewDesc("ijkwin_open_windows",
		"Number of windows registered with the platform", nil, nil)
	buildingDesc = prometheus.NewDesc("ijkwin_build_in_progress",
		"1 while a plugin build job runs", nil, nil)
	loadedDesc = prometheus.NewDesc("ijkwin_plugin_loaded",
		"1 for the loaded plugin; absent when none is loaded", []string{"plugin", "dylib", "hot"}, nil)
	resolvedDesc = prometheus.NewDesc("ijkwin_plugin_resolved_slots",
		"Callbacks exported by the loaded plugin", nil, nil)
)

// hostCollector turns a HostStatus into gauges at scrape time.
type hostCollector struct {
	status StatusFunc
}

func (c hostCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- runningDesc
	ch <- windowsDesc
	ch <- buildingDesc
	ch <- loadedDesc
	ch <- resolvedDesc
}

func (c hostCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.status()
	ch <- prometheus.MustNewConstMetric(runningDesc, prometheus.GaugeValue, boolValue(st.Running))
	ch <- prometheus.MustNewConstMetric(windowsDesc, prometheus.GaugeValue, float64(st.Windows))
	ch <- prometheus.MustNewConstMetric(buildingDesc, prometheus.GaugeValue, boolValue(st.Building))
	ch <- prometheus.MustNewConstMetric(resolvedDesc, prometheus.GaugeValue, float64(len(st.Plugin.Resolved)))
	if st.Plugin.Loaded {
		hot := "false"
		if st.Plugin.Hot {
			hot = "true"
		}
		ch <- prometheus.MustNewConstMetric(loadedDesc, prometheus.GaugeValue, 1,
			st.Plugin.Name, st.Plugin.Dylib, hot)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Server serves /metrics, /status and the liveness and readiness probes.
type Server struct {
	addr     string
	registry *prometheus.Registry
	metrics  *Metrics
	status   StatusFunc

	running    atomic.Bool
	listener   net.Listener
	httpServer *http.Server
}

// NewServer creates a server listening on addr ("127.0.0.1:9100", ":0").
// A nil status reports an idle host that is always ready. Each registrar adds
// a package's collectors to the server's private registry.
func NewServer(addr string, status StatusFunc, registrars ...Registrar) *Server {
	if status == nil {
		status = func() HostStatus {
			return HostStatus{Running: true, Windows: 1, Plugin: plugin.Status{ID: plugin.NoPlugin}}
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		hostCollector{status: status},
	)
	metrics := NewMetrics(registry)
	for _, register := range registrars {
		register(registry)
	}

	return &Server{
		addr:     addr,
		registry: registry,
		metrics:  metrics,
		status:   status,
	}
}

// Metrics returns the process-level metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz/liveness", func(w http.ResponseWriter, _ *http.Request) {
		writeProbe(w, true)
	})
	mux.HandleFunc("/healthz/readiness", func(w http.ResponseWriter, _ *http.Request) {
		writeProbe(w, s.status().Ready())
	})
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Start listens and serves in the background. The returned channel receives
// a serve failure and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.listener = listener
	s.httpServer = srv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.Info("observability server listening", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop shuts the server down. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return oops.With("operation", "shutdown_observability_server").Wrap(err)
	}
	return nil
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status()); err != nil {
		slog.Debug("error writing status", "error", err)
	}
}

func writeProbe(w http.ResponseWriter, ok bool) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	body := "ok\n"
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		body = "not ready\n"
	}
	//nolint:errcheck // the client may have disconnected
	w.Write([]byte(body))
}
