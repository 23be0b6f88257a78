// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exports protocol counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

// NewRegistry creates a registry with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Metrics counts engine exchanges and monitored frames. It implements
// dysv5w.Observer.
type Metrics struct {
	FramesSent    *prometheus.CounterVec // labels: opcode
	Exchanges     *prometheus.CounterVec // labels: opcode, result
	MonitorFrames *prometheus.CounterVec // labels: opcode
	MonitorErrors prometheus.Counter
}

// New registers the protocol metrics on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dysv5w_frames_sent_total",
			Help: "Frames written to the module.",
		}, []string{"opcode"}),
		Exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dysv5w_exchanges_total",
			Help: "Query exchanges by outcome.",
		}, []string{"opcode", "result"}),
		MonitorFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dysv5w_monitor_frames_total",
			Help: "Frames decoded while monitoring the line.",
		}, []string{"opcode"}),
		MonitorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dysv5w_monitor_errors_total",
			Help: "Rejected frames while monitoring the line.",
		}),
	}
	reg.MustRegister(m.FramesSent, m.Exchanges, m.MonitorFrames, m.MonitorErrors)
	return m
}

// OnSend counts a transmitted frame
func (m *Metrics) OnSend(opcode byte, frame []byte, err error) {
	m.FramesSent.WithLabelValues(dysv5w.FormatOpcode(opcode)).Inc()
}

// OnResponse counts a query outcome
func (m *Metrics) OnResponse(opcode byte, payload []byte, err error) {
	m.Exchanges.WithLabelValues(dysv5w.FormatOpcode(opcode), dysv5w.ClassifyError(err).String()).Inc()
}

// ObserveFrame counts a monitored frame or decoder rejection
func (m *Metrics) ObserveFrame(frame *dysv5w.Frame, err error) {
	if err != nil {
		m.MonitorErrors.Inc()
		return
	}
	if frame != nil {
		m.MonitorFrames.WithLabelValues(dysv5w.FormatOpcode(frame.Opcode())).Inc()
	}
}

var _ dysv5w.Observer = (*Metrics)(nil)

// Serve exposes reg on addr at path until ctx is done
func Serve(ctx context.Context, addr, path string, reg *prometheus.Registry, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(path, Handler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("metrics listening", zap.String("addr", addr), zap.String("path", path))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
