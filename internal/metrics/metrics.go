// Package metrics exposes Prometheus collectors for voiceover generation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voiceover"

// Metrics groups the collectors recorded by the generation pipeline.
type Metrics struct {
	slidesTotal       *prometheus.CounterVec
	synthesisDuration *prometheus.HistogramVec
	audioSeconds      *prometheus.CounterVec
	runsTotal         *prometheus.CounterVec
	runsActive        prometheus.Gauge
	progressListeners prometheus.Gauge
}

// New creates collectors and registers them on reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		slidesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "slides_total",
				Help:      "Total number of slides processed",
			},
			[]string{"provider", "status"}, // status: success, error
		),
		synthesisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "synthesis_duration_seconds",
				Help:      "Duration of TTS provider calls in seconds",
				Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"provider", "voice"},
		),
		audioSeconds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audio_seconds_total",
				Help:      "Total seconds of audio rendered",
			},
			[]string{"provider"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of generation runs",
			},
			[]string{"outcome"}, // outcome: complete, partial, failed
		),
		runsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "runs_active",
				Help:      "Number of generation runs in progress",
			},
		),
		progressListeners: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "progress_listeners",
				Help:      "Number of connected progress stream clients",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.slidesTotal,
			m.synthesisDuration,
			m.audioSeconds,
			m.runsTotal,
			m.runsActive,
			m.progressListeners,
		)
	}
	return m
}

// RecordSlide records the outcome of one slide.
func (m *Metrics) RecordSlide(provider, voice string, elapsed, audio time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.slidesTotal.WithLabelValues(provider, status).Inc()
	m.synthesisDuration.WithLabelValues(provider, voice).Observe(elapsed.Seconds())
	if err == nil {
		m.audioSeconds.WithLabelValues(provider).Add(audio.Seconds())
	}
}

// RunStarted marks a run as active.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsActive.Inc()
}

// RunFinished records the outcome of a run from its failed and total slide counts.
func (m *Metrics) RunFinished(failed, total int) {
	if m == nil {
		return
	}
	m.runsActive.Dec()
	outcome := "complete"
	switch {
	case failed == total:
		outcome = "failed"
	case failed > 0:
		outcome = "partial"
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
}

// ListenerConnected tracks a progress stream client joining.
func (m *Metrics) ListenerConnected() {
	if m == nil {
		return
	}
	m.progressListeners.Inc()
}

// ListenerDisconnected tracks a progress stream client leaving.
func (m *Metrics) ListenerDisconnected() {
	if m == nil {
		return
	}
	m.progressListeners.Dec()
}
