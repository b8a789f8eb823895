// Package prometheus exports synthesis and provider-leg metrics.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GTAManRCRX/wrapper-offline-fixed/tts"
)

const namespace = "ttsgate"

var (
	// synthesisTotal counts ProcessVoice calls by provider and outcome.
	synthesisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_total",
			Help:      "Total number of synthesis requests",
		},
		[]string{"provider", "outcome"}, // outcome: ok or an error kind
	)

	synthesisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "Time until audio is ready to stream, in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	legRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leg_requests_total",
			Help:      "Total number of outbound provider requests",
		},
		[]string{"provider", "leg", "status"},
	)

	legDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "leg_duration_seconds",
			Help:      "Duration of outbound provider requests in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "leg"},
	)
)

// allMetrics is registered by NewExporter.
var allMetrics = []prometheus.Collector{
	synthesisTotal,
	synthesisDuration,
	legRequestsTotal,
	legDuration,
}

func providerLabel(provider string) string {
	if provider == "" {
		return "unknown"
	}
	return provider
}

// statusLabel is the HTTP status, or the error kind when no response arrived.
func statusLabel(status int, err error) string {
	if status > 0 {
		return strconv.Itoa(status)
	}
	return tts.KindName(err)
}

// Observer records dispatcher events into the package collectors.
type Observer struct{}

// NewObserver returns an Observer to pass to tts.WithObserver.
func NewObserver() *Observer {
	return &Observer{}
}

// LegCompleted records one outbound request.
func (*Observer) LegCompleted(provider, leg string, status int, d time.Duration, err error) {
	provider = providerLabel(provider)
	legRequestsTotal.WithLabelValues(provider, leg, statusLabel(status, err)).Inc()
	legDuration.WithLabelValues(provider, leg).Observe(d.Seconds())
}

// SynthesisCompleted records one ProcessVoice outcome.
func (*Observer) SynthesisCompleted(provider string, d time.Duration, err error) {
	provider = providerLabel(provider)
	synthesisTotal.WithLabelValues(provider, tts.KindName(err)).Inc()
	if err == nil {
		synthesisDuration.WithLabelValues(provider).Observe(d.Seconds())
	}
}

var _ tts.Observer = (*Observer)(nil)
