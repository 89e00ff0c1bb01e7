package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/feral-file/pkp-indexer/internal/domain"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Metrics holds the collectors of a single indexer run.
// Each run owns its registry so the pushed group only carries that run.
type Metrics struct {
	registry *prometheus.Registry

	windowsCounter     *prometheus.CounterVec
	eventsCounter      *prometheus.CounterVec
	startBlockGauge    prometheus.Gauge
	endBlockGauge      prometheus.Gauge
	lastSuccessGauge   prometheus.Gauge
	runDurationSeconds prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		windowsCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_windows_total", namespace),
			Help: "Block windows queried, by status",
		}, []string{"status"}),
		eventsCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_events_total", namespace),
			Help: "PKPMinted events resolved, by status",
		}, []string{"status"}),
		startBlockGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_start_block", namespace),
			Help: "The first block of the run",
		}),
		endBlockGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_end_block", namespace),
			Help: "The last block of the run",
		}),
		lastSuccessGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_last_success_timestamp_seconds", namespace),
			Help: "Unix time of the last run that advanced the checkpoint",
		}),
		runDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_run_duration_seconds", namespace),
			Help:    "Duration of the run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
	}
}

func (m *Metrics) SetRange(rng domain.BlockRange) {
	m.startBlockGauge.Set(float64(rng.From))
	m.endBlockGauge.Set(float64(rng.To))
}

func (m *Metrics) AddWindows(ok, failed int) {
	m.windowsCounter.WithLabelValues(StatusOK).Add(float64(ok))
	m.windowsCounter.WithLabelValues(StatusFailed).Add(float64(failed))
}

func (m *Metrics) AddEvents(ok, failed int) {
	m.eventsCounter.WithLabelValues(StatusOK).Add(float64(ok))
	m.eventsCounter.WithLabelValues(StatusFailed).Add(float64(failed))
}

func (m *Metrics) MarkSuccess(at time.Time) {
	m.lastSuccessGauge.Set(float64(at.Unix()))
}

func (m *Metrics) ObserveDuration(d time.Duration) {
	m.runDurationSeconds.Observe(d.Seconds())
}

// Registry returns the gatherer of the run collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push replaces the group of the pair on the Pushgateway with the run collectors
func (m *Metrics) Push(ctx context.Context, url, job string, pair domain.Pair) error {
	err := push.New(url, job).
		Gatherer(m.registry).
		Grouping("blockchain", string(pair.Blockchain)).
		Grouping("network", string(pair.Network)).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
