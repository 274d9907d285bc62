// Package metrics defines Prometheus metrics for the refresh pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fuelwatch/fuelwatch/internal/models"
)

// Metrics holds the collectors published by the watcher. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry plumbing.
type Metrics struct {
	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	stationCount    prometheus.Gauge
	cheapestPrice   *prometheus.GaugeVec
}

// New registers the watcher's collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		refreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelwatch_refresh_cycles_total",
				Help: "Total number of refresh cycles by status",
			},
			[]string{"status"},
		),
		refreshDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fuelwatch_refresh_duration_seconds",
				Help:    "Duration of refresh cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		stationCount: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fuelwatch_stations_in_radius",
				Help: "Number of stations inside the configured search radius",
			},
		),
		cheapestPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fuelwatch_cheapest_price_pence",
				Help: "Cheapest price per litre in pence by fuel type",
			},
			[]string{"fuel_type"},
		),
	}
}

// RecordRefresh records the outcome and duration of one refresh cycle.
func (m *Metrics) RecordRefresh(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.refreshTotal.WithLabelValues(status).Inc()
	m.refreshDuration.Observe(duration.Seconds())
}

// RecordSummary exports the station count and per-fuel cheapest prices from
// a freshly built summary. Fuel types without a price keep their last value.
func (m *Metrics) RecordSummary(summary *models.Summary) {
	if m == nil || summary == nil {
		return
	}
	m.stationCount.Set(float64(summary.StationCount))
	if summary.BestE10 != nil {
		m.cheapestPrice.WithLabelValues(models.FuelTypeE10).Set(summary.BestE10.Price)
	}
	if summary.BestE5 != nil {
		m.cheapestPrice.WithLabelValues(models.FuelTypeE5).Set(summary.BestE5.Price)
	}
	if summary.BestB7 != nil {
		m.cheapestPrice.WithLabelValues(models.FuelTypeB7).Set(summary.BestB7.Price)
	}
}
