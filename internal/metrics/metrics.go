package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LookupCycles   *prometheus.CounterVec
	StageErrors    *prometheus.CounterVec
	StageSeconds   *prometheus.HistogramVec
	PharmaciesSeen prometheus.Gauge
	LookupInFlight prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		LookupCycles: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pharmacy_lookup_cycles_total",
			Help: "Total number of finished lookup cycles.",
		}, []string{"trigger", "outcome"}),
		StageErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pharmacy_lookup_stage_errors_total",
			Help: "Total number of lookup failures by pipeline stage and error kind.",
		}, []string{"stage", "kind"}),
		StageSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pharmacy_lookup_stage_duration_seconds",
			Help:    "Duration of each lookup pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		PharmaciesSeen: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pharmacy_lookup_records",
			Help: "Number of pharmacy records held after the last successful fetch.",
		}),
		LookupInFlight: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pharmacy_lookup_in_flight",
			Help: "1 while a lookup cycle is running.",
		}),
	}
}
