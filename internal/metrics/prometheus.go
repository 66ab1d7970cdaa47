package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics of the volume policy service.
type Metrics struct {
	// Curve resolution metrics
	Resolutions       *prometheus.CounterVec
	Fallbacks         *prometheus.CounterVec
	ResolutionErrors  *prometheus.CounterVec
	ResolvedGain      *prometheus.GaugeVec
	GainApplyFailures prometheus.Counter

	// Policy metrics
	PolicyReloads *prometheus.CounterVec
	PolicyStreams prometheus.Gauge

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streamvol_resolutions_total",
			Help: "Total number of volume index to gain resolutions",
		}, []string{"stream", "category"}),
		Fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streamvol_category_fallbacks_total",
			Help: "Resolutions answered by the default device category curve",
		}, []string{"stream", "requested"}),
		ResolutionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streamvol_resolution_errors_total",
			Help: "Resolutions that failed, by reason",
		}, []string{"reason"}),
		ResolvedGain: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "streamvol_applied_gain_db",
			Help: "Last gain in dB pushed to the output, per stream",
		}, []string{"stream"}),
		GainApplyFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "streamvol_gain_apply_failures_total",
			Help: "Gains the output controller failed to apply",
		}),
		PolicyReloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streamvol_policy_reloads_total",
			Help: "Policy reload attempts by result",
		}, []string{"result"}),
		PolicyStreams: f.NewGauge(prometheus.GaugeOpts{
			Name: "streamvol_policy_streams",
			Help: "Number of streams in the active policy",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streamvol_http_requests_total",
			Help: "Total number of HTTP API requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "streamvol_http_request_duration_seconds",
			Help:    "HTTP API request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}
