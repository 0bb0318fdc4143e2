package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	Predictions      *prometheus.CounterVec
	PredictionErrors *prometheus.CounterVec
	BatchSize        prometheus.Histogram
	ModelLoaded      prometheus.Gauge
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropout_predictions_total",
				Help: "Total number of successful predictions.",
			},
			[]string{"risk_level", "source"},
		),
		PredictionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropout_prediction_errors_total",
				Help: "Total number of prediction pipeline errors by stage.",
			},
			[]string{"stage"},
		),
		BatchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dropout_batch_size",
				Help:    "Number of students per batch request.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 6),
			},
		),
		ModelLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dropout_model_loaded",
				Help: "1 when a model is serving predictions.",
			},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropout_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dropout_http_request_duration_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

func (m *Metrics) RecordPrediction(riskLevel, source string) {
	m.Predictions.WithLabelValues(riskLevel, source).Inc()
}

func (m *Metrics) RecordPredictionError(stage string) {
	m.PredictionErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) RecordBatchSize(n int) {
	m.BatchSize.Observe(float64(n))
}

func (m *Metrics) SetModelLoaded(loaded bool) {
	if loaded {
		m.ModelLoaded.Set(1)
		return
	}
	m.ModelLoaded.Set(0)
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
