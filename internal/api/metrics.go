package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics is the per-server Prometheus surface. Each Server owns its
// registry; nothing registers on the default global one.
type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  prometheus.Histogram
}

func newMetrics(examples, avgLoss func() float64) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fasttext_requests_total",
			Help: "API requests by route and status code.",
		}, []string{"route", "status"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fasttext_predict_seconds",
			Help:    "Prediction latency.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 8),
		}),
	}
	m.registry.MustRegister(m.requests, m.latency)
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "fasttext_model_examples_total",
		Help: "Update steps the serving model has taken.",
	}, examples))
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fasttext_model_avg_loss",
		Help: "Mean per-example training loss of the serving model.",
	}, avgLoss))
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
