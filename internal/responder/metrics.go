package responder

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics lives on its own registry so several handlers can coexist in one
// process (tests start many).
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	FilesReceivedTotal prometheus.Counter
	BytesReceivedTotal prometheus.Counter
	RequestDuration    prometheus.Histogram
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uploadresponder_requests_total",
				Help: "Upload requests by outcome",
			},
			[]string{"outcome"},
		),
		FilesReceivedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "uploadresponder_files_received_total",
				Help: "Files hashed from multipart uploads",
			},
		),
		BytesReceivedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "uploadresponder_bytes_received_total",
				Help: "File bytes hashed from multipart uploads",
			},
		),
		RequestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "uploadresponder_request_duration_seconds",
				Help:    "Time spent handling one upload request",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.FilesReceivedTotal, m.BytesReceivedTotal, m.RequestDuration)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
