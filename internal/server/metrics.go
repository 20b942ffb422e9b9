package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardscan_scan_duration_seconds",
			Help:    "Card scan processing duration in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 25, 50},
		},
	)

	contactsExtracted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardscan_contacts_extracted",
			Help:    "Number of contacts extracted per scan",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardscan_upload_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: []float64{10 * 1024, 100 * 1024, 1024 * 1024, 5 * 1024 * 1024, 10 * 1024 * 1024, 25 * 1024 * 1024},
		},
	)
)
