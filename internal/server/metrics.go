package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/synvert-hq/synsite/internal/cache"
)

// Download outcomes recorded by synsite_download_redirects_total.
const (
	outcomeRedirected   = "redirected"
	outcomeLookupFailed = "lookup_failed"
	outcomeNoAsset      = "no_asset"
	outcomeHostDenied   = "host_denied"
)

type metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	downloads     *prometheus.CounterVec
	releaseLookup prometheus.Histogram
	previews      *prometheus.CounterVec
}

func newMetrics(pages *cache.Cache) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "synsite_http_requests_total",
			Help: "HTTP requests by status code and method.",
		}, []string{"code", "method"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "synsite_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "synsite_download_redirects_total",
			Help: "Download button clicks by platform and outcome.",
		}, []string{"platform", "outcome"}),
		releaseLookup: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "synsite_release_lookup_duration_seconds",
			Help:    "Latency of latest-release lookups against the GitHub API.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		previews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "synsite_preview_cache_total",
			Help: "Markdown preview cache lookups by status.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.requests,
		m.duration,
		m.downloads,
		m.releaseLookup,
		m.previews,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "synsite_preview_cache_bytes",
			Help: "Bytes held by the markdown preview cache.",
		}, func() float64 { return float64(pages.Size()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "synsite_preview_cache_entries",
			Help: "Entries held by the markdown preview cache.",
		}, func() float64 { return float64(pages.Len()) }),
	)
	return m
}

// instrument wraps h with request counting and latency.
func (m *metrics) instrument(h http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(m.duration,
		promhttp.InstrumentHandlerCounter(m.requests, h))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
