package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the availability
// engine and exposes the scrape handler.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	calculationDuration *prometheus.HistogramVec
	slotsGenerated      prometheus.Counter
	practitionerSkips   *prometheus.CounterVec
	cacheLatency        prometheus.Observer
	cacheWrite          prometheus.Observer
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
}

// NewMetricsService registers the availability collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	calculationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "availability_calculation_seconds",
		Help:    "Duration of availability computations in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	slotsGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_slots_generated_total",
		Help: "Total number of potential appointment slots generated",
	})

	practitionerSkips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "availability_practitioner_skips_total",
		Help: "Practitioners skipped during mass calculations",
	}, []string{"reason"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "availability_cache_latency_seconds",
		Help:    "Latency for availability cache reads",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "availability_cache_write_seconds",
		Help:    "Latency for availability cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_cache_hits_total",
		Help: "Availability cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_cache_misses_total",
		Help: "Availability cache misses",
	})

	registry.MustRegister(calculationDuration, slotsGenerated, practitionerSkips, cacheLatency, cacheWrite, cacheHits, cacheMisses)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		calculationDuration: calculationDuration,
		slotsGenerated:      slotsGenerated,
		practitionerSkips:   practitionerSkips,
		cacheLatency:        cacheLatency,
		cacheWrite:          cacheWrite,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
	}
}

// Handler serves the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveCalculation records one availability computation.
func (s *MetricsService) ObserveCalculation(operation string, duration time.Duration) {
	if s == nil {
		return
	}
	s.calculationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// AddSlotsGenerated counts produced slots.
func (s *MetricsService) AddSlotsGenerated(count int) {
	if s == nil || count <= 0 {
		return
	}
	s.slotsGenerated.Add(float64(count))
}

// RecordPractitionerSkip counts a silent per-practitioner skip.
func (s *MetricsService) RecordPractitionerSkip(reason string) {
	if s == nil {
		return
	}
	s.practitionerSkips.WithLabelValues(reason).Inc()
}

// RecordCacheOperation tracks a cache read outcome.
func (s *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if s == nil {
		return
	}
	s.cacheLatency.Observe(duration.Seconds())
	if hit {
		s.cacheHits.Inc()
	} else {
		s.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks a cache write.
func (s *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if s == nil {
		return
	}
	s.cacheWrite.Observe(duration.Seconds())
}
