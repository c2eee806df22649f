package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
	"github.com/n0rvyn/vault-rag/internal/core/ports"
)

// PipelineMetrics tracks end-to-end query behaviour: volume, latency,
// retrieved source counts, and how often reflection actually runs.
type PipelineMetrics struct {
	registry *prometheus.Registry

	queriesTotal     *prometheus.CounterVec
	queryDuration    *prometheus.HistogramVec
	sourcesReturned  prometheus.Histogram
	reflectionRounds prometheus.Histogram
	queriesInFlight  prometheus.Gauge
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vaultrag",
			Subsystem: "pipeline",
			Name:      "queries_total",
			Help:      "Total pipeline invocations by status.",
		},
		[]string{"service", "status"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vaultrag",
			Subsystem: "pipeline",
			Name:      "query_duration_seconds",
			Help:      "End-to-end pipeline duration in seconds by status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 45, 90, 180},
		},
		[]string{"service", "status"},
	)
	sourcesReturned := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vaultrag",
			Subsystem: "pipeline",
			Name:      "sources_returned",
			Help:      "Number of sources returned per successful query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15, 20},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	reflectionRounds := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vaultrag",
			Subsystem: "pipeline",
			Name:      "reflection_rounds",
			Help:      "Completed reflection rounds per successful query.",
			Buckets:   []float64{0, 1, 2},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queriesInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vaultrag",
			Subsystem: "pipeline",
			Name:      "queries_in_flight",
			Help:      "Number of pipeline invocations currently running.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(queriesTotal, queryDuration, sourcesReturned, reflectionRounds, queriesInFlight)

	return &PipelineMetrics{
		registry:         registry,
		queriesTotal:     queriesTotal,
		queryDuration:    queryDuration,
		sourcesReturned:  sourcesReturned,
		reflectionRounds: reflectionRounds,
		queriesInFlight:  queriesInFlight,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentedQueryService decorates a QueryService with pipeline metrics,
// keeping observability out of the core use case.
type InstrumentedQueryService struct {
	inner   ports.QueryService
	metrics *PipelineMetrics
	service string
}

func Instrument(inner ports.QueryService, m *PipelineMetrics, service string) *InstrumentedQueryService {
	return &InstrumentedQueryService{inner: inner, metrics: m, service: service}
}

func (s *InstrumentedQueryService) Run(ctx context.Context, query string, opts domain.RAGOptions) (*domain.RAGResult, error) {
	s.metrics.queriesInFlight.Inc()
	start := time.Now()

	result, err := s.inner.Run(ctx, query, opts)

	s.metrics.queriesInFlight.Dec()
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.queriesTotal.WithLabelValues(s.service, status).Inc()
	s.metrics.queryDuration.WithLabelValues(s.service, status).Observe(time.Since(start).Seconds())
	if err == nil && result != nil {
		s.metrics.sourcesReturned.Observe(float64(len(result.Sources)))
		s.metrics.reflectionRounds.Observe(float64(result.ReflectionRounds))
	}
	return result, err
}
