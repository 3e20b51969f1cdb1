package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени заняла обработка HTTP-запроса
	RequestDuration *prometheus.HistogramVec

	// Workflow: количество принятых решений по заявкам
	DecisionsTotal *prometheus.CounterVec

	// Identity Gateway: попадания/промахи кэша личностей
	IdentityCacheHits   prometheus.Counter
	IdentityCacheMisses prometheus.Counter

	// Identity Gateway: отказы Management API по классам
	IdentityLookupErrors *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - без регистратора метрики живут в изолированном реестре
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aprq_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status"}),

		DecisionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "aprq_decisions_total",
			Help: "Total number of approval decisions by outcome.",
		}, []string{"outcome"}), // approved / rejected

		IdentityCacheHits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "aprq_identity_cache_hits_total",
			Help: "Total number of identity cache hits.",
		}),

		IdentityCacheMisses: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "aprq_identity_cache_misses_total",
			Help: "Total number of identity cache misses.",
		}),

		IdentityLookupErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "aprq_identity_lookup_errors_total",
			Help: "Total number of failed identity lookups by class.",
		}, []string{"class"}), // not_found, permission_denied, transport
	}
}
