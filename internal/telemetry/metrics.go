package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики сервиса. Регистрируются в prometheus.DefaultRegisterer
// и отдаются на /metrics.
var (
	// HTTPRequests — количество обработанных HTTP запросов API.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modelproxy_api_http_requests_total",
		Help: "Total HTTP requests handled by modelproxy-api",
	}, []string{"method", "status"})

	// PlatformCallDuration — длительность вызовов платформы по операциям.
	PlatformCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modelproxy_platform_call_duration_seconds",
		Help:    "Duration of calls to the model platform",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "outcome"})

	// LocatorResolutions — результаты определения модуля по стратегиям.
	LocatorResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modelproxy_locator_resolutions_total",
		Help: "Module resolutions by winning strategy",
	}, []string{"strategy"})

	// WorkingCopiesOpen — количество открытых working copies в этом процессе.
	WorkingCopiesOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modelproxy_working_copies_open",
		Help: "Working copies currently open by this process",
	})

	// WorkingCopiesExpired — working copies, удалённые janitor'ом по TTL.
	WorkingCopiesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modelproxy_janitor_expired_total",
		Help: "Working copies discarded by the janitor",
	})

	// ChangesAudited — события изменений, сохранённые auditor'ом.
	ChangesAudited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modelproxy_auditor_changes_total",
		Help: "Model change events processed by the auditor",
	}, []string{"result"})
)
