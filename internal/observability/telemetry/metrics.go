package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveVoiceSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rentmap_voice_sessions_active",
		Help: "Sesiones de asistente de voz abiertas",
	})

	VoiceCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentmap_voice_commands_total",
		Help: "Intenciones resueltas por tipo y resultado del despacho",
	}, []string{"intent", "status"})

	VoiceLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rentmap_voice_resolve_latency_seconds",
		Help:    "Latencia de la llamada al modelo de lenguaje",
		Buckets: prometheus.DefBuckets,
	})

	ResolverFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentmap_voice_resolver_fallbacks_total",
		Help: "Respuestas de reemplazo emitidas por el resolutor",
	}, []string{"reason"})

	ConfirmationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentmap_voice_confirmations_total",
		Help: "Acciones pendientes confirmadas, canceladas o reemplazadas",
	}, []string{"kind", "result"})

	DatabaseLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentmap_database_latency_seconds",
		Help:    "Latencia de consultas a la base",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	GRPCRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentmap_grpc_requests_total",
		Help: "Llamadas gRPC por método y código",
	}, []string{"method", "code"})

	GRPCRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentmap_grpc_request_duration_seconds",
		Help:    "Duración de las llamadas gRPC",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)
