package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LinksCreated     prometheus.Counter
	LinksRevoked     prometheus.Counter
	TokenValidations *prometheus.CounterVec

	QuestionnairesValidated prometheus.Counter
	ContractsGenerated      prometheus.Counter
	SignaturesCaptured      prometheus.Counter

	DocumentsRendered *prometheus.CounterVec
	RenderDuration    prometheus.Histogram
	RenderQueueDepth  prometheus.Gauge

	AuditEntries    prometheus.Counter
	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LinksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lumina_links_created_total",
			Help: "Total number of access links issued",
		}),
		LinksRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lumina_links_revoked_total",
			Help: "Total number of access links revoked",
		}),
		TokenValidations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lumina_token_validations_total",
			Help: "Total number of portal token validations, labeled by result",
		}, []string{"result"}),
		QuestionnairesValidated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lumina_questionnaires_validated_total",
			Help: "Total number of questionnaire responses validated",
		}),
		ContractsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lumina_contracts_generated_total",
			Help: "Total number of contracts generated from templates",
		}),
		SignaturesCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lumina_signatures_captured_total",
			Help: "Total number of electronic signatures captured",
		}),
		DocumentsRendered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lumina_documents_rendered_total",
			Help: "Total number of rendered documents, labeled by kind",
		}, []string{"kind"}),
		RenderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lumina_render_duration_seconds",
			Help:    "Document render duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		RenderQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lumina_render_queue_depth",
			Help: "Current number of queued render jobs",
		}),
		AuditEntries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lumina_audit_entries_total",
			Help: "Total number of audit log entries recorded",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lumina_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}
