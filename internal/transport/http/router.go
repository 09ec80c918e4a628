// Package http exposes the provider API and the token-gated portal over
// chi-routed JSON endpoints.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lumina/internal/audit"
	"lumina/internal/contract"
	"lumina/internal/gallery"
	"lumina/internal/link"
	"lumina/internal/platform/database"
	"lumina/internal/platform/metrics"
	"lumina/internal/platform/middleware"
	"lumina/internal/portal"
	"lumina/internal/questionnaire"
	"lumina/internal/renderer"
	"lumina/internal/signature"
	"lumina/internal/storage"
	"lumina/internal/template"
	"lumina/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// Handler aggregates the services behind the HTTP surface.
type Handler struct {
	links          *link.Service
	questionnaires *questionnaire.Service
	templates      *template.Service
	contracts      *contract.Service
	signatures     *signature.Service
	galleries      *gallery.Service
	portal         *portal.Service
	auditor        *audit.Recorder
	pool           *renderer.Pool
	files          storage.Store
	db             *database.Pool
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// Config wires the handler's dependencies.
type Config struct {
	Links          *link.Service
	Questionnaires *questionnaire.Service
	Templates      *template.Service
	Contracts      *contract.Service
	Signatures     *signature.Service
	Galleries      *gallery.Service
	Portal         *portal.Service
	Auditor        *audit.Recorder
	Pool           *renderer.Pool
	Files          storage.Store
	DB             *database.Pool
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

// NewHandler constructs the HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		links:          cfg.Links,
		questionnaires: cfg.Questionnaires,
		templates:      cfg.Templates,
		contracts:      cfg.Contracts,
		signatures:     cfg.Signatures,
		galleries:      cfg.Galleries,
		portal:         cfg.Portal,
		auditor:        cfg.Auditor,
		pool:           cfg.Pool,
		files:          cfg.Files,
		db:             cfg.DB,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
	}
}

// Router assembles the full route tree. The portal side runs behind the
// client-metadata middleware; the provider API requires a bearer token.
func (h *Handler) Router(auth *middleware.ProviderAuth, metadata *middleware.Metadata) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger, h.metrics))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/portal/{token}", func(r chi.Router) {
		r.Use(metadata.Handler)
		r.Get("/", h.portalSnapshot)
		r.Route("/questionnaire/{eventTypeID}", func(r chi.Router) {
			r.Get("/", h.portalQuestionnaire)
			r.With(middleware.ContentTypeJSON).Post("/save", h.portalSaveQuestionnaire)
			r.With(middleware.ContentTypeJSON).Post("/validate", h.portalValidateQuestionnaire)
		})
		r.Get("/contract", h.portalContract)
		r.Get("/contract/pdf", h.portalContractPDF)
		r.With(middleware.ContentTypeJSON).Post("/contract/sign", h.portalSign)
		r.Get("/gallery", h.portalGallery)
		r.Get("/gallery/photos/{photoID}", h.portalPhoto)
		r.Get("/export", h.portalExport)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Handler)
		r.Use(metadata.Handler)

		r.With(middleware.ContentTypeJSON).Post("/links", h.createLink)
		r.Get("/links", h.listLinks)
		r.Route("/links/{linkID}", func(r chi.Router) {
			r.Get("/", h.getLink)
			r.Delete("/", h.revokeLink)
			r.With(middleware.ContentTypeJSON).Put("/expiration", h.updateExpiration)
			r.Get("/workflow", h.linkWorkflow)
			r.Get("/audit", h.linkAudit)
			r.Get("/questionnaire", h.linkQuestionnaire)

			r.Route("/contract", func(r chi.Router) {
				r.With(middleware.ContentTypeJSON).Post("/generate", h.generateContract)
				r.Get("/", h.getContract)
				r.With(middleware.ContentTypeJSON).Put("/", h.updateContract)
				r.Post("/validate", h.validateContract)
				r.Get("/pdf", h.contractPDF)
				r.Get("/signatures", h.contractSignatures)
			})

			r.Route("/gallery", func(r chi.Router) {
				r.With(middleware.ContentTypeJSON).Post("/", h.createGallery)
				r.Get("/", h.getGallery)
				r.With(middleware.ContentTypeJSON).Put("/visibility", h.setGalleryVisibility)
				r.Post("/photos", h.uploadPhoto)
				r.Get("/photos/{photoID}", h.servePhoto)
				r.Delete("/photos/{photoID}", h.deletePhoto)
			})
		})
		r.Post("/clients/{clientID}/revoke-links", h.revokeClientLinks)

		r.With(middleware.ContentTypeJSON).Post("/event-types", h.createEventType)
		r.Get("/event-types", h.listEventTypes)
		r.Get("/event-types/{eventTypeID}", h.getEventType)
		r.With(middleware.ContentTypeJSON).Put("/event-types/{eventTypeID}", h.updateEventType)
		r.Delete("/event-types/{eventTypeID}", h.deleteEventType)

		r.With(middleware.ContentTypeJSON).Post("/templates", h.createTemplate)
		r.Get("/templates", h.listTemplates)
		r.Get("/templates/{templateID}", h.getTemplate)
		r.With(middleware.ContentTypeJSON).Put("/templates/{templateID}", h.updateTemplate)
		r.Delete("/templates/{templateID}", h.deleteTemplate)

		r.With(middleware.ContentTypeJSON).Put("/variables", h.setVariable)
		r.Get("/variables", h.listVariables)
		r.Delete("/variables/{variableID}", h.deleteVariable)

		r.Get("/render-jobs/{jobID}", h.renderJob)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if h.db != nil {
		if err := h.db.Health(r.Context()); err != nil {
			h.logger.ErrorContext(r.Context(), "database health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}
