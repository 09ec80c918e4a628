package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lumina/internal/platform/metrics"
	"lumina/internal/platform/requestcontext"
	dErrors "lumina/pkg/domain-errors"
)

// Recorder standardizes audit recording across services: it writes the entry
// to the store, mirrors it to the structured log, and enriches it with the
// client metadata carried in the request context.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRecorder creates a Recorder. metrics may be nil in tests.
func NewRecorder(store Store, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, logger: logger, metrics: m}
}

// Record appends one immutable entry. A store failure propagates to the
// caller; the audit trail is the compliance record and must not degrade into
// a log-only best effort.
func (r *Recorder) Record(ctx context.Context, linkID *uuid.UUID, actor Actor, action string, entity EntityRef, metadata map[string]string) error {
	md := requestcontext.GetClientMetadata(ctx)
	if actor.IP == "" {
		actor.IP = md.IP
	}
	if actor.UserAgent == "" {
		actor.UserAgent = md.UserAgent
	}

	entry := &Entry{
		LinkID:    linkID,
		Actor:     actor,
		Action:    action,
		Entity:    entity,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "failed to append audit entry",
			"error", err,
			"action", action,
			"entity_kind", entity.Kind,
			"entity_id", entity.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "audit write failed")
	}

	if r.metrics != nil {
		r.metrics.AuditEntries.Inc()
	}
	r.logger.InfoContext(ctx, action,
		"log_type", "audit",
		"actor_kind", actor.Kind,
		"actor_id", actor.ID,
		"entity_kind", entity.Kind,
		"entity_id", entity.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// ExportForLink returns the full ordered trail for a link, used for
// data-subject export requests.
func (r *Recorder) ExportForLink(ctx context.Context, linkID uuid.UUID) ([]*Entry, error) {
	entries, err := r.store.ExportForLink(ctx, linkID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "audit export failed")
	}
	return entries, nil
}
