// Package notify abstracts the outbound notification sender. Delivery (email,
// SMS) is an external collaborator; the document engine only emits events.
package notify

import (
	"context"
	"log/slog"
)

// Event kinds emitted by the document lifecycle.
const (
	KindQuestionnaireValidated = "questionnaire_validated"
	KindContractSigned         = "contract_signed"
	KindGalleryPublished       = "gallery_published"
)

// Event describes a notification to deliver to the provider.
type Event struct {
	Kind       string
	ProviderID string
	LinkID     string
	Metadata   map[string]string
}

// Notifier delivers events. Implementations must treat delivery as
// best effort; domain operations never fail on notification errors.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier writes events to the structured log. Used in development and as
// the default when no real sender is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	n.logger.InfoContext(ctx, "notification",
		"kind", event.Kind,
		"provider_id", event.ProviderID,
		"link_id", event.LinkID,
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
