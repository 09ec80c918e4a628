package gallery

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"

	"lumina/internal/audit"
	"lumina/internal/link"
	"lumina/internal/notify"
	"lumina/internal/sentinel"
	"lumina/internal/storage"
	dErrors "lumina/pkg/domain-errors"
)

var extensionByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Service manages gallery lifecycle, photo files and the portal visibility
// gate.
type Service struct {
	store    Store
	files    storage.Store
	auditor  *audit.Recorder
	notifier notify.Notifier
	logger   *slog.Logger
	clock    func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithNotifier sets the outbound notification sender.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService constructs the gallery service.
func NewService(store Store, files storage.Store, auditor *audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		files:    files,
		auditor:  auditor,
		notifier: notify.NewLogNotifier(logger),
		logger:   logger,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create attaches a gallery to a link. A link carries at most one gallery.
func (s *Service) Create(ctx context.Context, accessLink *link.AccessLink, title string) (*Gallery, error) {
	if _, err := s.store.FindGalleryByLink(ctx, accessLink.ID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "link already has a gallery")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check gallery")
	}

	g := &Gallery{
		ID:        uuid.New(),
		LinkID:    accessLink.ID,
		Title:     title,
		CreatedAt: s.clock(),
	}
	if err := s.store.SaveGallery(ctx, g); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "link already has a gallery")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save gallery")
	}
	return g, nil
}

// Get returns the link's gallery for the provider, visible or not.
func (s *Service) Get(ctx context.Context, accessLink *link.AccessLink) (*Gallery, error) {
	g, err := s.store.FindGalleryByLink(ctx, accessLink.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no gallery for this link")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load gallery")
	}
	return g, nil
}

// GetForPortal returns the gallery only once it has been published, nil
// otherwise.
func (s *Service) GetForPortal(ctx context.Context, accessLink *link.AccessLink) (*Gallery, error) {
	g, err := s.store.FindGalleryByLink(ctx, accessLink.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load gallery")
	}
	if !g.Visible {
		return nil, nil
	}
	return g, nil
}

// SetVisibility publishes or hides the gallery for the external party.
func (s *Service) SetVisibility(ctx context.Context, accessLink *link.AccessLink, visible bool) (*Gallery, error) {
	g, err := s.Get(ctx, accessLink)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetVisibility(ctx, g.ID, visible); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to set visibility")
	}
	g.Visible = visible

	err = s.auditor.Record(ctx, &accessLink.ID,
		audit.Actor{Kind: audit.ActorProvider, ID: accessLink.ProviderID.String()},
		audit.ActionGalleryVisibilitySet,
		audit.EntityRef{Kind: "gallery", ID: g.ID.String()},
		map[string]string{"visible": strconv.FormatBool(visible)},
	)
	if err != nil {
		return nil, err
	}

	if visible {
		if err := s.notifier.Notify(ctx, notify.Event{
			Kind:       notify.KindGalleryPublished,
			ProviderID: accessLink.ProviderID.String(),
			LinkID:     accessLink.ID.String(),
		}); err != nil {
			s.logger.WarnContext(ctx, "notification delivery failed",
				"kind", notify.KindGalleryPublished,
				"error", err,
			)
		}
	}
	return g, nil
}

// UploadPhoto stores an image and registers it in the gallery.
func (s *Service) UploadPhoto(ctx context.Context, accessLink *link.AccessLink, fileName, contentType string, content []byte) (*Photo, error) {
	ext, ok := extensionByContentType[contentType]
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unsupported image type: "+contentType)
	}
	if len(content) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "empty photo upload")
	}

	g, err := s.Get(ctx, accessLink)
	if err != nil {
		return nil, err
	}

	p := &Photo{
		ID:          uuid.New(),
		GalleryID:   g.ID,
		FileName:    path.Base(fileName),
		ContentType: contentType,
		UploadedAt:  s.clock(),
	}
	p.FilePath = storage.PhotoPath(accessLink.ProviderID, g.ID, p.ID, ext)
	if _, err := s.files.Write(p.FilePath, content); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store photo")
	}
	if err := s.store.SavePhoto(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save photo")
	}

	err = s.auditor.Record(ctx, &accessLink.ID,
		audit.Actor{Kind: audit.ActorProvider, ID: accessLink.ProviderID.String()},
		audit.ActionPhotoUploaded,
		audit.EntityRef{Kind: "photo", ID: p.ID.String()},
		map[string]string{"file_name": p.FileName},
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPhotos returns the gallery's photos in upload order.
func (s *Service) ListPhotos(ctx context.Context, galleryID uuid.UUID) ([]*Photo, error) {
	photos, err := s.store.ListPhotos(ctx, galleryID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list photos")
	}
	return photos, nil
}

// ServePhoto reads a photo's bytes. When portalView is set the gallery must
// be published; hidden galleries answer not-found to the external party.
func (s *Service) ServePhoto(ctx context.Context, accessLink *link.AccessLink, photoID uuid.UUID, portalView bool) (*Photo, []byte, error) {
	p, err := s.store.FindPhoto(ctx, photoID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "photo not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load photo")
	}

	g, err := s.store.FindGallery(ctx, p.GalleryID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load gallery")
	}
	if g.LinkID != accessLink.ID {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "photo not found")
	}
	if portalView && !g.Visible {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "photo not found")
	}

	content, err := s.files.Read(p.FilePath)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read photo")
	}
	return p, content, nil
}

// DeletePhoto removes a photo row and its file.
func (s *Service) DeletePhoto(ctx context.Context, accessLink *link.AccessLink, photoID uuid.UUID) error {
	p, _, err := s.ServePhoto(ctx, accessLink, photoID, false)
	if err != nil {
		return err
	}
	if err := s.store.DeletePhoto(ctx, photoID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete photo")
	}
	if err := s.files.Remove(p.FilePath); err != nil {
		s.logger.WarnContext(ctx, "failed to remove photo file",
			"photo_id", photoID,
			"path", p.FilePath,
			"error", err,
		)
	}
	return nil
}
