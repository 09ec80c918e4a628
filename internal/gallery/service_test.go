package gallery

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lumina/internal/audit"
	"lumina/internal/link"
	"lumina/internal/storage"
	dErrors "lumina/pkg/domain-errors"
)

type GalleryServiceSuite struct {
	suite.Suite

	ctx        context.Context
	svc        *Service
	accessLink *link.AccessLink
}

func TestGalleryServiceSuite(t *testing.T) {
	suite.Run(t, new(GalleryServiceSuite))
}

func (s *GalleryServiceSuite) SetupTest() {
	s.ctx = context.Background()

	files, err := storage.NewFileStore(s.T().TempDir())
	s.Require().NoError(err)

	recorder := audit.NewRecorder(audit.NewMemory(), slog.Default(), nil)
	s.svc = NewService(NewMemory(), files, recorder, slog.Default())

	s.accessLink = &link.AccessLink{
		ID:         uuid.New(),
		ProviderID: uuid.New(),
		ClientID:   uuid.New(),
	}
}

func (s *GalleryServiceSuite) TestOneGalleryPerLink() {
	_, err := s.svc.Create(s.ctx, s.accessLink, "Wedding photos")
	s.Require().NoError(err)

	_, err = s.svc.Create(s.ctx, s.accessLink, "Second")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *GalleryServiceSuite) TestVisibilityGatesPortal() {
	g, err := s.svc.Create(s.ctx, s.accessLink, "Wedding photos")
	s.Require().NoError(err)

	hidden, err := s.svc.GetForPortal(s.ctx, s.accessLink)
	s.Require().NoError(err)
	s.Nil(hidden)

	_, err = s.svc.SetVisibility(s.ctx, s.accessLink, true)
	s.Require().NoError(err)

	visible, err := s.svc.GetForPortal(s.ctx, s.accessLink)
	s.Require().NoError(err)
	s.Require().NotNil(visible)
	s.Equal(g.ID, visible.ID)
}

func (s *GalleryServiceSuite) TestPhotoUploadAndServe() {
	_, err := s.svc.Create(s.ctx, s.accessLink, "Wedding photos")
	s.Require().NoError(err)

	photo, err := s.svc.UploadPhoto(s.ctx, s.accessLink, "ceremony.jpg", "image/jpeg", []byte("jpegdata"))
	s.Require().NoError(err)
	s.Equal("ceremony.jpg", photo.FileName)

	// Hidden gallery: the portal cannot fetch the photo, the provider can.
	_, _, err = s.svc.ServePhoto(s.ctx, s.accessLink, photo.ID, true)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	served, content, err := s.svc.ServePhoto(s.ctx, s.accessLink, photo.ID, false)
	s.Require().NoError(err)
	s.Equal([]byte("jpegdata"), content)
	s.Equal("image/jpeg", served.ContentType)

	_, err = s.svc.SetVisibility(s.ctx, s.accessLink, true)
	s.Require().NoError(err)
	_, _, err = s.svc.ServePhoto(s.ctx, s.accessLink, photo.ID, true)
	s.Require().NoError(err)
}

func (s *GalleryServiceSuite) TestUploadRejectsUnknownContentType() {
	_, err := s.svc.Create(s.ctx, s.accessLink, "Wedding photos")
	s.Require().NoError(err)

	_, err = s.svc.UploadPhoto(s.ctx, s.accessLink, "evil.exe", "application/octet-stream", []byte("x"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *GalleryServiceSuite) TestPhotoHiddenFromOtherLinks() {
	_, err := s.svc.Create(s.ctx, s.accessLink, "Wedding photos")
	s.Require().NoError(err)
	photo, err := s.svc.UploadPhoto(s.ctx, s.accessLink, "a.jpg", "image/jpeg", []byte("x"))
	s.Require().NoError(err)

	other := &link.AccessLink{ID: uuid.New(), ProviderID: s.accessLink.ProviderID, ClientID: uuid.New()}
	_, _, err = s.svc.ServePhoto(s.ctx, other, photo.ID, false)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *GalleryServiceSuite) TestDeletePhotoRemovesFile() {
	_, err := s.svc.Create(s.ctx, s.accessLink, "Wedding photos")
	s.Require().NoError(err)
	photo, err := s.svc.UploadPhoto(s.ctx, s.accessLink, "a.jpg", "image/jpeg", []byte("x"))
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DeletePhoto(s.ctx, s.accessLink, photo.ID))

	_, _, err = s.svc.ServePhoto(s.ctx, s.accessLink, photo.ID, false)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
