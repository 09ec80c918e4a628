package signature

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lumina/internal/audit"
	"lumina/internal/contract"
	"lumina/internal/link"
	"lumina/internal/notify"
	"lumina/internal/party"
	"lumina/internal/platform/requestcontext"
	"lumina/internal/renderer"
	"lumina/internal/storage"
	dErrors "lumina/pkg/domain-errors"
	"lumina/pkg/secrets"
)

type SignatureServiceSuite struct {
	suite.Suite

	ctx        context.Context
	store      *InMemoryStore
	contracts  *contract.InMemoryStore
	files      *storage.FileStore
	auditStore *audit.InMemoryStore
	notifier   *captureNotifier
	svc        *Service
	accessLink *link.AccessLink
	contract   *contract.GeneratedContract
}

type captureNotifier struct {
	events []notify.Event
}

func (n *captureNotifier) Notify(_ context.Context, event notify.Event) error {
	n.events = append(n.events, event)
	return nil
}

func TestSignatureServiceSuite(t *testing.T) {
	suite.Run(t, new(SignatureServiceSuite))
}

func (s *SignatureServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithClientMetadata(context.Background(),
		"203.0.113.9",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	)

	s.store = NewMemory()
	s.contracts = contract.NewMemory()
	s.auditStore = audit.NewMemory()

	parties := party.NewMemory()
	providerID := uuid.New()
	client := &party.Client{ID: uuid.New(), ProviderID: providerID, Name: "Dupont"}
	s.Require().NoError(parties.SaveClient(s.ctx, client))

	files, err := storage.NewFileStore(s.T().TempDir())
	s.Require().NoError(err)
	s.files = files

	recorder := audit.NewRecorder(s.auditStore, slog.Default(), nil)
	s.notifier = &captureNotifier{}
	s.svc = NewService(s.store, s.contracts, parties, files, renderer.NewEngine(), recorder, slog.Default(),
		WithNotifier(s.notifier))

	s.accessLink = &link.AccessLink{
		ID:         uuid.New(),
		ProviderID: providerID,
		ClientID:   client.ID,
	}

	s.contract = &contract.GeneratedContract{
		ID:          uuid.New(),
		LinkID:      s.accessLink.ID,
		Content:     "# Object\nAgreement body.",
		Status:      contract.StatusPendingSignature,
		GeneratedAt: time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.Require().NoError(s.contracts.Save(s.ctx, s.contract))
	s.renderContract()
}

// renderContract produces the v1 file a signer would have reviewed.
func (s *SignatureServiceSuite) renderContract() {
	result, err := renderer.NewEngine().RenderContract(s.ctx, s.contract.Content, 1)
	s.Require().NoError(err)
	path := storage.ContractPath(s.accessLink.ProviderID, s.contract.ID, 1)
	_, err = s.files.Write(path, result.Bytes)
	s.Require().NoError(err)
	s.Require().NoError(s.contracts.SetRendered(s.ctx, s.contract.ID, 1, path, result.Hash, time.Now()))
	s.contract, err = s.contracts.FindByID(s.ctx, s.contract.ID)
	s.Require().NoError(err)
}

func (s *SignatureServiceSuite) TestSignSealsAndRendersAttestation() {
	unsignedPath := s.contract.FilePath
	pdfBytes, err := s.files.Read(unsignedPath)
	s.Require().NoError(err)

	rec, err := s.svc.Sign(s.ctx, s.accessLink, RoleClient, "")
	s.Require().NoError(err)

	s.Equal(secrets.SHA256Hex(pdfBytes), rec.DocumentHash)
	s.NotEmpty(rec.AuditToken)
	s.Equal("203.0.113.9", rec.IP)
	s.Contains(rec.UserAgent, "Chrome")

	signed, err := s.contracts.FindByID(s.ctx, s.contract.ID)
	s.Require().NoError(err)
	s.Equal(contract.StatusSigned, signed.Status)
	s.Equal(2, signed.Version)
	s.Equal(storage.SignedContractPath(s.accessLink.ProviderID, s.contract.ID), signed.FilePath)

	// The attestation render replaces the unsigned file.
	s.True(s.files.Exists(signed.FilePath))
	s.False(s.files.Exists(unsignedPath))

	signedCount := 0
	for _, entry := range s.auditStore.All() {
		if entry.Action == audit.ActionContractSigned {
			signedCount++
		}
	}
	s.Equal(1, signedCount)
}

func (s *SignatureServiceSuite) TestSignTwiceFails() {
	_, err := s.svc.Sign(s.ctx, s.accessLink, RoleClient, "")
	s.Require().NoError(err)

	_, err = s.svc.Sign(s.ctx, s.accessLink, RoleClient, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
}

func (s *SignatureServiceSuite) TestSignNotifiesProvider() {
	_, err := s.svc.Sign(s.ctx, s.accessLink, RoleClient, "")
	s.Require().NoError(err)

	s.Require().Len(s.notifier.events, 1)
	event := s.notifier.events[0]
	s.Equal(notify.KindContractSigned, event.Kind)
	s.Equal(s.accessLink.ProviderID.String(), event.ProviderID)
	s.Equal(s.accessLink.ID.String(), event.LinkID)
	s.Equal(s.contract.ID.String(), event.Metadata["contract_id"])
}

func (s *SignatureServiceSuite) TestExistingRoleSignatureIsStateConflict() {
	existing := &Record{
		ID:         uuid.New(),
		ContractID: s.contract.ID,
		Role:       RoleClient,
		SignedAt:   time.Now(),
	}
	s.Require().NoError(s.store.Save(s.ctx, existing))

	_, err := s.svc.Sign(s.ctx, s.accessLink, RoleClient, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
}

func (s *SignatureServiceSuite) TestSignRequiresPendingStatus() {
	s.Require().NoError(s.contracts.TransitionStatus(s.ctx, s.contract.ID, contract.StatusPendingSignature, contract.StatusSigned))

	_, err := s.svc.Sign(s.ctx, s.accessLink, RoleClient, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
}

func (s *SignatureServiceSuite) TestSignRequiresRenderedDocument() {
	bare := &contract.GeneratedContract{
		ID:          uuid.New(),
		LinkID:      uuid.New(),
		Content:     "body",
		Status:      contract.StatusPendingSignature,
		GeneratedAt: time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.Require().NoError(s.contracts.Save(s.ctx, bare))
	bareLink := &link.AccessLink{ID: bare.LinkID, ProviderID: s.accessLink.ProviderID, ClientID: s.accessLink.ClientID}

	_, err := s.svc.Sign(s.ctx, bareLink, RoleClient, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeIntegrity))
}

func (s *SignatureServiceSuite) TestSignRejectsNonPNGPayload() {
	_, err := s.svc.Sign(s.ctx, s.accessLink, RoleClient, "data:image/jpeg;base64,xxxx")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
