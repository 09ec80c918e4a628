package signature

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"lumina/internal/audit"
	"lumina/internal/contract"
	"lumina/internal/link"
	"lumina/internal/notify"
	"lumina/internal/party"
	"lumina/internal/platform/metrics"
	"lumina/internal/platform/requestcontext"
	"lumina/internal/platform/tracer"
	"lumina/internal/renderer"
	"lumina/internal/sentinel"
	"lumina/internal/storage"
	dErrors "lumina/pkg/domain-errors"
	"lumina/pkg/secrets"
)

// Service performs the signing ceremony: precondition checks, hash sealing,
// the status flip and the synchronous attestation re-render.
type Service struct {
	store     Store
	contracts contract.Store
	parties   party.Store
	files     storage.Store
	engine    *renderer.Engine
	auditor   *audit.Recorder
	tracer    tracer.Tracer
	notifier  notify.Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
	clock     func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer sets the tracing backend.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithNotifier sets the outbound notification sender.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// NewService constructs the signature service.
func NewService(store Store, contracts contract.Store, parties party.Store, files storage.Store, engine *renderer.Engine, auditor *audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:     store,
		contracts: contracts,
		parties:   parties,
		files:     files,
		engine:    engine,
		auditor:   auditor,
		tracer:    tracer.NewNoop(),
		notifier:  notify.NewLogNotifier(logger),
		logger:    logger,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Sign captures the client's signature on the link's contract. Preconditions,
// each a hard failure: the contract exists, its status is exactly
// pending_signature, and no signature exists yet for the role. On success the
// contract is sealed with the hash of its last rendered PDF, flipped to
// signed, and re-rendered with the attestation page before the call returns.
func (s *Service) Sign(ctx context.Context, accessLink *link.AccessLink, role Role, imagePayload string) (_ *Record, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanContractSign)
	defer func() { span.End(err) }()

	c, err := s.contracts.FindByLink(ctx, accessLink.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no contract for this link")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract")
	}
	span.SetAttributes(tracer.String(tracer.AttrContractID, c.ID.String()))

	if c.Status != contract.StatusPendingSignature {
		return nil, dErrors.New(dErrors.CodeStateConflict, "contract is not awaiting signature")
	}
	if _, err := s.store.FindByContractRole(ctx, c.ID, role); err == nil {
		return nil, dErrors.New(dErrors.CodeStateConflict, "contract is already signed for this role")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing signature")
	}

	if _, err := renderer.DecodeSignatureImage(imagePayload); err != nil {
		return nil, err
	}

	// The sealed digest is always computed over the rendered binary the
	// signer saw. A contract without a rendered file cannot be signed.
	if c.FilePath == "" || !s.files.Exists(c.FilePath) {
		return nil, dErrors.New(dErrors.CodeIntegrity, "contract has no rendered document to seal")
	}
	pdfBytes, err := s.files.Read(c.FilePath)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeIntegrity, "failed to read rendered document")
	}
	documentHash := secrets.SHA256Hex(pdfBytes)

	auditToken, err := secrets.GenerateToken()
	if err != nil {
		return nil, err
	}
	meta := requestcontext.GetClientMetadata(ctx)
	rec := &Record{
		ID:           uuid.New(),
		ContractID:   c.ID,
		Role:         role,
		Payload:      imagePayload,
		DocumentHash: documentHash,
		AuditToken:   auditToken,
		IP:           meta.IP,
		UserAgent:    describeUserAgent(meta.UserAgent),
		SignedAt:     s.clock(),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeStateConflict, "contract is already signed for this role")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save signature")
	}

	if err := s.contracts.TransitionStatus(ctx, c.ID, contract.StatusPendingSignature, contract.StatusSigned); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeStateConflict, "contract is not awaiting signature")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark contract signed")
	}

	// Past this point the contract is signed. A failed attestation render
	// leaves no valid signed file, which is unrecoverable from here.
	if err := s.renderAttestation(ctx, accessLink, c, rec); err != nil {
		s.logger.ErrorContext(ctx, "attestation render failed after signature",
			"contract_id", c.ID,
			"signature_id", rec.ID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeIntegrity, "contract signed but attestation render failed")
	}

	auditErr := s.auditor.Record(ctx, &accessLink.ID,
		audit.Actor{Kind: audit.ActorClient, ID: accessLink.ClientID.String()},
		audit.ActionContractSigned,
		audit.EntityRef{Kind: "contract", ID: c.ID.String()},
		map[string]string{
			"signature_id":  rec.ID.String(),
			"document_hash": documentHash,
			"audit_token":   rec.AuditToken,
		},
	)
	if auditErr != nil {
		return nil, auditErr
	}
	if s.metrics != nil {
		s.metrics.SignaturesCaptured.Inc()
	}
	if err := s.notifier.Notify(ctx, notify.Event{
		Kind:       notify.KindContractSigned,
		ProviderID: accessLink.ProviderID.String(),
		LinkID:     accessLink.ID.String(),
		Metadata:   map[string]string{"contract_id": c.ID.String()},
	}); err != nil {
		s.logger.WarnContext(ctx, "notification delivery failed",
			"kind", notify.KindContractSigned,
			"error", err,
		)
	}
	return rec, nil
}

// renderAttestation produces the signed document, swaps it in atomically and
// removes the unsigned versions it replaces.
func (s *Service) renderAttestation(ctx context.Context, accessLink *link.AccessLink, c *contract.GeneratedContract, rec *Record) error {
	signerName := string(rec.Role)
	client, err := s.parties.FindClient(ctx, accessLink.ClientID)
	if err == nil {
		signerName = client.Name
	}

	img, err := renderer.DecodeSignatureImage(rec.Payload)
	if err != nil {
		return err
	}
	att := renderer.Attestation{
		SignerName:   signerName,
		SignerRole:   string(rec.Role),
		SignedAt:     rec.SignedAt,
		ReferenceID:  rec.AuditToken,
		DocumentHash: rec.DocumentHash,
		ImagePNG:     img,
	}

	version := c.Version + 1
	result, err := s.engine.RenderAttestation(ctx, c.Content, att, version)
	if err != nil {
		return err
	}

	signedPath := storage.SignedContractPath(accessLink.ProviderID, c.ID)
	if _, err := s.files.Write(signedPath, result.Bytes); err != nil {
		return err
	}
	if err := s.contracts.SetRendered(ctx, c.ID, version, signedPath, result.Hash, result.RenderedAt); err != nil {
		return err
	}

	// The attestation fully replaces the unsigned renders.
	for v := 1; v < version; v++ {
		old := storage.ContractPath(accessLink.ProviderID, c.ID, v)
		if err := s.files.Remove(old); err != nil {
			s.logger.WarnContext(ctx, "failed to remove unsigned render",
				"contract_id", c.ID,
				"path", old,
				"error", err,
			)
		}
	}

	if s.metrics != nil {
		s.metrics.DocumentsRendered.WithLabelValues("attestation").Inc()
	}
	return nil
}

// Get returns the signature for a contract and role.
func (s *Service) Get(ctx context.Context, contractID uuid.UUID, role Role) (*Record, error) {
	rec, err := s.store.FindByContractRole(ctx, contractID, role)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "signature not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load signature")
	}
	return rec, nil
}

// List returns every signature attached to a contract.
func (s *Service) List(ctx context.Context, contractID uuid.UUID) ([]*Record, error) {
	records, err := s.store.ListByContract(ctx, contractID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list signatures")
	}
	return records, nil
}

// describeUserAgent reduces a raw user-agent header to a readable
// browser/platform summary for the signature record.
func describeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	summary := name + " " + version
	if os := ua.OS(); os != "" {
		summary += " (" + os + ")"
	}
	return summary
}
