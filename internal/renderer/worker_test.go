package renderer

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"lumina/internal/audit"
	"lumina/internal/contract"
	"lumina/internal/link"
	"lumina/internal/party"
	"lumina/internal/questionnaire"
	"lumina/internal/storage"
	"lumina/internal/template"
)

type RenderPoolSuite struct {
	suite.Suite

	ctx       context.Context
	cancel    context.CancelFunc
	pool      *Pool
	contracts *contract.InMemoryStore
	files     *storage.FileStore
	linkID    uuid.UUID
	provider  uuid.UUID
}

func TestRenderPoolSuite(t *testing.T) {
	suite.Run(t, new(RenderPoolSuite))
}

func (s *RenderPoolSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.provider = uuid.New()
	s.linkID = uuid.New()

	links := link.NewMemory()
	s.Require().NoError(links.Save(s.ctx, &link.AccessLink{
		ID:         s.linkID,
		ProviderID: s.provider,
		ClientID:   uuid.New(),
		Token:      "tok",
	}))

	s.contracts = contract.NewMemory()
	recorder := audit.NewRecorder(audit.NewMemory(), slog.Default(), nil)
	templates := template.NewService(template.NewMemory(), slog.Default())
	svc := contract.NewService(s.contracts, templates, questionnaire.NewMemory(), party.NewMemory(), recorder, slog.Default())

	files, err := storage.NewFileStore(s.T().TempDir())
	s.Require().NoError(err)
	s.files = files

	s.pool = NewPool(NewEngine(), svc, links, files,
		PoolConfig{Workers: 1, QueueCap: 4, Retention: time.Minute},
		slog.Default(),
	)
	go s.pool.Run(s.ctx)

	s.T().Cleanup(s.cancel)
}

func (s *RenderPoolSuite) waitForJob(jobID uuid.UUID) Job {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := s.pool.Job(jobID)
		s.Require().True(ok)
		if job.Status == JobDone || job.Status == JobFailed {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.FailNow("render job did not finish")
	return Job{}
}

func (s *RenderPoolSuite) TestScheduleRendersContract() {
	c := &contract.GeneratedContract{
		ID:          uuid.New(),
		LinkID:      s.linkID,
		Content:     "# Object\nBody text.",
		Status:      contract.StatusPendingSignature,
		GeneratedAt: time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.Require().NoError(s.contracts.Save(s.ctx, c))

	jobID, err := s.pool.Schedule(s.ctx, c.ID)
	s.Require().NoError(err)

	job := s.waitForJob(jobID)
	s.Require().Equal(JobDone, job.Status, job.Error)
	s.Equal(1, job.Version)

	stored, err := s.contracts.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.Version)
	s.Equal(storage.ContractPath(s.provider, c.ID, 1), stored.FilePath)
	s.NotEmpty(stored.FileHash)
	s.True(s.files.Exists(stored.FilePath))
}

func (s *RenderPoolSuite) TestScheduleUnknownContractFails() {
	jobID, err := s.pool.Schedule(s.ctx, uuid.New())
	require.NoError(s.T(), err)

	job := s.waitForJob(jobID)
	s.Equal(JobFailed, job.Status)
	s.NotEmpty(job.Error)
}
