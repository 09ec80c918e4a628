package renderer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"lumina/internal/contract"
	"lumina/internal/link"
	"lumina/internal/platform/metrics"
	"lumina/internal/storage"
	dErrors "lumina/pkg/domain-errors"
)

// JobStatus is the lifecycle state of a queued render.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is a render request tracked for status polling.
type Job struct {
	ID         uuid.UUID
	ContractID uuid.UUID
	Status     JobStatus
	Error      string
	Version    int
	EnqueuedAt time.Time
	FinishedAt time.Time
}

// PoolConfig sizes the background render pool.
type PoolConfig struct {
	Workers  int
	QueueCap int
	// Retention bounds how long finished jobs stay pollable.
	Retention time.Duration
}

// Pool renders contracts off the request path. Rendering is CPU-bound;
// bounding the worker count keeps it from starving request handling.
type Pool struct {
	engine    *Engine
	contracts *contract.Service
	links     link.Store
	files     storage.Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	cfg       PoolConfig

	queue chan uuid.UUID

	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

// PoolOption configures the Pool.
type PoolOption func(*Pool)

// WithPoolMetrics sets the metrics instance for the pool.
func WithPoolMetrics(m *metrics.Metrics) PoolOption {
	return func(p *Pool) {
		p.metrics = m
	}
}

// NewPool constructs a render pool. Run must be called before Schedule
// produces any output.
func NewPool(engine *Engine, contracts *contract.Service, links link.Store, files storage.Store, cfg PoolConfig, logger *slog.Logger, opts ...PoolOption) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueCap < 1 {
		cfg.QueueCap = 16
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * time.Minute
	}
	p := &Pool{
		engine:    engine,
		contracts: contracts,
		links:     links,
		files:     files,
		logger:    logger,
		cfg:       cfg,
		queue:     make(chan uuid.UUID, cfg.QueueCap),
		jobs:      make(map[uuid.UUID]*Job),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Schedule queues a contract render and returns a pollable job id.
func (p *Pool) Schedule(_ context.Context, contractID uuid.UUID) (uuid.UUID, error) {
	job := &Job{
		ID:         uuid.New(),
		ContractID: contractID,
		Status:     JobQueued,
		EnqueuedAt: time.Now(),
	}
	p.mu.Lock()
	p.jobs[job.ID] = job
	p.mu.Unlock()

	select {
	case p.queue <- job.ID:
		if p.metrics != nil {
			p.metrics.RenderQueueDepth.Inc()
		}
		return job.ID, nil
	default:
		p.mu.Lock()
		delete(p.jobs, job.ID)
		p.mu.Unlock()
		return uuid.Nil, dErrors.New(dErrors.CodeConflict, "render queue is full")
	}
}

// Job returns a snapshot of a tracked job.
func (p *Pool) Job(id uuid.UUID) (Job, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	job, ok := p.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Run starts the workers and the retention janitor and blocks until the
// context is cancelled.
func (p *Pool) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx)
		}()
	}

	ticker := time.NewTicker(p.cfg.Retention / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			p.evictFinished(time.Now().Add(-p.cfg.Retention))
		}
	}
}

func (p *Pool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-p.queue:
			if p.metrics != nil {
				p.metrics.RenderQueueDepth.Dec()
			}
			p.process(ctx, jobID)
		}
	}
}

func (p *Pool) process(ctx context.Context, jobID uuid.UUID) {
	p.setStatus(jobID, JobRunning, "", 0)

	job, ok := p.Job(jobID)
	if !ok {
		return
	}
	started := time.Now()
	version, err := p.render(ctx, job.ContractID)
	if err != nil {
		p.logger.ErrorContext(ctx, "contract render failed",
			"job_id", jobID,
			"contract_id", job.ContractID,
			"error", err,
		)
		p.setStatus(jobID, JobFailed, err.Error(), 0)
		return
	}
	if p.metrics != nil {
		p.metrics.RenderDuration.Observe(time.Since(started).Seconds())
		p.metrics.DocumentsRendered.WithLabelValues("contract").Inc()
	}
	p.setStatus(jobID, JobDone, "", version)
	p.logger.InfoContext(ctx, "contract rendered",
		"job_id", jobID,
		"contract_id", job.ContractID,
		"version", version,
	)
}

// render produces the next version of the contract PDF and records it.
func (p *Pool) render(ctx context.Context, contractID uuid.UUID) (int, error) {
	c, err := p.contracts.GetByID(ctx, contractID)
	if err != nil {
		return 0, err
	}
	accessLink, err := p.links.FindByID(ctx, c.LinkID)
	if err != nil {
		return 0, err
	}

	version := c.Version + 1
	result, err := p.engine.RenderContract(ctx, c.Content, version)
	if err != nil {
		return 0, err
	}

	path := storage.ContractPath(accessLink.ProviderID, c.ID, version)
	if _, err := p.files.Write(path, result.Bytes); err != nil {
		return 0, err
	}
	if err := p.contracts.MarkRendered(ctx, c.ID, version, path, result.Hash, result.RenderedAt); err != nil {
		return 0, err
	}
	return version, nil
}

func (p *Pool) setStatus(jobID uuid.UUID, status JobStatus, errMsg string, version int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[jobID]
	if !ok {
		return
	}
	job.Status = status
	job.Error = errMsg
	if version > 0 {
		job.Version = version
	}
	if status == JobDone || status == JobFailed {
		job.FinishedAt = time.Now()
	}
}

func (p *Pool) evictFinished(cutoff time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, job := range p.jobs {
		if (job.Status == JobDone || job.Status == JobFailed) && job.FinishedAt.Before(cutoff) {
			delete(p.jobs, id)
		}
	}
}

var _ contract.RenderScheduler = (*Pool)(nil)
