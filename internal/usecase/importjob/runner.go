package importjob

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	importer "github.com/okaokay/gestionale-energia/internal/domain/importer"
	domain "github.com/okaokay/gestionale-energia/internal/domain/importjob"
	"github.com/okaokay/gestionale-energia/internal/httperr"
	"github.com/okaokay/gestionale-energia/internal/infra/source"
	"github.com/okaokay/gestionale-energia/internal/logging"
	"github.com/okaokay/gestionale-energia/internal/metrics"
	"github.com/okaokay/gestionale-energia/internal/timezone"
	uc "github.com/okaokay/gestionale-energia/internal/usecase/importer"
)

const lockKey = "import"

var (
	ErrQueueFull     = httperr.ErrBusiness("import_queue_full")
	ErrRunnerClosed  = httperr.ErrBusiness("import_runner_closed")
	errImportLocked  = httperr.ErrBusiness("import_locked")
	errImportAborted = httperr.ErrBusiness("import_aborted")
)

// Importer runs one import synchronously.
type Importer interface {
	Execute(ctx context.Context, in uc.Input) (*importer.Report, error)
}

type Options struct {
	QueueSize int
	LockTTL   time.Duration
	// LockWait is how long a job waits for another instance's import.
	LockWait  time.Duration
	LockRetry time.Duration
}

func DefaultOptions() Options {
	return Options{
		QueueSize: 10,
		LockTTL:   30 * time.Minute,
		LockWait:  10 * time.Minute,
		LockRetry: 2 * time.Second,
	}
}

// Upload is a file submitted for import.
type Upload struct {
	FileName   string
	Data       []byte
	RecordType importer.RecordType
	DryRun     bool
	NoUpdate   bool
	BatchSize  int
	Actor      string
}

type task struct {
	job    *domain.Job
	upload Upload
}

// ======================================================
// RUNNER
// ======================================================

// Runner queues uploads and imports them one at a time.
type Runner struct {
	importer Importer
	store    domain.Store
	lock     domain.Lock
	archiver domain.Archiver
	metrics  *metrics.Metrics
	log      *logrus.Entry
	opts     Options

	queue chan task

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

func NewRunner(
	imp Importer,
	store domain.Store,
	lock domain.Lock,
	archiver domain.Archiver,
	m *metrics.Metrics,
	log logrus.FieldLogger,
	opts Options,
) *Runner {
	def := DefaultOptions()
	if opts.QueueSize <= 0 {
		opts.QueueSize = def.QueueSize
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = def.LockTTL
	}
	if opts.LockRetry <= 0 {
		opts.LockRetry = def.LockRetry
	}
	if opts.LockWait <= 0 {
		opts.LockWait = def.LockWait
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		importer: imp,
		store:    store,
		lock:     lock,
		archiver: archiver,
		metrics:  m,
		log:      logging.Component(log, "import_runner"),
		opts:     opts,
		queue:    make(chan task, opts.QueueSize),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	go r.worker()
	return r
}

// Submit validates the upload and queues it. The returned job is pending.
func (r *Runner) Submit(ctx context.Context, up Upload) (*domain.Job, error) {
	if len(up.Data) == 0 {
		return nil, source.ErrEmptyFile
	}
	if !source.Supported(up.FileName) {
		return nil, source.ErrUnsupportedType
	}

	job := &domain.Job{
		ID:         uuid.NewString(),
		FileName:   up.FileName,
		RecordType: up.RecordType,
		DryRun:     up.DryRun,
		NoUpdate:   up.NoUpdate,
		Actor:      up.Actor,
		Status:     domain.StatusPending,
		CreatedAt:  timezone.Now(),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrRunnerClosed
	}

	if err := r.store.Save(ctx, job); err != nil {
		return nil, err
	}

	queued := *job
	select {
	case r.queue <- task{job: &queued, upload: up}:
		r.metrics.JobQueued()
	default:
		r.fail(context.WithoutCancel(ctx), job, ErrQueueFull)
		return nil, ErrQueueFull
	}

	r.log.WithFields(logrus.Fields{"job_id": job.ID, "file": job.FileName}).Info("import queued")
	return job, nil
}

func (r *Runner) Get(ctx context.Context, id string) (*domain.Job, error) {
	return r.store.Get(ctx, id)
}

// Shutdown stops accepting uploads and waits for queued imports. When ctx
// ends first the running import is cancelled.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-r.done
		return ctx.Err()
	}
}

// ======================================================
// WORKER
// ======================================================

func (r *Runner) worker() {
	defer close(r.done)
	for t := range r.queue {
		if r.ctx.Err() != nil {
			r.metrics.JobStarted()
			r.fail(context.Background(), t.job, errImportAborted)
			r.metrics.JobFinished()
			continue
		}
		r.run(r.ctx, t)
	}
}

func (r *Runner) run(ctx context.Context, t task) {
	job := t.job
	log := r.log.WithFields(logrus.Fields{"job_id": job.ID, "file": job.FileName})
	saveCtx := context.WithoutCancel(ctx)

	r.metrics.JobStarted()
	defer r.metrics.JobFinished()

	defer func() {
		if p := recover(); p != nil {
			log.WithField("panic", p).Error("import panicked")
			r.fail(saveCtx, job, errors.New("internal error"))
		}
	}()

	started := timezone.Now()
	job.Status = domain.StatusRunning
	job.StartedAt = &started
	r.save(saveCtx, job)

	// --------------------------------------------------
	// 1) Lock
	// --------------------------------------------------
	release, err := r.acquire(ctx)
	if err != nil {
		log.WithError(err).Warn("import lock not acquired")
		r.fail(saveCtx, job, err)
		return
	}
	defer func() {
		if err := release(saveCtx); err != nil {
			log.WithError(err).Warn("import lock release failed")
		}
	}()

	// --------------------------------------------------
	// 2) Parse
	// --------------------------------------------------
	table, err := source.Read(job.FileName, t.upload.Data)
	if err != nil {
		r.fail(saveCtx, job, err)
		return
	}
	job.Total = table.Len()
	r.save(saveCtx, job)

	// --------------------------------------------------
	// 3) Archive
	// --------------------------------------------------
	if r.archiver != nil {
		key := domain.ArchiveKey(job.ID, job.FileName, started)
		if err := r.archiver.Put(ctx, key, t.upload.Data, ""); err != nil {
			log.WithError(err).Warn("source file not archived")
		} else {
			job.SourceKey = key
		}
	}

	// --------------------------------------------------
	// 4) Import
	// --------------------------------------------------
	report, err := r.importer.Execute(ctx, uc.Input{
		JobID:      job.ID,
		FileName:   job.FileName,
		SourceKey:  job.SourceKey,
		Table:      table,
		RecordType: job.RecordType,
		DryRun:     job.DryRun,
		NoUpdate:   job.NoUpdate,
		BatchSize:  t.upload.BatchSize,
		Actor:      job.Actor,
		Progress: func(processed, total int) {
			job.Processed, job.Total = processed, total
			r.save(saveCtx, job)
		},
	})
	job.Report = report
	if err != nil {
		r.fail(saveCtx, job, err)
		return
	}

	finished := timezone.Now()
	job.Status = domain.StatusCompleted
	job.Processed = report.Processed()
	job.FinishedAt = &finished
	r.save(saveCtx, job)
}

func (r *Runner) acquire(ctx context.Context) (func(context.Context) error, error) {
	deadline := time.Now().Add(r.opts.LockWait)
	for {
		release, err := r.lock.Acquire(ctx, lockKey, r.opts.LockTTL)
		if err == nil {
			return release, nil
		}
		if !errors.Is(err, domain.ErrLocked) {
			return nil, err
		}
		if !time.Now().Before(deadline) {
			return nil, errImportLocked
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.opts.LockRetry):
		}
	}
}

func (r *Runner) fail(ctx context.Context, job *domain.Job, err error) {
	finished := timezone.Now()
	job.Status = domain.StatusFailed
	job.FinishedAt = &finished
	job.Error = err.Error()
	if code, ok := httperr.BusinessCode(err); ok {
		job.ErrorCode = code
	} else {
		job.ErrorCode = "import_failed"
	}
	r.save(ctx, job)
}

func (r *Runner) save(ctx context.Context, job *domain.Job) {
	if err := r.store.Save(ctx, job); err != nil {
		r.log.WithError(err).WithField("job_id", job.ID).Error("job state not saved")
	}
}
