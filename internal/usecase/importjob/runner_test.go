package importjob

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaokay/gestionale-energia/internal/db/dbtest"
	importer "github.com/okaokay/gestionale-energia/internal/domain/importer"
	domain "github.com/okaokay/gestionale-energia/internal/domain/importjob"
	"github.com/okaokay/gestionale-energia/internal/httperr"
	"github.com/okaokay/gestionale-energia/internal/infra/jobstore"
	"github.com/okaokay/gestionale-energia/internal/infra/repository"
	"github.com/okaokay/gestionale-energia/internal/logging"
	"github.com/okaokay/gestionale-energia/internal/metrics"
	uc "github.com/okaokay/gestionale-energia/internal/usecase/importer"
)

const clientsCSV = "Nome;Cognome;Codice Fiscale;Email\n" +
	"Mario;Rossi;RSSMRA80A01H501U;mario@example.it\n" +
	"Clara;Bianchi;BNCLRA90D45L219Q;\n"

type memArchive struct {
	mu   sync.Mutex
	keys map[string][]byte
}

func (a *memArchive) Put(_ context.Context, key string, data []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.keys == nil {
		a.keys = map[string][]byte{}
	}
	a.keys[key] = data
	return nil
}

// blockingImporter waits for release before returning an empty report.
type blockingImporter struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingImporter) Execute(ctx context.Context, in uc.Input) (*importer.Report, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
		return &importer.Report{JobID: in.JobID}, ctx.Err()
	}
	return &importer.Report{JobID: in.JobID, TotalRows: in.Table.Len(), Skipped: in.Table.Len()}, nil
}

func waitFinished(t *testing.T, r *Runner, id string) *domain.Job {
	t.Helper()
	var job *domain.Job
	require.Eventually(t, func() bool {
		j, err := r.Get(context.Background(), id)
		if err != nil {
			return false
		}
		job = j
		return j.Finished()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func shutdown(t *testing.T, r *Runner) {
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.Shutdown(ctx)
	})
}

func TestRunner_ImportsFile(t *testing.T) {
	gdb := dbtest.New(t)
	imp := uc.NewUnifiedImport(repository.NewImportGormRepository(gdb), nil, nil, logging.Discard(), uc.DefaultOptions())
	arch := &memArchive{}
	m := metrics.New()

	r := NewRunner(imp, jobstore.NewMemoryStore(time.Hour), jobstore.NewMemoryLock(), arch, m, logging.Discard(), DefaultOptions())
	shutdown(t, r)

	job, err := r.Submit(context.Background(), Upload{FileName: "clienti.csv", Data: []byte(clientsCSV), Actor: "ufficio"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.NotEmpty(t, job.ID)

	done := waitFinished(t, r, job.ID)
	require.Equal(t, domain.StatusCompleted, done.Status, done.Error)
	assert.Equal(t, 2, done.Total)
	assert.Equal(t, 2, done.Processed)
	require.NotNil(t, done.Report)
	assert.Equal(t, 2, done.Report.Created)
	assert.Equal(t, importer.RecordPrivateClient, done.Report.RecordType)
	assert.Contains(t, done.SourceKey, "imports/")
	assert.Equal(t, done.SourceKey, done.Report.SourceKey)

	arch.mu.Lock()
	assert.Equal(t, []byte(clientsCSV), arch.keys[done.SourceKey])
	arch.mu.Unlock()
}

func TestRunner_FailedParseMarksJobFailed(t *testing.T) {
	r := NewRunner(&blockingImporter{}, jobstore.NewMemoryStore(time.Hour), jobstore.NewMemoryLock(), nil, nil, nil, DefaultOptions())
	shutdown(t, r)

	job, err := r.Submit(context.Background(), Upload{FileName: "vuoto.csv", Data: []byte("\n;;\n")})
	require.NoError(t, err)

	done := waitFinished(t, r, job.ID)
	assert.Equal(t, domain.StatusFailed, done.Status)
	assert.Equal(t, "empty_file", done.ErrorCode)
	assert.NotNil(t, done.FinishedAt)
}

func TestRunner_QueueFull(t *testing.T) {
	imp := &blockingImporter{started: make(chan struct{}, 1), release: make(chan struct{})}
	opts := DefaultOptions()
	opts.QueueSize = 1
	r := NewRunner(imp, jobstore.NewMemoryStore(time.Hour), jobstore.NewMemoryLock(), nil, nil, nil, opts)
	shutdown(t, r)
	ctx := context.Background()
	up := Upload{FileName: "clienti.csv", Data: []byte(clientsCSV)}

	first, err := r.Submit(ctx, up)
	require.NoError(t, err)
	<-imp.started

	second, err := r.Submit(ctx, up)
	require.NoError(t, err)

	_, err = r.Submit(ctx, up)
	assert.True(t, httperr.IsBusiness(err, "import_queue_full"))

	close(imp.release)
	<-imp.started
	assert.Equal(t, domain.StatusCompleted, waitFinished(t, r, first.ID).Status)
	assert.Equal(t, domain.StatusCompleted, waitFinished(t, r, second.ID).Status)
}

func TestRunner_LockHeldElsewhere(t *testing.T) {
	lock := jobstore.NewMemoryLock()
	release, err := lock.Acquire(context.Background(), lockKey, time.Minute)
	require.NoError(t, err)
	defer func() { _ = release(context.Background()) }()

	opts := DefaultOptions()
	opts.LockWait = 20 * time.Millisecond
	opts.LockRetry = 5 * time.Millisecond
	r := NewRunner(&blockingImporter{}, jobstore.NewMemoryStore(time.Hour), lock, nil, nil, nil, opts)
	shutdown(t, r)

	job, err := r.Submit(context.Background(), Upload{FileName: "clienti.csv", Data: []byte(clientsCSV)})
	require.NoError(t, err)

	done := waitFinished(t, r, job.ID)
	assert.Equal(t, domain.StatusFailed, done.Status)
	assert.Equal(t, "import_locked", done.ErrorCode)
}

func TestNewRunner_ZeroOptionsGetDefaults(t *testing.T) {
	r := NewRunner(&blockingImporter{}, jobstore.NewMemoryStore(time.Hour), jobstore.NewMemoryLock(), nil, nil, nil, Options{})
	shutdown(t, r)

	assert.Equal(t, DefaultOptions(), r.opts)
}

func TestRunner_WaitsForLock(t *testing.T) {
	lock := jobstore.NewMemoryLock()
	release, err := lock.Acquire(context.Background(), lockKey, time.Minute)
	require.NoError(t, err)

	imp := &blockingImporter{started: make(chan struct{}, 1), release: make(chan struct{})}
	close(imp.release)
	r := NewRunner(imp, jobstore.NewMemoryStore(time.Hour), lock, nil, nil, nil, Options{LockRetry: 5 * time.Millisecond})
	shutdown(t, r)

	job, err := r.Submit(context.Background(), Upload{FileName: "clienti.csv", Data: []byte(clientsCSV)})
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, release(context.Background()))

	assert.Equal(t, domain.StatusCompleted, waitFinished(t, r, job.ID).Status)
}

func TestRunner_RejectsUploads(t *testing.T) {
	r := NewRunner(&blockingImporter{}, jobstore.NewMemoryStore(time.Hour), jobstore.NewMemoryLock(), nil, nil, nil, DefaultOptions())
	ctx := context.Background()

	_, err := r.Submit(ctx, Upload{FileName: "clienti.csv"})
	assert.True(t, httperr.IsBusiness(err, "empty_file"))

	_, err = r.Submit(ctx, Upload{FileName: "clienti.pdf", Data: []byte("x")})
	assert.True(t, httperr.IsBusiness(err, "unsupported_file_type"))

	require.NoError(t, r.Shutdown(ctx))
	_, err = r.Submit(ctx, Upload{FileName: "clienti.csv", Data: []byte(clientsCSV)})
	assert.True(t, httperr.IsBusiness(err, "import_runner_closed"))

	_, err = r.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestRunner_ShutdownCancelsRunningImport(t *testing.T) {
	imp := &blockingImporter{started: make(chan struct{}, 1), release: make(chan struct{})}
	r := NewRunner(imp, jobstore.NewMemoryStore(time.Hour), jobstore.NewMemoryLock(), nil, nil, nil, DefaultOptions())

	job, err := r.Submit(context.Background(), Upload{FileName: "clienti.csv", Data: []byte(clientsCSV)})
	require.NoError(t, err)
	<-imp.started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Shutdown(ctx), context.DeadlineExceeded)

	got, err := r.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
}
