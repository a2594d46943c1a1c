package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/okaokay/gestionale-energia/internal/audit"
	domain "github.com/okaokay/gestionale-energia/internal/domain/importer"
	"github.com/okaokay/gestionale-energia/internal/domain/matching"
	"github.com/okaokay/gestionale-energia/internal/logging"
	"github.com/okaokay/gestionale-energia/internal/metrics"
	"github.com/okaokay/gestionale-energia/internal/models"
	"github.com/okaokay/gestionale-energia/internal/timezone"
	"github.com/okaokay/gestionale-energia/internal/validators"
)

const DefaultBatchSize = 100

var errDryRun = errors.New("dry run rollback")

// ======================================================
// INPUT / OPTIONS
// ======================================================

type Options struct {
	BatchSize           int
	ConfidenceThreshold float64
	FuzzyThreshold      float64
	UpdateExisting      bool
	CheckEmailDomains   bool
}

func DefaultOptions() Options {
	return Options{
		BatchSize:           DefaultBatchSize,
		ConfidenceThreshold: domain.DefaultConfidenceThreshold,
		FuzzyThreshold:      matching.DefaultFuzzyThreshold,
		UpdateExisting:      true,
	}
}

type Input struct {
	JobID     string
	FileName  string
	SourceKey string
	Table     *domain.Table

	// RecordType forces the type instead of detecting it.
	RecordType domain.RecordType
	DryRun     bool
	// NoUpdate leaves existing rows untouched for this run.
	NoUpdate  bool
	BatchSize int
	Actor     string

	// Progress is called after every batch.
	Progress func(processed, total int)
}

// ======================================================
// USE CASE
// ======================================================

type UnifiedImport struct {
	repo     domain.Repository
	audit    *audit.Dispatcher
	metrics  *metrics.Metrics
	log      *logrus.Entry
	opts     Options
	detector *domain.Detector
	validate *domain.Validator
}

func NewUnifiedImport(
	repo domain.Repository,
	audit *audit.Dispatcher,
	m *metrics.Metrics,
	log logrus.FieldLogger,
	opts Options,
) *UnifiedImport {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	v := domain.NewValidator()
	if opts.CheckEmailDomains {
		v.EmailDomainCheck = validators.EmailDomainResolves
	}

	return &UnifiedImport{
		repo:     repo,
		audit:    audit,
		metrics:  m,
		log:      logging.Component(log, "import"),
		opts:     opts,
		detector: domain.NewDetector(opts.ConfidenceThreshold),
		validate: v,
	}
}

// Detect runs record type detection only.
func (uc *UnifiedImport) Detect(headers []string, forced domain.RecordType) (*domain.Detection, error) {
	if forced != "" {
		return uc.detector.Force(headers, forced)
	}
	return uc.detector.Detect(headers)
}

// ======================================================
// EXECUTE
// ======================================================

// Execute imports a decoded table. Row level problems end up in the report;
// an error is returned only when the import cannot run at all or the
// context is cancelled, in which case the partial report is returned too.
func (uc *UnifiedImport) Execute(ctx context.Context, in Input) (*domain.Report, error) {
	started := timezone.Now()

	// --------------------------------------------------
	// 1) Record type
	// --------------------------------------------------
	if in.Table.Len() == 0 || len(in.Table.Headers) == 0 {
		return nil, errEmptyFile
	}
	det, err := uc.Detect(in.Table.Headers, in.RecordType)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		JobID:      in.JobID,
		FileName:   in.FileName,
		SourceKey:  in.SourceKey,
		RecordType: det.Type,
		Confidence: det.Confidence,
		DryRun:     in.DryRun,
		TotalRows:  in.Table.Len(),
		Errors:     []domain.RowError{},
		Warnings:   []domain.RowError{},
		StartedAt:  started,
	}

	log := uc.log.WithFields(logrus.Fields{
		"job_id":      in.JobID,
		"file":        in.FileName,
		"record_type": det.Type,
		"rows":        report.TotalRows,
		"dry_run":     in.DryRun,
	})
	log.WithField("confidence", det.Confidence).Info("import started")

	run := &importRun{
		uc:      uc,
		det:     det,
		report:  report,
		update:  uc.opts.UpdateExisting && !in.NoUpdate,
		batch:   in.BatchSize,
		in:      in,
		log:     log,
		mapping: det.Mapping,
	}
	if run.batch <= 0 {
		run.batch = uc.opts.BatchSize
	}

	// --------------------------------------------------
	// 2) Batches (a dry run nests them in one rolled back transaction)
	// --------------------------------------------------
	var runErr error
	if in.DryRun {
		txErr := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
			runErr = run.all(ctx, tx)
			return errDryRun
		})
		if txErr != nil && !errors.Is(txErr, errDryRun) && runErr == nil {
			runErr = txErr
		}
	} else {
		runErr = run.all(ctx, uc.repo)
	}

	report.FinishedAt = timezone.Now()

	// --------------------------------------------------
	// 3) Import log, audit, metrics
	// --------------------------------------------------
	logCtx := context.WithoutCancel(ctx)
	entry := toImportLog(report)
	if runErr != nil {
		entry.Status = models.ImportStatusFailed
	}
	if err := uc.repo.CreateImportLog(logCtx, entry); err != nil {
		log.WithError(err).Error("import log write failed")
	} else {
		report.ImportLogID = entry.ID
	}

	uc.audit.Dispatch(audit.Event{
		Action:   "import_completed",
		Entity:   "import_log",
		EntityID: nonZero(entry.ID),
		Actor:    in.Actor,
		Metadata: map[string]any{
			"job_id":      in.JobID,
			"file_name":   in.FileName,
			"record_type": det.Type,
			"created":     report.Created,
			"updated":     report.Updated,
			"skipped":     report.Skipped,
			"failed":      report.Failed,
			"dry_run":     in.DryRun,
		},
	})

	uc.metrics.ObserveImport(string(det.Type), entry.Status, in.DryRun, metrics.ImportRows{
		Created: report.Created,
		Updated: report.Updated,
		Skipped: report.Skipped,
		Failed:  report.Failed,
	}, report.FinishedAt.Sub(started))

	log.WithFields(logrus.Fields{
		"created":  report.Created,
		"updated":  report.Updated,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
		"status":   entry.Status,
		"duration": report.FinishedAt.Sub(started).String(),
	}).Info("import finished")

	if runErr != nil {
		return report, runErr
	}
	return report, nil
}

func nonZero(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func toImportLog(r *domain.Report) *models.ImportLog {
	errs, _ := json.Marshal(r.Errors)
	warns, _ := json.Marshal(r.Warnings)

	return &models.ImportLog{
		JobID:             r.JobID,
		FileName:          r.FileName,
		SourceKey:         r.SourceKey,
		RecordType:        string(r.RecordType),
		Confidence:        r.Confidence,
		TotalRows:         r.TotalRows,
		CreatedRows:       r.Created,
		UpdatedRows:       r.Updated,
		SkippedRows:       r.Skipped,
		FailedRows:        r.Failed,
		LinkedContracts:   r.LinkedContracts,
		CreatedClients:    r.CreatedClients,
		UnlinkedContracts: r.UnlinkedContracts,
		Errors:            string(errs),
		Warnings:          string(warns),
		Status:            r.Status(),
		DryRun:            r.DryRun,
		StartedAt:         r.StartedAt,
		FinishedAt:        r.FinishedAt,
	}
}

// ======================================================
// RUN
// ======================================================

type importRun struct {
	uc      *UnifiedImport
	det     *domain.Detection
	mapping domain.Mapping
	report  *domain.Report
	index   *matching.Index
	update  bool
	batch   int
	in      Input
	log     *logrus.Entry
}

func (r *importRun) all(ctx context.Context, repo domain.Repository) error {
	if err := r.rebuildIndex(ctx, repo); err != nil {
		return err
	}

	rows := r.in.Table.Rows
	for start := 0; start < len(rows); start += r.batch {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+r.batch, len(rows))
		if err := r.runBatch(ctx, repo, rows[start:end]); err != nil {
			return err
		}

		if r.in.Progress != nil {
			r.in.Progress(r.report.Processed(), r.report.TotalRows)
		}
	}
	return nil
}

func (r *importRun) rebuildIndex(ctx context.Context, repo domain.Repository) error {
	ix := matching.NewIndex(r.uc.opts.FuzzyThreshold)

	privates, err := repo.ListPrivateClients(ctx)
	if err != nil {
		return fmt.Errorf("load private clients: %w", err)
	}
	for i := range privates {
		ix.AddPrivate(&privates[i])
	}

	businesses, err := repo.ListBusinessClients(ctx)
	if err != nil {
		return fmt.Errorf("load business clients: %w", err)
	}
	for i := range businesses {
		ix.AddBusiness(&businesses[i])
	}

	r.index = ix
	return nil
}

// runBatch processes rows in one transaction. Counters and issues are
// merged into the report only once the transaction commits.
func (r *importRun) runBatch(ctx context.Context, repo domain.Repository, rows []domain.Row) error {
	var tally batchTally

	err := repo.Transaction(ctx, func(tx domain.Repository) error {
		tally = batchTally{}
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := r.processRow(ctx, tx, row)
			tally.add(out)
		}
		return nil
	})

	if err == nil {
		tally.mergeInto(r.report)
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	// nothing of this batch was written and the index may hold clients
	// created inside it
	r.log.WithError(err).WithField("first_line", rows[0].Line).Error("batch rolled back")
	for _, row := range rows {
		r.report.Failed++
		r.report.Add(domain.RowError{
			Row:      row.Line,
			Code:     domain.CodeBatchFailed,
			Message:  "transazione del blocco annullata",
			Value:    err.Error(),
			Severity: domain.SeverityError,
		})
	}
	return r.rebuildIndex(ctx, repo)
}
