package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/okaokay/gestionale-energia/internal/audit"
	"github.com/okaokay/gestionale-energia/internal/config"
	dbpkg "github.com/okaokay/gestionale-energia/internal/db"
	domainJob "github.com/okaokay/gestionale-energia/internal/domain/importjob"
	"github.com/okaokay/gestionale-energia/internal/infra/archive"
	"github.com/okaokay/gestionale-energia/internal/infra/jobstore"
	"github.com/okaokay/gestionale-energia/internal/infra/repository"
	"github.com/okaokay/gestionale-energia/internal/logging"
	"github.com/okaokay/gestionale-energia/internal/metrics"
	"github.com/okaokay/gestionale-energia/internal/middleware"
	"github.com/okaokay/gestionale-energia/internal/routes"
	ucImport "github.com/okaokay/gestionale-energia/internal/usecase/importer"
	ucJob "github.com/okaokay/gestionale-energia/internal/usecase/importjob"
)

const shutdownTimeout = 30 * time.Second

func main() {

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := dbpkg.NewDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	auditDispatcher := audit.NewDispatcher(audit.New(db), log)

	importer := ucImport.NewUnifiedImport(
		repository.NewImportGormRepository(db),
		auditDispatcher,
		m,
		log,
		ucImport.Options{
			BatchSize:           cfg.Import.BatchSize,
			ConfidenceThreshold: cfg.Import.ConfidenceThreshold,
			FuzzyThreshold:      cfg.Import.FuzzyThreshold,
			UpdateExisting:      cfg.Import.UpdateExisting,
			CheckEmailDomains:   cfg.Import.CheckEmailDomains,
		},
	)

	// --------------------------------------------------
	// Job store / lock
	// --------------------------------------------------
	var (
		store domainJob.Store
		lock  domainJob.Lock
	)
	if cfg.RedisURL != "" {
		client, err := jobstore.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("redis unavailable")
		}
		defer client.Close()
		store = jobstore.NewRedisStore(client, cfg.Import.JobTTL)
		lock = jobstore.NewRedisLock(client)
		log.Info("import jobs stored in redis")
	} else {
		store = jobstore.NewMemoryStore(cfg.Import.JobTTL)
		lock = jobstore.NewMemoryLock()
	}

	var archiver domainJob.Archiver = archive.Noop{}
	if cfg.S3.Enabled {
		archiver = archive.NewS3Archiver(cfg.S3, log)
	}

	opts := ucJob.DefaultOptions()
	opts.QueueSize = cfg.Import.QueueSize
	opts.LockTTL = cfg.Import.LockTTL
	runner := ucJob.NewRunner(importer, store, lock, archiver, m, log, opts)

	// --------------------------------------------------
	// HTTP
	// --------------------------------------------------
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Dependencies{
		DB:      db,
		Config:  cfg,
		Audit:   auditDispatcher,
		Metrics: m,
		Import:  importer,
		Runner:  runner,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr()).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("import runner shutdown")
	}
	if err := auditDispatcher.Close(shutdownCtx); err != nil {
		log.WithError(err).Warn("audit shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
