package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/okaokay/gestionale-energia/internal/config"
	dbpkg "github.com/okaokay/gestionale-energia/internal/db"
	"github.com/okaokay/gestionale-energia/internal/infra/source"
	"github.com/okaokay/gestionale-energia/internal/logging"
)

type globalFlags struct {
	driver   string
	database string
	logLevel string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:          "importctl",
		Short:        "Import clients and contracts from CSV/XLSX files",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&g.driver, "db-driver", "", "Database driver (sqlite|postgres), overrides DB_DRIVER")
	cmd.PersistentFlags().StringVar(&g.database, "database-url", "", "Database DSN, overrides DATABASE_URL")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level, overrides LOG_LEVEL")

	cmd.AddCommand(newMigrateCmd(g))
	cmd.AddCommand(newDetectCmd(g))
	cmd.AddCommand(newImportCmd(g))
	return cmd
}

// env loads the configuration with flag overrides and a stderr logger.
func (g *globalFlags) env(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if g.driver != "" {
		cfg.DBDriver = g.driver
	}
	if g.database != "" {
		cfg.DBUrl = g.database
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewWithOutput(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat), nil
}

func openDB(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, func(), error) {
	db, err := dbpkg.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, closeFn, nil
}

func readFile(path string) (string, []byte, error) {
	if !source.Supported(path) {
		return "", nil, fmt.Errorf("unsupported file type: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	return path, data, nil
}
