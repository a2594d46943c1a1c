package main

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okaokay/gestionale-energia/internal/audit"
	domain "github.com/okaokay/gestionale-energia/internal/domain/importer"
	"github.com/okaokay/gestionale-energia/internal/infra/repository"
	"github.com/okaokay/gestionale-energia/internal/infra/source"
	ucImport "github.com/okaokay/gestionale-energia/internal/usecase/importer"
)

func newImportCmd(g *globalFlags) *cobra.Command {
	var (
		recordType string
		dryRun     bool
		batchSize  int
		noUpdate   bool
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a CSV/XLSX file synchronously and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var forced domain.RecordType
			if recordType != "" {
				t, err := domain.ParseRecordType(recordType)
				if err != nil {
					return fmt.Errorf("invalid --type: %w", err)
				}
				forced = t
			}
			if batchSize < 0 {
				return fmt.Errorf("invalid --batch-size: %d", batchSize)
			}

			cfg, log, err := g.env(cmd)
			if err != nil {
				return err
			}
			name, data, err := readFile(args[0])
			if err != nil {
				return err
			}
			table, err := source.Read(name, data)
			if err != nil {
				return err
			}

			db, closeDB, err := openDB(cfg, log)
			if err != nil {
				return err
			}
			defer closeDB()

			dispatcher := audit.NewDispatcher(audit.New(db), log)
			defer func() { _ = dispatcher.Close(cmd.Context()) }()

			uc := ucImport.NewUnifiedImport(
				repository.NewImportGormRepository(db),
				dispatcher,
				nil,
				log,
				ucImport.Options{
					BatchSize:           cfg.Import.BatchSize,
					ConfidenceThreshold: cfg.Import.ConfidenceThreshold,
					FuzzyThreshold:      cfg.Import.FuzzyThreshold,
					UpdateExisting:      cfg.Import.UpdateExisting,
					CheckEmailDomains:   cfg.Import.CheckEmailDomains,
				},
			)

			report, err := uc.Execute(cmd.Context(), ucImport.Input{
				JobID:      uuid.NewString(),
				FileName:   filepath.Base(name),
				Table:      table,
				RecordType: forced,
				DryRun:     dryRun,
				NoUpdate:   noUpdate,
				BatchSize:  batchSize,
				Actor:      actor,
				Progress: func(processed, total int) {
					log.WithField("processed", processed).WithField("total", total).Debug("batch committed")
				},
			})
			if report != nil {
				if werr := writeJSON(cmd.OutOrStdout(), report); werr != nil && err == nil {
					err = werr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&recordType, "type", "", "Force the record type (cliente_privato|cliente_azienda|contratto_luce|contratto_gas)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and match without writing")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Rows per transaction (default IMPORT_BATCH_SIZE)")
	cmd.Flags().BoolVar(&noUpdate, "no-update", false, "Skip rows that match existing records")
	cmd.Flags().StringVar(&actor, "actor", "cli", "Actor recorded in the import log")
	return cmd
}
