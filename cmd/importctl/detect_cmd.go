package main

import (
	"github.com/spf13/cobra"

	"github.com/okaokay/gestionale-energia/internal/dto"
	"github.com/okaokay/gestionale-energia/internal/infra/source"
	ucImport "github.com/okaokay/gestionale-energia/internal/usecase/importer"
)

func newDetectCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE",
		Short: "Detect the record type of a file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			// detection never touches the database
			uc := ucImport.NewUnifiedImport(nil, nil, nil, log, ucImport.Options{
				ConfidenceThreshold: cfg.Import.ConfidenceThreshold,
			})
			det, err := uc.Detect(table.Headers, "")
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), dto.NewDetectionDTO(det, table))
		},
	}
}
