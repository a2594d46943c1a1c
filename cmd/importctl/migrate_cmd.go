package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.env(cmd)
			if err != nil {
				return err
			}
			_, closeDB, err := openDB(cfg, log)
			if err != nil {
				return err
			}
			defer closeDB()

			log.WithField("driver", cfg.DBDriver).Info("schema up to date")
			return nil
		},
	}
}
