package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/koshtorys/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the schema and insert missing catalog rows",
	Long:  "Runs migrations and the idempotent seed. Existing prices are never changed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		stats, err := seed.Run(database, seed.Config{AdminEmail: cfg.AdminEmail, AdminPassword: cfg.AdminPassword})
		if err != nil {
			return err
		}
		logger.Info().Int("inserts", stats.Inserts).Int("updates", stats.Updates).Msg("seed complete")
		fmt.Fprintf(cmd.OutOrStdout(), "inserted %d rows, repaired %d\n", stats.Inserts, stats.Updates)
		return nil
	},
}
