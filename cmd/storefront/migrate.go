package main

import (
	"github.com/fekuna/scistore-service/pkg/database/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		defer log.Sync()

		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := postgres.Migrate(cmd.Context(), db)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			log.Info("Database schema is up to date")
			return nil
		}
		log.Info("Applied migrations", zap.Strings("versions", applied))
		return nil
	},
}
