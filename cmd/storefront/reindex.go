package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the product search index from PostgreSQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		defer log.Sync()

		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.products.Reindex(cmd.Context())
		if err != nil {
			return err
		}
		log.Info("Product index rebuilt", zap.Int("documents", n))
		return nil
	},
}
