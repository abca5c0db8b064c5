package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sitemapOut string

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Generate sitemap.xml from the active catalog",
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

		body, err := a.seo.GenerateSitemap(cmd.Context())
		if err != nil {
			return err
		}
		if sitemapOut == "" || sitemapOut == "-" {
			_, err = cmd.OutOrStdout().Write(body)
			return err
		}
		if err := os.WriteFile(sitemapOut, body, 0o644); err != nil {
			return fmt.Errorf("write sitemap: %w", err)
		}
		log.Info("Sitemap written", zap.String("path", sitemapOut), zap.Int("bytes", len(body)))
		return nil
	},
}

func init() {
	sitemapCmd.Flags().StringVarP(&sitemapOut, "out", "o", "-", "output file (- for stdout)")
}
