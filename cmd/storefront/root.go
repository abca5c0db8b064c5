package main

import (
	"github.com/fekuna/scistore-service/config"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "storefront [command]",
	Short: "Scientific equipment storefront backend",
	Long: `Storefront serves the catalog, cart, checkout, quote requests and back office
APIs for the bilingual (English/Bengali) equipment store.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default $STOREFRONT_CONFIG)")
	rootCmd.AddCommand(serveCmd, migrateCmd, sitemapCmd, reindexCmd)
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
