package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cdmx-insight/incident-etl/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "incident-etl",
	Short: "Incident batch cleaning and enrichment pipeline",
	Long:  "Normalizes raw incident batches: classifies crime descriptions by ruleset, imputes missing fields, derives calendar features, enriches with weather, and merges into the historical base.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
