package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/research-engine/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "research-engine",
	Short: "Iterative company research engine",
	Long:  "Runs multi-provider web searches through a health-tracked cascade, scores and deduplicates results, extracts structured facts, and iterates until a quality gate or cost cap stops the run.",
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
