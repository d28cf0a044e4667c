package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/nasfeed/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "nasfeed",
	Short: "NAS100 OHLCV data pipeline for TradeLocker",
	Long: `Nasfeed acquires NAS100 price bars and exports them for TradeLocker.

It provides tools for:
  - Fetching 15 minute and daily bars from Yahoo, OANDA, Dukascopy or CSV exports
  - Generating reproducible synthetic bars when no real data is available
  - Cleaning raw OHLCV tables into a canonical series
  - Writing TradeLocker import CSV files and a run manifest`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logLevel)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var (
	logLevel string
	logger   = zap.NewNop()

	// now is replaced in tests for reproducible output.
	now = time.Now
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
}
