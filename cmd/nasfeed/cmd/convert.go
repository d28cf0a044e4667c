package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/nasfeed/market"
	"github.com/rustyeddy/nasfeed/quotes"
	"github.com/rustyeddy/nasfeed/tradelocker"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Clean an OHLCV CSV and write it in TradeLocker format",
	Long: `Read an OHLCV CSV exported by another tool, clean it and write it in
TradeLocker format. The first column (or one named timestamp, datetime,
date or time) holds the bar time; column labels are matched without case.

Example:
  nasfeed convert --in ndx_export.csv --out nas100_15m_data.csv --symbol NAS100`,
	RunE: runConvert,
}

var (
	convertIn     string
	convertOut    string
	convertSymbol string
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertIn, "in", "", "input CSV path (required)")
	convertCmd.Flags().StringVar(&convertOut, "out", "", "output CSV path (required)")
	convertCmd.Flags().StringVar(&convertSymbol, "symbol", "NAS100", "symbol written to every row")
	convertCmd.MarkFlagRequired("in")
	convertCmd.MarkFlagRequired("out")
}

func runConvert(cmd *cobra.Command, args []string) error {
	frame, err := quotes.ReadCSVFile(convertIn)
	if err != nil {
		return err
	}
	s, err := market.Clean(frame)
	if err != nil {
		return fmt.Errorf("clean %s: %w", convertIn, err)
	}
	logger.Debug("cleaned input",
		zap.String("file", convertIn),
		zap.Int("rows", frame.Len()),
		zap.Int("bars", s.Len()))

	if err := tradelocker.Save(tradelocker.Format(s, convertSymbol), convertOut); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Data saved to %s\n", convertOut)
	fmt.Fprintf(out, "  %d of %d rows kept\n", s.Len(), frame.Len())
	return nil
}
