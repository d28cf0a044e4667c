package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/nasfeed/tradelocker"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.csv>",
	Short: "Summarise a TradeLocker CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	recs, err := tradelocker.Load(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d bars\n", args[0], len(recs))
	if len(recs) == 0 {
		return nil
	}
	first, last := recs[0], recs[len(recs)-1]
	fmt.Fprintf(out, "  Symbol: %s\n", first.Symbol)
	fmt.Fprintf(out, "  First:  %s\n", first.Timestamp.Format(tradelocker.TimeLayout))
	fmt.Fprintf(out, "  Last:   %s\n", last.Timestamp.Format(tradelocker.TimeLayout))

	lo, hi := first.Low, first.High
	for _, r := range recs {
		lo = min(lo, r.Low)
		hi = max(hi, r.High)
	}
	fmt.Fprintf(out, "  Range:  %.2f - %.2f\n", lo, hi)
	return nil
}
