package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"groundwork/adapters/ollama"
	"groundwork/internal/market"
)

var marketFlags struct {
	csvPath string
}

var marketCmd = &cobra.Command{
	Use:   "market [csv-file]",
	Short: "Technical analysis and trade plan from OHLC price history",
	Long: `Compute technical indicators, trend, and support/resistance zones from
an OHLC CSV file, then generate an analysis report and a trade plan. The
plan's price levels are validated against the computed zones.

The CSV needs High, Low and Close columns, oldest row first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMarket,
}

func init() {
	f := marketCmd.Flags()
	f.StringVar(&marketFlags.csvPath, "csv", "", "Path to the OHLC CSV file")
	addModelFlags(f)
}

func runMarket(cmd *cobra.Command, args []string) error {
	csvPath := marketFlags.csvPath
	if csvPath == "" && len(args) > 0 {
		csvPath = args[0]
	}
	if csvPath == "" {
		return fmt.Errorf("a price history CSV is required\n\nUsage: groundwork market <csv-file>")
	}

	obs, writer := setupRun("market")
	state, record, err := market.Run(cmd.Context(), csvPath, ollama.New(""), genOptions(), obs)
	if err != nil {
		return err
	}

	report := state.GetString(market.FieldReport) + "\n\n" + state.GetString(market.FieldPlan) + "\n"
	path, err := writer.Write("market_analysis", "txt", []byte(report))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Analysis written to %s\n", path)
	reportRun(cmd, record)
	return nil
}
