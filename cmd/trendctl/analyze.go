package main

import (
	"os"

	"github.com/spf13/cobra"

	"TrendPull/internal/domain/models"
	"TrendPull/internal/repository"
	"TrendPull/pkg/util"
)

var (
	analyzeCSV      string
	analyzeLookback int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <stock_id>",
	Short: "Print the trend report of a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tk, err := toolkit()
		if err != nil {
			return err
		}
		defer tk.Close()

		stockID := util.NormalizeSymbol(args[0])
		var rep *models.StockReport
		if analyzeCSV != "" {
			ks, err := readKlines(analyzeCSV)
			if err != nil {
				return err
			}
			rep = tk.Pipeline.AnalyzeKlines(stockID, ks, analyzeLookback)
		} else {
			rep, err = tk.Pipeline.Analyze(cmd.Context(), stockID, analyzeLookback)
			if err != nil {
				return err
			}
		}
		return printJSON(cmd.OutOrStdout(), rep)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCSV, "csv", "", "read klines from a CSV file instead of the market provider")
	analyzeCmd.Flags().IntVar(&analyzeLookback, "lookback", 0, "rows considered by trend rules (0 uses the configured value)")
}

func readKlines(path string) ([]models.Kline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return repository.ReadKlinesCSV(f)
}
