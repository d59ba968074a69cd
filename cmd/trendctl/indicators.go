package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"TrendPull/internal/repository"
)

var (
	indicatorsCSV string
	indicatorsOut string
)

var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "Write the kline table enriched with every indicator column",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tk, err := toolkit()
		if err != nil {
			return err
		}
		defer tk.Close()

		ks, err := readKlines(indicatorsCSV)
		if err != nil {
			return err
		}
		f, err := tk.Pipeline.Enrich(ks)
		if err != nil {
			return err
		}

		cols := f.Columns()
		rows := make([][]float64, f.Len())
		index := make([]string, f.Len())
		for i, ts := range f.Index() {
			index[i] = ts.Format("2006-01-02")
			row := make([]float64, len(cols))
			for j, c := range cols {
				row[j] = f.Value(c, i)
			}
			rows[i] = row
		}

		var w io.Writer = cmd.OutOrStdout()
		if indicatorsOut != "" {
			out, err := os.Create(indicatorsOut)
			if err != nil {
				return err
			}
			defer out.Close()
			w = out
		}
		return repository.WriteCSV(w, cols, rows, index)
	},
}

func init() {
	indicatorsCmd.Flags().StringVar(&indicatorsCSV, "csv", "", "input CSV with date, open, high, low, close, volume")
	indicatorsCmd.Flags().StringVarP(&indicatorsOut, "out", "o", "", "output file (default stdout)")
	_ = indicatorsCmd.MarkFlagRequired("csv")
}
