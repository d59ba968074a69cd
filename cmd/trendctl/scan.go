package main

import (
	"github.com/spf13/cobra"
)

var (
	scanCount int
	scanSkip  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List scanner candidates, analysed unless --skip-analysis",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tk, err := toolkit()
		if err != nil {
			return err
		}
		defer tk.Close()

		if scanSkip {
			cands, err := tk.Scanner.Candidates(cmd.Context(), scanCount)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cands)
		}
		results, err := tk.Scanner.ScanAndAnalyze(cmd.Context(), scanCount)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), results)
	},
}

func init() {
	scanCmd.Flags().IntVar(&scanCount, "count", 200, "contracts requested from the broker scanner")
	scanCmd.Flags().BoolVar(&scanSkip, "skip-analysis", false, "only list candidates")
}
