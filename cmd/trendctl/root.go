package main

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"

	"github.com/spf13/cobra"

	"TrendPull/internal/di"
	"TrendPull/pkg/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "trendctl",
	Short: "TrendPull indicator and trend signal tool",
	Long: `TrendPull indicator and trend signal tool

Commands:
    analyze     <stock_id>    - trend report from the market provider or a CSV file
    indicators  --csv FILE    - enriched indicator table as CSV
    scan                      - broker scanner candidates with their reports
`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.PathFromEnv(), "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(indicatorsCmd)
	rootCmd.AddCommand(scanCmd)
}

// loadConfig reads the config file, falling back to defaults when it does not exist.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(cfgFile)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	// Stdout carries command output.
	cfg.Logging.Output = "stderr"
	cfg.Logging.Collector.Enabled = false
	cfg.Metrics.Enabled = false
	if verbose {
		cfg.Logging.Level = "debug"
	} else {
		cfg.Logging.Level = "warn"
	}
	return cfg, nil
}

func toolkit() (*di.Toolkit, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return di.InitializeToolkit(cfg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
