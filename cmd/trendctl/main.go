// Command trendctl runs trend analysis from the terminal, against live data or CSV files.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
