package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKlines(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,open,high,low,close,volume\n")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 100 + float64(i) + 2*math.Sin(float64(i))
		fmt.Fprintf(&b, "%s,%.4f,%.4f,%.4f,%.4f,%d\n",
			base.AddDate(0, 0, i).Format("2006-01-02"), c-1, c+2, c-2, c, 1000+(i%7)*100)
	}
	p := filepath.Join(t.TempDir(), "klines.csv")
	require.NoError(t, os.WriteFile(p, []byte(b.String()), 0o600))
	return p
}

// execute runs trendctl with args against a config path that does not exist.
// Flag values and their changed state survive Execute, so both are reset first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "absent.yaml")))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAnalyzeCSV(t *testing.T) {
	path := writeKlines(t, 80)

	out, err := execute(t, "analyze", "2330.tw", "--csv", path)
	require.NoError(t, err)

	var rep struct {
		StockID string `json:"stock_id"`
		Rows    int    `json:"rows"`
		Report  struct {
			SignalStatus string `json:"signal_status"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep), out)
	assert.Equal(t, "2330.TW", rep.StockID)
	assert.Equal(t, 80, rep.Rows)
	assert.Equal(t, "ok", rep.Report.SignalStatus)
}

func TestAnalyzeCSVMissingFile(t *testing.T) {
	_, err := execute(t, "analyze", "2330.TW", "--csv", filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIndicatorsCSV(t *testing.T) {
	path := writeKlines(t, 40)

	out, err := execute(t, "indicators", "--csv", path)
	require.NoError(t, err)

	recs, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 41)
	header := recs[0]
	assert.Equal(t, "date", header[0])
	assert.Contains(t, header, "rsi")
	assert.Contains(t, header, "macd")
	assert.Contains(t, header, "close")
	assert.Equal(t, "2024-01-01", recs[1][0])
	assert.Equal(t, "2024-02-09", recs[40][0])
}

func TestIndicatorsWritesFile(t *testing.T) {
	path := writeKlines(t, 40)
	dst := filepath.Join(t.TempDir(), "enriched.csv")

	out, err := execute(t, "indicators", "--csv", path, "-o", dst)
	require.NoError(t, err)
	assert.Empty(t, out)

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "date,"))
}

func TestIndicatorsRequiresCSV(t *testing.T) {
	_, err := execute(t, "indicators")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv")
}
