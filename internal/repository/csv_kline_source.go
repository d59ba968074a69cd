package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
	"TrendPull/pkg/util"
)

var csvColumns = []string{"date", "open", "high", "low", "close", "volume"}

// CSVKlineSource serves the bars of a single CSV file for any stock id.
type CSVKlineSource struct {
	path string
}

func NewCSVKlineSource(path string) *CSVKlineSource {
	return &CSVKlineSource{path: path}
}

func (s *CSVKlineSource) GetDailyKlines(_ context.Context, stockID string, days int) ([]models.Kline, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	ks, err := ReadKlinesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	for i := range ks {
		ks[i].Symbol = stockID
	}
	if days > 0 && len(ks) > days {
		ks = ks[len(ks)-days:]
	}
	return ks, nil
}

func (s *CSVKlineSource) GetStockInfo(_ context.Context, stockID string) (models.StockInfo, error) {
	return models.UnknownStockInfo(stockID), nil
}

// ReadKlinesCSV parses a headed date,open,high,low,close,volume table in any column order.
// Header names are case-insensitive and extra columns are ignored. Rows are sorted by date.
func ReadKlinesCSV(r io.Reader) ([]models.Kline, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range csvColumns {
		if _, ok := pos[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv missing columns: %s", strings.Join(missing, ", "))
	}

	var out []models.Kline
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		d, ok := util.ParseDate(strings.TrimSpace(rec[pos["date"]]))
		if !ok {
			return nil, fmt.Errorf("line %d: bad date %q", line, rec[pos["date"]])
		}
		k := models.Kline{Date: d}
		for _, fv := range []struct {
			col string
			dst *float64
		}{{"open", &k.Open}, {"high", &k.High}, {"low", &k.Low}, {"close", &k.Close}, {"volume", &k.Volume}} {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[pos[fv.col]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad %s: %w", line, fv.col, err)
			}
			*fv.dst = v
		}
		out = append(out, k)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// WriteCSV writes a header row followed by rows, formatting floats compactly. NaN becomes "".
func WriteCSV(w io.Writer, header []string, rows [][]float64, index []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"date"}, header...)); err != nil {
		return err
	}
	rec := make([]string, len(header)+1)
	for i, row := range rows {
		rec[0] = index[i]
		for j, v := range row {
			if math.IsNaN(v) {
				rec[j+1] = ""
				continue
			}
			rec[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var (
	_ domrepo.KlineSource     = (*CSVKlineSource)(nil)
	_ domrepo.StockInfoSource = (*CSVKlineSource)(nil)
)
