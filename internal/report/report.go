// Package report writes ranking results to an output directory.
package report

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/contactkeval/bs-pricer/internal/rank"
	"github.com/contactkeval/bs-pricer/internal/scan"
)

const (
	OptionsCSV  = "ranked_options.csv"
	OptionsJSON = "ranked_options.json"
	StocksCSV   = "ranked_stocks.csv"
)

// fixed renders v with places decimals, rounding half away from zero.
// Non-finite values render as an empty cell.
func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func WriteJSON(res *scan.Result, outdir string) error {
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, OptionsJSON), b, 0644)
}

func WriteCSV(rows []rank.RankedOption, outdir string) error {
	headers := []string{"ticker", "expiry", "type", "strike", "last", "bid", "ask", "mid", "iv", "hv", "extrinsic", "theta", "score"}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		q := r.Quote
		records = append(records, []string{
			q.Underlying,
			q.Expiry.Format("2006-01-02"),
			q.Type.String(),
			fixed(q.Strike, 2),
			fixed(q.Last, 2),
			fixed(q.Bid, 2),
			fixed(q.Ask, 2),
			fixed(r.Mid, 4),
			fixed(r.IV, 4),
			fixed(r.HV, 4),
			fixed(r.Extrinsic, 4),
			fixed(r.Greeks.Theta, 4),
			fixed(r.Score, 4),
		})
	}
	return writeCSV(filepath.Join(outdir, OptionsCSV), headers, records)
}

func WriteStocksCSV(rows []rank.StockMetrics, outdir string) error {
	headers := []string{"ticker", "1y_return", "6m_return", "ann_vol", "dividend_yield", "score"}
	records := make([][]string, 0, len(rows))
	for _, m := range rows {
		records = append(records, []string{
			m.Ticker,
			fixed(m.Return1Y, 4),
			fixed(m.Return6M, 4),
			fixed(m.AnnualVol, 4),
			fixed(m.DividendYield, 4),
			fixed(m.Score, 4),
		})
	}
	return writeCSV(filepath.Join(outdir, StocksCSV), headers, records)
}

func writeCSV(path string, headers []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return f.Close()
}
