package rank

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/contactkeval/bs-pricer/internal/pricing"
)

// Look-backs, in trading days, for the stock return metrics.
const (
	OneYearBars   = 252
	SixMonthsBars = 126
)

// StockWeights weight the stock ranking terms.
type StockWeights struct {
	Return1Y  float64 `mapstructure:"return_1y" json:"return_1y"`
	Return6M  float64 `mapstructure:"return_6m" json:"return_6m"`
	Stability float64 `mapstructure:"stability" json:"stability"`
	Dividend  float64 `mapstructure:"dividend" json:"dividend"`
}

func DefaultStockWeights() StockWeights {
	return StockWeights{Return1Y: 0.4, Return6M: 0.3, Stability: 0.2, Dividend: 0.1}
}

// Normalize scales w to sum to one.
func (w StockWeights) Normalize() (StockWeights, error) {
	sum := w.Return1Y + w.Return6M + w.Stability + w.Dividend
	if !(sum > 0) {
		return w, errors.New("stock weights must sum to > 0")
	}
	return StockWeights{
		Return1Y:  w.Return1Y / sum,
		Return6M:  w.Return6M / sum,
		Stability: w.Stability / sum,
		Dividend:  w.Dividend / sum,
	}, nil
}

// StockMetrics summarises one ticker's price history.
type StockMetrics struct {
	Ticker        string  `json:"ticker"`
	Return1Y      float64 `json:"return_1y"`
	Return6M      float64 `json:"return_6m"`
	AnnualVol     float64 `json:"ann_vol"`
	DividendYield float64 `json:"dividend_yield"`
	Score         float64 `json:"score"`
}

// ComputeStockMetrics derives trailing returns and annualised volatility
// of simple daily returns from a close series. A series shorter than a
// look-back uses its full range. It needs at least two positive closes.
func ComputeStockMetrics(closes []float64) (StockMetrics, bool) {
	if len(closes) < 2 {
		return StockMetrics{}, false
	}
	returns := make([]float64, 0, len(closes)-1)
	for i, c := range closes {
		if !(c > 0) {
			return StockMetrics{}, false
		}
		if i > 0 {
			returns = append(returns, c/closes[i-1]-1)
		}
	}

	vol := 0.0
	if len(returns) > 1 {
		vol = stat.StdDev(returns, nil) * math.Sqrt(pricing.TradingDaysPerYear)
	}
	return StockMetrics{
		Return1Y:  trailingReturn(closes, OneYearBars),
		Return6M:  trailingReturn(closes, SixMonthsBars),
		AnnualVol: vol,
	}, true
}

func trailingReturn(closes []float64, bars int) float64 {
	last := closes[len(closes)-1]
	if len(closes) < bars {
		return last/closes[0] - 1
	}
	return last/closes[len(closes)-bars] - 1
}

// ScoreStock favours returns and dividends and penalises volatility through
// an inverse-volatility stability term.
func ScoreStock(m StockMetrics, w StockWeights) float64 {
	stability := 1 / (m.AnnualVol + 1e-6)
	return w.Return1Y*m.Return1Y +
		w.Return6M*m.Return6M +
		w.Stability*stability +
		w.Dividend*m.DividendYield
}

// RankStocks sorts rows by descending score; ties keep input order.
func RankStocks(rows []StockMetrics) []StockMetrics {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })
	return rows
}
