package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualises daily return statistics.
const TradingDaysPerYear = 252

// HistoricalVolatility returns the annualised sample standard deviation of
// daily log returns of closes. ok is false when fewer than two returns are
// available or a close is not positive.
func HistoricalVolatility(closes []float64) (vol float64, ok bool) {
	rets := LogReturns(closes)
	if len(rets) < 2 {
		return 0, false
	}
	return stat.StdDev(rets, nil) * math.Sqrt(TradingDaysPerYear), true
}

// LogReturns computes ln(c[i]/c[i-1]). It returns nil if any close is not
// a positive finite number.
func LogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if !finite(prev) || !finite(cur) || prev <= 0 || cur <= 0 {
			return nil
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}
