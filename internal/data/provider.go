// Package data supplies market data to the ranking engine: daily bars for
// the spot price and historical volatility, and option chain snapshots.
//
// Providers can be chained: each one delegates to its secondary provider
// when it has no data for a request.
package data

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/contactkeval/bs-pricer/internal/pricing"
)

// ErrNoData is returned when a provider, and every secondary behind it,
// has nothing for the request.
var ErrNoData = errors.New("no data")

// Provider supplies market data
type Provider interface {
	Secondary() Provider
	GetDailyBars(ctx context.Context, underlying string, fromDate, toDate time.Time) ([]Bar, error)
	GetOptionChain(ctx context.Context, underlying string, asOf time.Time) ([]OptionQuote, error)
}

// Bar simplified OHLC
type Bar struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
	Vol   float64
}

// OptionQuote is an immutable snapshot of one listed contract.
type OptionQuote struct {
	Underlying string             `json:"underlying"`
	Type       pricing.OptionType `json:"type"`
	Strike     float64            `json:"strike"`
	Bid        float64            `json:"bid"`
	Ask        float64            `json:"ask"`
	Last       float64            `json:"last"`
	Expiry     time.Time          `json:"expiry"`
}

// Mid is the bid/ask midpoint when both sides are quoted, otherwise the
// last traded price.
func (q OptionQuote) Mid() float64 {
	if q.Bid > 0 && q.Ask > 0 {
		return (q.Bid + q.Ask) / 2.0
	}
	return q.Last
}

// Symbol returns the OCC-style contract symbol.
func (q OptionQuote) Symbol() string {
	return OptionSymbolFromParts(q.Underlying, q.Expiry, q.Type, q.Strike)
}

// OptionSymbolFromParts: OCC-like formatter (best-effort)
func OptionSymbolFromParts(underlying string, expiryDate time.Time, optionType pricing.OptionType, strike float64) string {
	// OCC: <root><YYMMDD><C|P><strike*1000 padded to 8 digits>
	expDt := expiryDate.UTC().Format("060102")
	optType := "C"
	if optionType == pricing.Put {
		optType = "P"
	}
	strikeInt := int(math.Round(strike * 1000))
	return fmt.Sprintf("O:%s%s%s%08d", strings.ToUpper(underlying), expDt, optType, strikeInt)
}

// Closes extracts the close series from bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		out = append(out, b.Close)
	}
	return out
}

// delegateBars forwards to secondary or reports ErrNoData.
func delegateBars(ctx context.Context, secondary Provider, underlying string, fromDate, toDate time.Time) ([]Bar, error) {
	if secondary == nil {
		return nil, fmt.Errorf("bars for %s: %w", underlying, ErrNoData)
	}
	return secondary.GetDailyBars(ctx, underlying, fromDate, toDate)
}

// delegateChain forwards to secondary or reports ErrNoData.
func delegateChain(ctx context.Context, secondary Provider, underlying string, asOf time.Time) ([]OptionQuote, error) {
	if secondary == nil {
		return nil, fmt.Errorf("option chain for %s: %w", underlying, ErrNoData)
	}
	return secondary.GetOptionChain(ctx, underlying, asOf)
}
