// Package rank scores listed option contracts as short-premium candidates.
//
// For each quote the market mid is inverted to an implied volatility, the
// Greeks are evaluated at that volatility and the contract is scored by its
// implied/historical volatility ratio, its extrinsic share of premium and
// its time decay. Contracts without a converged implied volatility are
// excluded, never ranked.
package rank

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/contactkeval/bs-pricer/internal/data"
	"github.com/contactkeval/bs-pricer/internal/logger"
	"github.com/contactkeval/bs-pricer/internal/pricing"
)

// MinTimeToExpiry floors the time to expiry, in years, of contracts that
// expire on or before the as-of instant.
const MinTimeToExpiry = 1e-6

// HVFallback stands in for a historical volatility that could not be
// estimated.
const HVFallback = 1e-4

// Weights are the linear scoring coefficients.
type Weights struct {
	IVToHV     float64 `mapstructure:"iv_to_hv" json:"iv_to_hv"`
	Extrinsic  float64 `mapstructure:"extrinsic" json:"extrinsic"`
	Theta      float64 `mapstructure:"theta" json:"theta"`
	HVEpsilon  float64 `mapstructure:"hv_epsilon" json:"hv_epsilon"`
	MidEpsilon float64 `mapstructure:"mid_epsilon" json:"mid_epsilon"`
}

// DefaultWeights favour the IV/HV ratio.
func DefaultWeights() Weights {
	return Weights{IVToHV: 0.6, Extrinsic: 0.3, Theta: 0.1, HVEpsilon: 1e-6, MidEpsilon: 1e-6}
}

// Score combines the ranking terms. theta is per year and negative for a
// decaying long position, so a larger decay raises the score.
func Score(w Weights, iv, hv, extrinsic, mid, theta float64) float64 {
	return w.IVToHV*iv/(hv+w.HVEpsilon) +
		w.Extrinsic*extrinsic/(mid+w.MidEpsilon) +
		w.Theta*(-theta)
}

// YearsToExpiry is the fractional number of 365-day years from asOf to
// expiry, floored at MinTimeToExpiry.
func YearsToExpiry(asOf, expiry time.Time) float64 {
	years := expiry.Sub(asOf).Hours() / 24 / 365
	return math.Max(years, MinTimeToExpiry)
}

// Underlying is the market state shared by every contract on one ticker.
type Underlying struct {
	Ticker   string
	AsOf     time.Time
	Spot     float64
	HV       float64 // annualised historical volatility, 0 if unknown
	Rate     float64
	DivYield float64
}

// RankedOption is a scored contract.
type RankedOption struct {
	Quote        data.OptionQuote `json:"quote"`
	Mid          float64          `json:"mid"`
	IV           float64          `json:"iv"`
	HV           float64          `json:"hv"`
	Extrinsic    float64          `json:"extrinsic"`
	Greeks       pricing.Greeks   `json:"greeks"`
	Score        float64          `json:"score"`
	IVIterations int              `json:"iv_iterations"`
}

// Exclusion names why a quote was left out of the ranking.
type Exclusion string

const (
	Included         Exclusion = ""
	NonPositiveMid   Exclusion = "non_positive_mid"
	InvalidMarket    Exclusion = "invalid_market"
	AtIntrinsicFloor Exclusion = "intrinsic_floor"
	Unresolved       Exclusion = "unresolved"
	DegenerateGreeks Exclusion = "degenerate_greeks"
)

// Outcome is the label reported to an Observer.
func (e Exclusion) Outcome() string {
	if e == Included {
		return "ranked"
	}
	return string(e)
}

// Observer receives per-quote evaluation events. Implementations must be
// safe for concurrent use.
type Observer interface {
	QuoteEvaluated(outcome string)
	IVSolved(outcome pricing.IVOutcome, iterations int)
}

type nopObserver struct{}

func (nopObserver) QuoteEvaluated(string)            {}
func (nopObserver) IVSolved(pricing.IVOutcome, int) {}

// Config controls a Ranker.
type Config struct {
	Weights Weights
	Workers int
}

// Ranker evaluates and orders option quotes.
type Ranker struct {
	weights Weights
	workers int
	obs     Observer
}

// NewRanker builds a Ranker. A nil observer discards events and fewer than
// one worker means one.
func NewRanker(cfg Config, obs Observer) *Ranker {
	if obs == nil {
		obs = nopObserver{}
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Ranker{weights: cfg.Weights, workers: workers, obs: obs}
}

// Weights returns the scoring coefficients in use.
func (r *Ranker) Weights() Weights {
	return r.weights
}

// Evaluate solves, prices and scores one quote.
func (r *Ranker) Evaluate(u Underlying, q data.OptionQuote) (RankedOption, Exclusion) {
	row, ex := r.evaluate(u, q)
	r.obs.QuoteEvaluated(ex.Outcome())
	return row, ex
}

func (r *Ranker) evaluate(u Underlying, q data.OptionQuote) (RankedOption, Exclusion) {
	mid := q.Mid()
	if !(mid > 0) {
		return RankedOption{}, NonPositiveMid
	}

	params := pricing.MarketParams{
		Spot:     u.Spot,
		Strike:   q.Strike,
		Rate:     u.Rate,
		Expiry:   YearsToExpiry(u.AsOf, q.Expiry),
		DivYield: u.DivYield,
	}
	res, err := pricing.ImpliedVol(q.Type, params, mid)
	if err != nil {
		logger.Tracef("%s: %v", q.Symbol(), err)
		return RankedOption{}, InvalidMarket
	}
	r.obs.IVSolved(res.Outcome, res.Iterations)

	switch res.Outcome {
	case pricing.IntrinsicFloor:
		return RankedOption{}, AtIntrinsicFloor
	case pricing.Unresolved:
		return RankedOption{}, Unresolved
	}

	g, err := pricing.ComputeGreeks(q.Type, params.WithVol(res.Sigma))
	if err != nil {
		logger.Tracef("%s: greeks at iv=%g: %v", q.Symbol(), res.Sigma, err)
		return RankedOption{}, DegenerateGreeks
	}

	hv := u.HV
	if !(hv > 0) {
		hv = HVFallback
	}
	extrinsic := math.Max(mid-pricing.Intrinsic(q.Type, u.Spot, q.Strike), 0)

	return RankedOption{
		Quote:        q,
		Mid:          mid,
		IV:           res.Sigma,
		HV:           hv,
		Extrinsic:    extrinsic,
		Greeks:       g,
		Score:        Score(r.weights, res.Sigma, hv, extrinsic, mid, g.Theta),
		IVIterations: res.Iterations,
	}, Included
}

type evaluation struct {
	row RankedOption
	ex  Exclusion
}

// Rank evaluates quotes concurrently and returns the included rows by
// descending score. Equal scores keep their input order. Only context
// cancellation fails the batch.
func (r *Ranker) Rank(ctx context.Context, u Underlying, quotes []data.OptionQuote) ([]RankedOption, error) {
	results := make([]evaluation, len(quotes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range quotes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, ex := r.Evaluate(u, quotes[i])
			results[i] = evaluation{row: row, ex: ex}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]RankedOption, 0, len(quotes))
	excluded := map[Exclusion]int{}
	for _, res := range results {
		if res.ex != Included {
			excluded[res.ex]++
			continue
		}
		out = append(out, res.row)
	}
	logger.Debugf("%s: ranked %d of %d quotes, excluded %v", u.Ticker, len(out), len(quotes), excluded)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// Top returns at most n rows. n <= 0 returns all rows.
func Top(rows []RankedOption, n int) []RankedOption {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

// SortByIV orders rows by implied volatility, largest first.
func SortByIV(rows []RankedOption) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].IV > rows[j].IV })
}
