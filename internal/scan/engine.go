// Package scan drives a ranking run across tickers: it loads history and
// option chains from a data provider, estimates historical volatility and
// hands each chain to the ranker.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/contactkeval/bs-pricer/internal/data"
	"github.com/contactkeval/bs-pricer/internal/logger"
	"github.com/contactkeval/bs-pricer/internal/pricing"
	"github.com/contactkeval/bs-pricer/internal/rank"
)

// DefaultHistoryDays is the calendar look-back for spot and historical vol.
const DefaultHistoryDays = 182

type Engine struct {
	cfg    *Config
	prov   data.Provider
	ranker *rank.Ranker
	obs    Observer
}

// Config struct
type Config struct {
	Tickers        []string           `json:"tickers"`                   // e.g. ["SPY", "AAPL"]
	AsOf           time.Time          `json:"as_of,omitempty"`           // valuation instant, defaults to now
	HistoryDays    int                `json:"history_days,omitempty"`    // calendar days of bars for spot and HV
	RiskFreeRate   float64            `json:"risk_free_rate"`            // continuously compounded
	DividendYields map[string]float64 `json:"dividend_yields,omitempty"` // per ticker, 0 if absent
	TopN           int                `json:"top_n,omitempty"`           // rows kept per ticker, 0 = all
}

// Observer is told how long each run took.
type Observer interface {
	ScanCompleted(d time.Duration)
}

// Result of a run. Options are grouped by ticker in input order, each group
// sorted by descending score.
type Result struct {
	RunID   string              `json:"run_id"`
	AsOf    time.Time           `json:"as_of"`
	Options []rank.RankedOption `json:"options"`
	Skipped []string            `json:"skipped,omitempty"`
}

func NewEngine(cfg *Config, prov data.Provider, ranker *rank.Ranker, obs Observer) *Engine {
	return &Engine{cfg: cfg, prov: prov, ranker: ranker, obs: obs}
}

// Run ranks every configured ticker. A ticker whose data cannot be fetched
// is logged and skipped; only context cancellation fails the run.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	asOf := e.asOf()
	res := &Result{RunID: uuid.NewString(), AsOf: asOf}
	logger.Infof("run %s: %d tickers as of %s", res.RunID, len(e.cfg.Tickers), asOf.Format(time.RFC3339))

	for _, ticker := range e.cfg.Tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Infof("processing %s", ticker)

		rows, err := e.scanTicker(ctx, ticker, asOf)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Errorf("skipping %s: %v", ticker, err)
			res.Skipped = append(res.Skipped, ticker)
			continue
		}
		logger.Infof("%s: %d ranked options", ticker, len(rows))
		res.Options = append(res.Options, rows...)
	}

	if e.obs != nil {
		e.obs.ScanCompleted(time.Since(start))
	}
	return res, nil
}

func (e *Engine) scanTicker(ctx context.Context, ticker string, asOf time.Time) ([]rank.RankedOption, error) {
	u, err := e.underlying(ctx, ticker, asOf)
	if err != nil {
		return nil, err
	}

	chain, err := e.prov.GetOptionChain(ctx, ticker, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetch option chain %s: %w", ticker, err)
	}
	logger.Debugf("%s: %d quotes", ticker, len(chain))

	rows, err := e.ranker.Rank(ctx, u, chain)
	if err != nil {
		return nil, err
	}
	return rank.Top(rows, e.cfg.TopN), nil
}

// underlying loads spot and historical volatility for ticker.
func (e *Engine) underlying(ctx context.Context, ticker string, asOf time.Time) (rank.Underlying, error) {
	closes, err := e.closes(ctx, ticker, asOf, e.historyDays())
	if err != nil {
		return rank.Underlying{}, err
	}

	hv, ok := pricing.HistoricalVolatility(closes)
	if !ok {
		logger.Infof("%s: historical vol unavailable from %d closes", ticker, len(closes))
		hv = 0
	}
	spot := closes[len(closes)-1]
	logger.Debugf("%s: spot=%.2f hv=%.2f%%", ticker, spot, hv*100)

	return rank.Underlying{
		Ticker:   ticker,
		AsOf:     asOf,
		Spot:     spot,
		HV:       hv,
		Rate:     e.cfg.RiskFreeRate,
		DivYield: e.cfg.DividendYields[ticker],
	}, nil
}

func (e *Engine) closes(ctx context.Context, ticker string, asOf time.Time, days int) ([]float64, error) {
	bars, err := e.prov.GetDailyBars(ctx, ticker, asOf.AddDate(0, 0, -days), asOf)
	if err != nil {
		return nil, fmt.Errorf("fetch bars %s: %w", ticker, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch bars %s: %w", ticker, data.ErrNoData)
	}
	return data.Closes(bars), nil
}

func (e *Engine) asOf() time.Time {
	if e.cfg.AsOf.IsZero() {
		return time.Now().UTC()
	}
	return e.cfg.AsOf
}

func (e *Engine) historyDays() int {
	if e.cfg.HistoryDays <= 0 {
		return DefaultHistoryDays
	}
	return e.cfg.HistoryDays
}
