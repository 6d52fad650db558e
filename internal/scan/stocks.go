package scan

import (
	"context"

	"github.com/contactkeval/bs-pricer/internal/logger"
	"github.com/contactkeval/bs-pricer/internal/rank"
)

// stockHistoryDays covers a year of trading days.
const stockHistoryDays = 366

// RankStocks scores each configured ticker on trailing returns, stability
// and dividend yield. Tickers without usable history are skipped.
func (e *Engine) RankStocks(ctx context.Context, w rank.StockWeights) ([]rank.StockMetrics, error) {
	asOf := e.asOf()
	rows := make([]rank.StockMetrics, 0, len(e.cfg.Tickers))
	for _, ticker := range e.cfg.Tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		closes, err := e.closes(ctx, ticker, asOf, stockHistoryDays)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Errorf("skipping %s: %v", ticker, err)
			continue
		}
		m, ok := rank.ComputeStockMetrics(closes)
		if !ok {
			logger.Errorf("skipping %s: unusable close series of %d bars", ticker, len(closes))
			continue
		}
		m.Ticker = ticker
		m.DividendYield = e.cfg.DividendYields[ticker]
		m.Score = rank.ScoreStock(m, w)
		logger.Debugf("%s: 1y=%.4f 6m=%.4f vol=%.4f score=%.4f", ticker, m.Return1Y, m.Return6M, m.AnnualVol, m.Score)
		rows = append(rows, m)
	}
	return rank.RankStocks(rows), nil
}
