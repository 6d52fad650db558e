package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	massive "github.com/massive-com/client-go/v2/rest"
	"github.com/massive-com/client-go/v2/rest/models"

	"github.com/contactkeval/bs-pricer/internal/logger"
	"github.com/contactkeval/bs-pricer/internal/pricing"
)

// chainPageLimit is the page size requested from the snapshot endpoint.
const chainPageLimit = 250

// massiveDataProvider implements the Provider interface using the Massive
// REST client.
type massiveDataProvider struct {
	client *massive.Client

	// secondary is an optional fallback provider.
	secondary Provider
}

// NewMassiveDataProvider constructs a Massive-backed data provider.
func NewMassiveDataProvider(apiKey string, secondary Provider) Provider {
	logger.Infof("initializing Massive data provider")
	return &massiveDataProvider{client: massive.New(apiKey), secondary: secondary}
}

// Secondary returns the configured secondary Provider, if any.
func (massiveDataProv *massiveDataProvider) Secondary() Provider {
	return massiveDataProv.secondary
}

// GetDailyBars retrieves adjusted daily OHLCV bars in ascending order.
func (massiveDataProv *massiveDataProvider) GetDailyBars(ctx context.Context, underlying string, fromDate, toDate time.Time) ([]Bar, error) {
	logger.Debugf(
		"fetching bars: %s from=%s to=%s",
		underlying,
		fromDate.Format("2006-01-02"),
		toDate.Format("2006-01-02"),
	)

	params := models.ListAggsParams{
		Ticker:     strings.ToUpper(underlying),
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(fromDate),
		To:         models.Millis(toDate),
	}.WithOrder(models.Asc).WithAdjusted(true).WithLimit(50000)

	var out []Bar
	it := massiveDataProv.client.ListAggs(ctx, params)
	for it.Next() {
		out = append(out, barFromAgg(it.Item()))
	}
	if err := it.Err(); err != nil {
		logger.Errorf("bars request for %s failed: %v", underlying, err)
		return nil, fmt.Errorf("massive daily bars %s: %w", underlying, err)
	}

	logger.Tracef("bars received: %d records", len(out))
	if len(out) == 0 {
		return delegateBars(ctx, massiveDataProv.secondary, underlying, fromDate, toDate)
	}
	return out, nil
}

// GetOptionChain pages through the options chain snapshot for underlying.
// The snapshot is always current, so asOf is only forwarded to the
// secondary provider.
func (massiveDataProv *massiveDataProvider) GetOptionChain(ctx context.Context, underlying string, asOf time.Time) ([]OptionQuote, error) {
	logger.Debugf("fetching option chain snapshot: %s", underlying)

	limit := chainPageLimit
	params := &models.ListOptionsChainParams{
		UnderlyingAsset: strings.ToUpper(underlying),
		Limit:           &limit,
	}

	var out []OptionQuote
	skipped := 0
	it := massiveDataProv.client.ListOptionsChainSnapshot(ctx, params)
	for it.Next() {
		q, ok := quoteFromSnapshot(underlying, it.Item())
		if !ok {
			skipped++
			continue
		}
		out = append(out, q)
	}
	if err := it.Err(); err != nil {
		logger.Errorf("option chain request for %s failed: %v", underlying, err)
		return nil, fmt.Errorf("massive option chain %s: %w", underlying, err)
	}

	logger.Tracef("received %d contracts, skipped %d", len(out), skipped)
	if len(out) == 0 {
		return delegateChain(ctx, massiveDataProv.secondary, underlying, asOf)
	}
	return out, nil
}

func barFromAgg(a models.Agg) Bar {
	return Bar{
		Date:  time.Time(a.Timestamp).UTC(),
		Open:  a.Open,
		High:  a.High,
		Low:   a.Low,
		Close: a.Close,
		Vol:   a.Volume,
	}
}

// quoteFromSnapshot maps one snapshot row to an OptionQuote. Rows with an
// unknown contract type, no strike or no expiry are rejected.
func quoteFromSnapshot(underlying string, s models.OptionContractSnapshot) (OptionQuote, bool) {
	typ, err := pricing.ParseOptionType(s.Details.ContractType)
	if err != nil {
		return OptionQuote{}, false
	}
	expiry := time.Time(s.Details.ExpirationDate)
	if s.Details.StrikePrice <= 0 || expiry.IsZero() {
		return OptionQuote{}, false
	}

	last := s.LastTrade.Price
	if last <= 0 {
		last = s.Day.Close
	}
	return OptionQuote{
		Underlying: strings.ToUpper(underlying),
		Type:       typ,
		Strike:     s.Details.StrikePrice,
		Bid:        s.LastQuote.Bid,
		Ask:        s.LastQuote.Ask,
		Last:       last,
		Expiry:     time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC),
	}, true
}
