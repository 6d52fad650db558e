package data

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/contactkeval/bs-pricer/internal/pricing"
)

// synthDataProvider implements Provider generating deterministic synthetic
// data. The same seed and symbol always produce the same bars and chain.
type synthDataProvider struct {
	seed      int64
	vol       float64 // annualised vol of the simulated underlying
	rate      float64 // rate used to price the synthetic chain
	secondary Provider
}

// NewSyntheticProvider returns a provider that simulates geometric Brownian
// motion bars and a Black-Scholes priced option chain with a volatility smile.
func NewSyntheticProvider(seed int64) Provider {
	return &synthDataProvider{seed: seed, vol: 0.25, rate: 0.01}
}

func (synthDataProv *synthDataProvider) Secondary() Provider {
	return synthDataProv.secondary
}

func (synthDataProv *synthDataProvider) rng(underlying string, salt string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(underlying))
	_, _ = h.Write([]byte(salt))
	return rand.New(rand.NewSource(synthDataProv.seed ^ int64(h.Sum64())))
}

// synthEpoch anchors every simulated path so overlapping windows agree.
var synthEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

func (synthDataProv *synthDataProvider) GetDailyBars(ctx context.Context, underlying string, fromDate, toDate time.Time) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := synthEpoch
	if fromDate.Before(start) {
		start = fromDate
	}
	r := synthDataProv.rng(underlying, "bars"+start.Format("2006-01-02"))
	dailyVol := synthDataProv.vol / math.Sqrt(pricing.TradingDaysPerYear)

	price := 100.0 + float64(r.Intn(200))
	var out []Bar
	for cur := start; !cur.After(toDate); cur = cur.AddDate(0, 0, 1) {
		if cur.Weekday() == time.Saturday || cur.Weekday() == time.Sunday {
			continue
		}
		open := price
		close := price * math.Exp(r.NormFloat64()*dailyVol-0.5*dailyVol*dailyVol)
		high := math.Max(open, close) + math.Abs(r.NormFloat64()*0.003*price)
		low := math.Min(open, close) - math.Abs(r.NormFloat64()*0.003*price)
		vol := float64(1000 + r.Intn(5000))
		price = close
		if cur.Before(fromDate) {
			continue
		}
		out = append(out, Bar{Date: cur, Open: open, High: high, Low: low, Close: close, Vol: vol})
	}
	return out, nil
}

// GetOptionChain prices weekly and monthly expiries over strikes within
// ±20% of spot. Spot is the last close of the bars the provider returns for
// the 90 days up to asOf.
func (synthDataProv *synthDataProvider) GetOptionChain(ctx context.Context, underlying string, asOf time.Time) ([]OptionQuote, error) {
	bars, err := synthDataProv.GetDailyBars(ctx, underlying, asOf.AddDate(0, 0, -90), asOf)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return delegateChain(ctx, synthDataProv.secondary, underlying, asOf)
	}
	spot := bars[len(bars)-1].Close
	r := synthDataProv.rng(underlying, "chain"+asOf.Format("2006-01-02"))

	interval := strikeInterval(spot)
	atm := math.Round(spot/interval) * interval

	var out []OptionQuote
	for _, expiry := range syntheticExpiries(asOf) {
		years := expiry.Sub(asOf).Hours() / 24 / 365
		for k := atm * 0.8; k <= atm*1.2+1e-9; k += interval {
			strike := math.Round(k/interval) * interval
			moneyness := math.Log(strike / spot)
			smileVol := synthDataProv.vol + 0.8*moneyness*moneyness + 0.02*r.NormFloat64()
			smileVol = math.Max(smileVol, 0.05)

			for _, typ := range []pricing.OptionType{pricing.Call, pricing.Put} {
				params := pricing.MarketParams{Spot: spot, Strike: strike, Rate: synthDataProv.rate, Vol: smileVol, Expiry: years}
				theo, err := pricing.Price(typ, params)
				if err != nil {
					continue
				}
				half := math.Max(0.02*theo, 0.01)
				q := OptionQuote{
					Underlying: underlying,
					Type:       typ,
					Strike:     strike,
					Bid:        math.Max(round2(theo-half), 0),
					Ask:        round2(theo + half),
					Last:       round2(theo),
					Expiry:     expiry,
				}
				out = append(out, q)
			}
		}
	}
	return out, nil
}

// syntheticExpiries returns the next four Fridays and the third Friday of
// the following two months.
func syntheticExpiries(asOf time.Time) []time.Time {
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	var out []time.Time
	for d := day.AddDate(0, 0, 1); len(out) < 4; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Friday {
			out = append(out, d)
		}
	}
	for m := 1; m <= 2; m++ {
		first := time.Date(day.Year(), day.Month()+time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
		third := first.AddDate(0, 0, offset+14)
		if third.After(out[len(out)-1]) {
			out = append(out, third)
		}
	}
	return out
}

func strikeInterval(spot float64) float64 {
	switch {
	case spot < 25:
		return 0.5
	case spot < 100:
		return 1
	case spot < 500:
		return 5
	default:
		return 10
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
