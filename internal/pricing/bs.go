package pricing

import "math"

// bsTerms holds the intermediate quantities shared by the price and every Greek.
type bsTerms struct {
	sqrtT   float64 // √T
	volTime float64 // σ·√T
	discQ   float64 // e^(-qT)
	discR   float64 // e^(-rT)
	d1      float64
	d2      float64
}

func newTerms(p MarketParams) bsTerms {
	sqrtT := math.Sqrt(p.Expiry)
	tm := bsTerms{
		sqrtT:   sqrtT,
		volTime: p.Vol * sqrtT,
		discQ:   math.Exp(-p.DivYield * p.Expiry),
		discR:   math.Exp(-p.Rate * p.Expiry),
	}
	if tm.volTime > VolTimeEpsilon {
		tm.d1 = (math.Log(p.Spot/p.Strike) + (p.Rate-p.DivYield+0.5*p.Vol*p.Vol)*p.Expiry) / tm.volTime
		tm.d2 = tm.d1 - tm.volTime
	}
	return tm
}

func (tm bsTerms) degenerate() bool {
	return tm.volTime <= VolTimeEpsilon
}

// Price calculates the price of a European option using the Black-Scholes
// model with a continuous dividend yield.
//
// Parameters:
//   - t: Call or Put
//   - p: spot, strike, rate, volatility, time to expiry (years), dividend yield
//
// Returns:
//
//	The theoretical price. When σ·√T is numerically zero the model degenerates
//	to the discounted forward payoff, e.g. max(S·e^(-qT) - K·e^(-rT), 0) for a call.
//	An unknown option type or out-of-domain parameter fails with ErrInvalidArgument
//	before any computation.
func Price(t OptionType, p MarketParams) (float64, error) {
	if err := checkInputs(t, p); err != nil {
		return 0, err
	}
	tm := newTerms(p)
	fwdS := p.Spot * tm.discQ
	fwdK := p.Strike * tm.discR

	if tm.degenerate() {
		if t == Call {
			return math.Max(fwdS-fwdK, 0), nil
		}
		return math.Max(fwdK-fwdS, 0), nil
	}

	var price float64
	if t == Call {
		price = fwdS*NormCDF(tm.d1) - fwdK*NormCDF(tm.d2)
	} else {
		price = fwdK*NormCDF(-tm.d2) - fwdS*NormCDF(-tm.d1)
	}
	// rounding can leave a few ulps below zero far out of the money
	return math.Max(price, 0), nil
}

// Intrinsic is the immediate-exercise payoff: max(S-K, 0) for a call,
// max(K-S, 0) for a put.
func Intrinsic(t OptionType, spot, strike float64) float64 {
	if t == Put {
		return math.Max(strike-spot, 0)
	}
	return math.Max(spot-strike, 0)
}

// LowerBound is the discounted intrinsic value, the infimum of the
// Black-Scholes price over σ: max(S·e^(-qT) - K·e^(-rT), 0) for a call and
// the mirror image for a put.
func LowerBound(t OptionType, p MarketParams) float64 {
	fwdS := p.Spot * math.Exp(-p.DivYield*p.Expiry)
	fwdK := p.Strike * math.Exp(-p.Rate*p.Expiry)
	if t == Put {
		return math.Max(fwdK-fwdS, 0)
	}
	return math.Max(fwdS-fwdK, 0)
}
