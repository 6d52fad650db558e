package pricing

import (
	"fmt"
	"math"
)

// Greeks are the first and second order sensitivities of the option price.
//
// Theta is per year of calendar time and Vega is per 1.0 of volatility
// (100 vol points). Callers wanting per-day or per-vol-point figures must
// rescale.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// ComputeGreeks returns delta, gamma, theta, vega and rho for a European
// option. d1, d2, the discount factors and φ(d1) are evaluated once and
// shared by all five sensitivities.
//
// It fails with ErrInvalidArgument under the same conditions as Price and with
// ErrDegenerateInput when σ·√T is numerically zero.
func ComputeGreeks(t OptionType, p MarketParams) (Greeks, error) {
	if err := checkInputs(t, p); err != nil {
		return Greeks{}, err
	}
	tm := newTerms(p)
	if tm.degenerate() {
		return Greeks{}, fmt.Errorf("%w: sigma*sqrt(T)=%g", ErrDegenerateInput, tm.volTime)
	}

	pdfD1 := NormPDF(tm.d1)
	fwdS := p.Spot * tm.discQ
	fwdK := p.Strike * tm.discR

	// type-independent terms
	decay := -fwdS * pdfD1 * p.Vol / (2 * tm.sqrtT)
	g := Greeks{
		Gamma: tm.discQ * pdfD1 / (p.Spot * tm.volTime),
		Vega:  fwdS * pdfD1 * tm.sqrtT,
	}

	if t == Call {
		nd1, nd2 := NormCDF(tm.d1), NormCDF(tm.d2)
		g.Delta = tm.discQ * nd1
		g.Theta = decay - p.Rate*fwdK*nd2 + p.DivYield*fwdS*nd1
		g.Rho = p.Expiry * fwdK * nd2
	} else {
		nd1, nd2 := NormCDF(-tm.d1), NormCDF(-tm.d2)
		g.Delta = -tm.discQ * nd1
		g.Theta = decay + p.Rate*fwdK*nd2 - p.DivYield*fwdS*nd1
		g.Rho = -p.Expiry * fwdK * nd2
	}

	if !finite(g.Delta) || !finite(g.Gamma) || !finite(g.Theta) || !finite(g.Vega) || !finite(g.Rho) {
		return Greeks{}, fmt.Errorf("%w: non-finite greeks", ErrDegenerateInput)
	}
	// φ(d1) underflows to exactly 0 deep in the tails; keep the sign invariant explicit
	g.Gamma = math.Max(g.Gamma, 0)
	g.Vega = math.Max(g.Vega, 0)
	return g, nil
}
