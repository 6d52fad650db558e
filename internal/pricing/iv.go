package pricing

import (
	"fmt"
	"math"
)

// IVOutcome classifies the result of an implied-volatility solve.
type IVOutcome int

const (
	// Converged means a volatility reproducing the market price was found.
	Converged IVOutcome = iota + 1
	// IntrinsicFloor means the market price is at or below the model lower
	// bound, so the volatility is floored to zero. This is a valid result.
	IntrinsicFloor
	// Unresolved means no sign change was found in the expanded bracket.
	Unresolved
)

func (o IVOutcome) String() string {
	switch o {
	case Converged:
		return "converged"
	case IntrinsicFloor:
		return "intrinsic_floor"
	case Unresolved:
		return "unresolved"
	}
	return fmt.Sprintf("IVOutcome(%d)", int(o))
}

// MarshalText encodes the outcome name.
func (o IVOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ImpliedVolResult is the three-way outcome of ImpliedVol.
type ImpliedVolResult struct {
	Outcome IVOutcome `json:"outcome"`
	Sigma   float64   `json:"sigma"`
	// Iterations is the number of bisection steps performed.
	Iterations int `json:"iterations"`
}

// Err returns ErrNoVolatilitySolution for an unresolved solve and nil otherwise.
func (r ImpliedVolResult) Err() error {
	if r.Outcome == Unresolved {
		return ErrNoVolatilitySolution
	}
	return nil
}

// ImpliedVol finds σ ≥ 0 such that Price(t, p.WithVol(σ)) matches marketPrice.
// p.Vol is ignored.
//
// The solve is a bracketed bisection:
//  1. a market price at or below LowerBound(t, p) + IntrinsicTolerance
//     returns IntrinsicFloor with σ = 0;
//  2. the bracket [BracketLow, BracketHigh] is widened by doubling the upper
//     end at most MaxBracketExpansions times until f(lo) and f(hi) differ in sign;
//  3. without a sign change the result is Unresolved;
//  4. otherwise it bisects for at most MaxBisectionIterations steps, stopping
//     early once |f(mid)| < PriceTolerance, and returns the bracket midpoint.
//
// The precision target is in price units. Volatility precision scales with
// 1/vega and is coarse deep in or out of the money and for long expiries.
//
// Only ErrInvalidArgument is returned as an error; an unknown option type,
// invalid market parameters or a negative/non-finite market price trigger it.
func ImpliedVol(t OptionType, p MarketParams, marketPrice float64) (ImpliedVolResult, error) {
	p.Vol = 0
	if err := checkInputs(t, p); err != nil {
		return ImpliedVolResult{}, err
	}
	if !finite(marketPrice) || marketPrice < 0 {
		return ImpliedVolResult{}, fmt.Errorf("%w: market price %v", ErrInvalidArgument, marketPrice)
	}

	if marketPrice <= LowerBound(t, p)+IntrinsicTolerance {
		return ImpliedVolResult{Outcome: IntrinsicFloor}, nil
	}

	// inputs are validated above and σ stays positive, so Price cannot fail here
	f := func(sigma float64) float64 {
		price, _ := Price(t, p.WithVol(sigma))
		return price - marketPrice
	}

	lo, hi := BracketLow, BracketHigh
	fLo, fHi := f(lo), f(hi)

	for tries := 0; fLo*fHi > 0 && tries < MaxBracketExpansions; tries++ {
		hi *= 2
		fHi = f(hi)
	}
	if fLo*fHi > 0 {
		return ImpliedVolResult{Outcome: Unresolved}, nil
	}

	iterations := 0
	for iterations < MaxBisectionIterations {
		iterations++
		mid := 0.5 * (lo + hi)
		val := f(mid)
		if math.Abs(val) < PriceTolerance {
			return ImpliedVolResult{Outcome: Converged, Sigma: mid, Iterations: iterations}, nil
		}
		if fLo*val < 0 {
			hi = mid
		} else {
			lo, fLo = mid, val
		}
	}

	return ImpliedVolResult{Outcome: Converged, Sigma: 0.5 * (lo + hi), Iterations: iterations}, nil
}
