// Package pricing implements European option pricing under Black-Scholes
// with a continuous dividend yield, the analytic Greeks, and an implied
// volatility solver that inverts the pricer by bracketed bisection.
//
// Every function in this package is pure: no logging, no shared state,
// no I/O. Failures are reported through the sentinel errors below and
// can be matched with errors.Is.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidArgument reports an unknown option type or a market
	// parameter outside its domain (S, K, T <= 0; sigma, q < 0; NaN/Inf).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDegenerateInput reports sigma*sqrt(T) numerically zero where a
	// division by it is required (d1, gamma, theta).
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrNoVolatilitySolution reports a market price that no volatility in
	// the search bracket can reproduce.
	ErrNoVolatilitySolution = errors.New("no volatility solution")
)

// Numerical guards and solver limits.
const (
	// VolTimeEpsilon is the smallest sigma*sqrt(T) treated as non-zero.
	VolTimeEpsilon = 1e-12

	// IntrinsicTolerance is the slack above the model lower bound under
	// which a market price is floored to zero implied volatility.
	IntrinsicTolerance = 1e-12

	// PriceTolerance is the bisection stopping criterion in price units.
	PriceTolerance = 1e-8

	BracketLow             = 1e-6
	BracketHigh            = 5.0
	MaxBracketExpansions   = 10
	MaxBisectionIterations = 60
)

// OptionType is the exercise right of a European option.
// The zero value is not a valid option type.
type OptionType int

const (
	Call OptionType = iota + 1
	Put
)

// ParseOptionType converts "call"/"put" (or "c"/"p", any case) into an
// OptionType. Any other input fails with ErrInvalidArgument.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return 0, fmt.Errorf("%w: option type %q", ErrInvalidArgument, s)
}

// Valid reports whether t is Call or Put.
func (t OptionType) Valid() bool {
	return t == Call || t == Put
}

func (t OptionType) String() string {
	switch t {
	case Call:
		return "call"
	case Put:
		return "put"
	}
	return fmt.Sprintf("OptionType(%d)", int(t))
}

// MarshalText encodes t as "call" or "put".
func (t OptionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: option type %d", ErrInvalidArgument, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes "call" or "put".
func (t *OptionType) UnmarshalText(b []byte) error {
	v, err := ParseOptionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarketParams are the Black-Scholes inputs. All rates are annualised and
// continuously compounded; Expiry is in years.
type MarketParams struct {
	Spot     float64 // S
	Strike   float64 // K
	Rate     float64 // r
	Vol      float64 // sigma
	Expiry   float64 // T
	DivYield float64 // q
}

// Validate checks the parameter domain. Sigma = 0 is accepted.
func (p MarketParams) Validate() error {
	switch {
	case !finite(p.Spot) || p.Spot <= 0:
		return fmt.Errorf("%w: spot must be positive, got %v", ErrInvalidArgument, p.Spot)
	case !finite(p.Strike) || p.Strike <= 0:
		return fmt.Errorf("%w: strike must be positive, got %v", ErrInvalidArgument, p.Strike)
	case !finite(p.Expiry) || p.Expiry <= 0:
		return fmt.Errorf("%w: time to expiry must be positive, got %v", ErrInvalidArgument, p.Expiry)
	case !finite(p.Rate):
		return fmt.Errorf("%w: rate must be finite, got %v", ErrInvalidArgument, p.Rate)
	case !finite(p.Vol) || p.Vol < 0:
		return fmt.Errorf("%w: volatility must be non-negative, got %v", ErrInvalidArgument, p.Vol)
	case !finite(p.DivYield) || p.DivYield < 0:
		return fmt.Errorf("%w: dividend yield must be non-negative, got %v", ErrInvalidArgument, p.DivYield)
	}
	return nil
}

// WithVol returns a copy of p with the volatility replaced.
func (p MarketParams) WithVol(sigma float64) MarketParams {
	p.Vol = sigma
	return p
}

func checkInputs(t OptionType, p MarketParams) error {
	if !t.Valid() {
		return fmt.Errorf("%w: option type %d", ErrInvalidArgument, int(t))
	}
	return p.Validate()
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
