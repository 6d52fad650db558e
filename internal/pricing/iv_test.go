package pricing

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestImpliedVolRoundTrip(t *testing.T) {
	type tc struct {
		typ   OptionType
		p     MarketParams
		sigma float64
	}
	var cases []tc
	for _, typ := range []OptionType{Call, Put} {
		for _, k := range []float64{90, 100, 110} {
			for _, expiry := range []float64{0.5, 1.0} {
				for _, sigma := range []float64{0.15, 0.3, 0.8, 2.0} {
					for _, q := range []float64{0, 0.02} {
						cases = append(cases, tc{typ, MarketParams{Spot: 100, Strike: k, Rate: 0.05, Expiry: expiry, DivYield: q}, sigma})
					}
				}
			}
		}
		// short-dated at the money
		cases = append(cases, tc{typ, MarketParams{Spot: 100, Strike: 100, Rate: 0.05, Expiry: 7.0 / 365.0}, 0.3})
		// edges of the supported vol range, at the money where vega is material
		for _, expiry := range []float64{0.5, 1.0} {
			for _, sigma := range []float64{0.02, 2.9} {
				for _, q := range []float64{0, 0.02} {
					cases = append(cases, tc{typ, MarketParams{Spot: 100, Strike: 100, Rate: 0.05, Expiry: expiry, DivYield: q}, sigma})
				}
			}
		}
	}

	for _, c := range cases {
		name := fmt.Sprintf("%s/K=%v/T=%v/sigma=%v/q=%v", c.typ, c.p.Strike, c.p.Expiry, c.sigma, c.p.DivYield)
		t.Run(name, func(t *testing.T) {
			price := mustPrice(t, c.typ, c.p.WithVol(c.sigma))

			res, err := ImpliedVol(c.typ, c.p, price)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Outcome != Converged {
				t.Fatalf("expected converged, got %s", res.Outcome)
			}
			if !almostEqual(res.Sigma, c.sigma, 1e-6) {
				t.Fatalf("round trip: expected sigma %v, got %v", c.sigma, res.Sigma)
			}
			if res.Err() != nil {
				t.Fatalf("converged result reported error: %v", res.Err())
			}
		})
	}
}

func TestImpliedVolIgnoresInputVol(t *testing.T) {
	price := mustPrice(t, Call, atm)
	a, _ := ImpliedVol(Call, atm.WithVol(0), price)
	b, _ := ImpliedVol(Call, atm.WithVol(3.7), price)
	if a != b {
		t.Fatalf("result depends on p.Vol: %+v vs %+v", a, b)
	}
	if !almostEqual(a.Sigma, atm.Vol, 1e-6) {
		t.Fatalf("expected sigma %v, got %v", atm.Vol, a.Sigma)
	}
}

// A premium within PriceTolerance of the lower bound at BracketLow must still
// be bisected rather than reported as σ = BracketLow.
func TestImpliedVolTinyTimeValue(t *testing.T) {
	tests := []struct {
		typ   OptionType
		p     MarketParams
		sigma float64 // generating vol
	}{
		{Put, MarketParams{Spot: 100, Strike: 110, Rate: 0.05, Expiry: 0.1}, 0.05},
		{Call, MarketParams{Spot: 100, Strike: 110, Rate: 0.05, Expiry: 0.1}, 0.05},
		{Put, MarketParams{Spot: 100, Strike: 120, Rate: 0.05, Expiry: 0.1}, 0.1},
		{Put, MarketParams{Spot: 100, Strike: 100, Rate: 0.05, Expiry: 2}, 0.011},
	}
	for _, test := range tests {
		price := mustPrice(t, test.typ, test.p.WithVol(test.sigma))

		res, err := ImpliedVol(test.typ, test.p, price)
		if err != nil {
			t.Fatalf("%s K=%v: unexpected error: %v", test.typ, test.p.Strike, err)
		}
		if res.Outcome != Converged {
			t.Fatalf("%s K=%v: expected converged, got %+v", test.typ, test.p.Strike, res)
		}
		if res.Iterations < 1 {
			t.Fatalf("%s K=%v: expected bisection steps, got %+v", test.typ, test.p.Strike, res)
		}
		if res.Sigma <= 100*BracketLow {
			t.Fatalf("%s K=%v: sigma %v stuck at the bracket floor", test.typ, test.p.Strike, res.Sigma)
		}
		if repriced := mustPrice(t, test.typ, test.p.WithVol(res.Sigma)); math.Abs(repriced-price) >= PriceTolerance {
			t.Fatalf("%s K=%v: repriced %v, want %v", test.typ, test.p.Strike, repriced, price)
		}
	}
}

func TestImpliedVolIntrinsicFloor(t *testing.T) {
	p := MarketParams{Spot: 150, Strike: 100, Rate: 0.05, Expiry: 1}
	atIntrinsic := p.Spot - p.Strike*math.Exp(-p.Rate*p.Expiry)

	for _, price := range []float64{atIntrinsic, atIntrinsic - 1, 0} {
		res, err := ImpliedVol(Call, p, price)
		if err != nil {
			t.Fatalf("price %v: unexpected error: %v", price, err)
		}
		if res.Outcome != IntrinsicFloor || res.Sigma != 0 {
			t.Fatalf("price %v: expected intrinsic floor with sigma 0, got %+v", price, res)
		}
		if res.Err() != nil {
			t.Fatalf("floor result reported error: %v", res.Err())
		}
	}

	// zero price on an out-of-the-money put also floors
	res, err := ImpliedVol(Put, p, 0)
	if err != nil || res.Outcome != IntrinsicFloor {
		t.Fatalf("expected floor for zero-priced OTM put, got %+v, %v", res, err)
	}
}

func TestImpliedVolUnresolved(t *testing.T) {
	for _, typ := range []OptionType{Call, Put} {
		res, err := ImpliedVol(typ, atm, 10*atm.Spot)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome != Unresolved {
			t.Fatalf("expected unresolved for %s, got %+v", typ, res)
		}
		if !errors.Is(res.Err(), ErrNoVolatilitySolution) {
			t.Fatalf("expected ErrNoVolatilitySolution, got %v", res.Err())
		}
	}
}

func TestImpliedVolDeterministicAndBounded(t *testing.T) {
	p := MarketParams{Spot: 100, Strike: 105, Rate: 0.02, Expiry: 0.8, DivYield: 0.01}
	price := mustPrice(t, Put, p.WithVol(0.42))

	first, err := ImpliedVol(Put, p, price)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := ImpliedVol(Put, p, price)
		if again != first {
			t.Fatalf("non-deterministic result: %+v vs %+v", again, first)
		}
	}
	if first.Iterations < 1 || first.Iterations > MaxBisectionIterations {
		t.Fatalf("iterations out of bounds: %d", first.Iterations)
	}
}

func TestImpliedVolInvalidArguments(t *testing.T) {
	tests := []struct {
		name  string
		typ   OptionType
		p     MarketParams
		price float64
	}{
		{"unknown type", OptionType(0), atm, 5},
		{"negative price", Call, atm, -1},
		{"NaN price", Call, atm, math.NaN()},
		{"zero strike", Put, MarketParams{Spot: 100, Expiry: 1}, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ImpliedVol(tc.typ, tc.p, tc.price); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestIVOutcomeString(t *testing.T) {
	for o, want := range map[IVOutcome]string{
		Converged:      "converged",
		IntrinsicFloor: "intrinsic_floor",
		Unresolved:     "unresolved",
	} {
		if o.String() != want {
			t.Fatalf("%d.String() = %q, expected %q", int(o), o.String(), want)
		}
	}
}
