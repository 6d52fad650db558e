package pricing

import (
	"errors"
	"math"
	"testing"
)

func mustGreeks(t *testing.T, typ OptionType, p MarketParams) Greeks {
	t.Helper()
	g, err := ComputeGreeks(typ, p)
	if err != nil {
		t.Fatalf("ComputeGreeks(%s, %+v) returned error: %v", typ, p, err)
	}
	return g
}

func TestGreeksSanity(t *testing.T) {
	call := mustGreeks(t, Call, atm)
	put := mustGreeks(t, Put, atm)

	if call.Delta <= 0 || call.Delta >= 1 {
		t.Fatalf("call delta out of (0,1): %v", call.Delta)
	}
	if put.Delta <= -1 || put.Delta >= 0 {
		t.Fatalf("put delta out of (-1,0): %v", put.Delta)
	}
	if call.Gamma <= 0 || call.Vega <= 0 {
		t.Fatalf("expected positive gamma and vega, got gamma=%v vega=%v", call.Gamma, call.Vega)
	}
	if call.Gamma != put.Gamma {
		t.Fatalf("gamma differs between call (%v) and put (%v)", call.Gamma, put.Gamma)
	}
	if call.Vega != put.Vega {
		t.Fatalf("vega differs between call (%v) and put (%v)", call.Vega, put.Vega)
	}
	if call.Rho <= 0 || put.Rho >= 0 {
		t.Fatalf("unexpected rho signs: call=%v put=%v", call.Rho, put.Rho)
	}

	// closed-form reference at d1=0.35, d2=0.15
	if !almostEqual(call.Delta, 0.636830651, 1e-6) {
		t.Fatalf("call delta mismatch: %v", call.Delta)
	}
	if !almostEqual(call.Vega, 37.5240346, 1e-5) {
		t.Fatalf("vega mismatch: %v", call.Vega)
	}
}

func TestGreeksDeltaParity(t *testing.T) {
	p := MarketParams{Spot: 80, Strike: 95, Rate: 0.02, Vol: 0.45, Expiry: 0.3, DivYield: 0.04}
	call := mustGreeks(t, Call, p)
	put := mustGreeks(t, Put, p)

	if want := math.Exp(-p.DivYield * p.Expiry); !almostEqual(call.Delta-put.Delta, want, 1e-12) {
		t.Fatalf("delta parity: call-put=%v, expected %v", call.Delta-put.Delta, want)
	}
}

// Each analytic Greek must agree with a central finite difference of Price.
func TestGreeksMatchFiniteDifferences(t *testing.T) {
	cases := []MarketParams{
		atm,
		{Spot: 100, Strike: 110, Rate: 0.03, Vol: 0.35, Expiry: 0.5, DivYield: 0.02},
		{Spot: 50, Strike: 40, Rate: 0.01, Vol: 0.6, Expiry: 2, DivYield: 0.01},
	}

	for _, p := range cases {
		for _, typ := range []OptionType{Call, Put} {
			g := mustGreeks(t, typ, p)
			price := func(q MarketParams) float64 { return mustPrice(t, typ, q) }

			hS := 1e-2
			up, down := p, p
			up.Spot += hS
			down.Spot -= hS
			assertClose(t, "delta", typ, p, g.Delta, (price(up)-price(down))/(2*hS))
			assertClose(t, "gamma", typ, p, g.Gamma, (price(up)-2*price(p)+price(down))/(hS*hS))

			hV := 1e-4
			assertClose(t, "vega", typ, p, g.Vega, (price(p.WithVol(p.Vol+hV))-price(p.WithVol(p.Vol-hV)))/(2*hV))

			hR := 1e-5
			up, down = p, p
			up.Rate += hR
			down.Rate -= hR
			assertClose(t, "rho", typ, p, g.Rho, (price(up)-price(down))/(2*hR))

			hT := 1e-5
			up, down = p, p
			up.Expiry += hT
			down.Expiry -= hT
			assertClose(t, "theta", typ, p, g.Theta, -(price(up)-price(down))/(2*hT))
		}
	}
}

func assertClose(t *testing.T, name string, typ OptionType, p MarketParams, analytic, numeric float64) {
	t.Helper()
	tol := 1e-4 * math.Max(1, math.Abs(numeric))
	if !almostEqual(analytic, numeric, tol) {
		t.Fatalf("%s mismatch for %s %+v: analytic=%.8f numeric=%.8f", name, typ, p, analytic, numeric)
	}
}

func TestGreeksDegenerateInput(t *testing.T) {
	p := atm.WithVol(0)
	for _, typ := range []OptionType{Call, Put} {
		_, err := ComputeGreeks(typ, p)
		if !errors.Is(err, ErrDegenerateInput) {
			t.Fatalf("expected ErrDegenerateInput for sigma=0 %s, got %v", typ, err)
		}
	}

	p = MarketParams{Spot: 100, Strike: 100, Vol: 1e-13, Expiry: 1e-6}
	if _, err := ComputeGreeks(Call, p); !errors.Is(err, ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput for tiny sigma*sqrt(T), got %v", err)
	}
}

func TestGreeksInvalidArgument(t *testing.T) {
	if _, err := ComputeGreeks(OptionType(3), atm); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := ComputeGreeks(Put, MarketParams{Spot: 100, Strike: 100, Vol: 0.2}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for zero expiry, got %v", err)
	}
}

func TestGreeksFiniteInTails(t *testing.T) {
	for _, k := range []float64{1, 10000} {
		for _, typ := range []OptionType{Call, Put} {
			g := mustGreeks(t, typ, MarketParams{Spot: 100, Strike: k, Rate: 0.05, Vol: 0.1, Expiry: 1.0 / 365})
			if g.Gamma < 0 || g.Vega < 0 {
				t.Fatalf("negative gamma/vega in tail: %+v", g)
			}
		}
	}
}
