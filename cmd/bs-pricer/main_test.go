package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/contactkeval/bs-pricer/internal/pricing"
)

func TestRunPrintsPriceAndGreeks(t *testing.T) {
	var buf bytes.Buffer
	p := pricing.MarketParams{Spot: 100, Strike: 100, Rate: 0.05, Vol: 0.2, Expiry: 1}
	if err := run(&buf, "call", p, true, -1); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Price: 10.450584\n", "Delta: 0.636831\n", "Vega: 37.524035\n", "Rho: "} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Implied vol") {
		t.Fatalf("implied vol printed without market price:\n%s", out)
	}
}

func TestRunImpliedVol(t *testing.T) {
	var buf bytes.Buffer
	p := pricing.MarketParams{Spot: 100, Strike: 100, Rate: 0.05, Vol: 0.2, Expiry: 1}
	if err := run(&buf, "put", p, false, 5.573526022256971); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), "Implied vol: 0.200000 (converged") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, "straddle", pricing.MarketParams{Spot: 100, Strike: 100, Vol: 0.2, Expiry: 1}, false, -1); !errors.Is(err, pricing.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if err := run(&buf, "call", pricing.MarketParams{Spot: 100, Strike: 100, Vol: 0.2}, false, -1); !errors.Is(err, pricing.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for T=0, got %v", err)
	}
}
