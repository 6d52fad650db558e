package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/contactkeval/bs-pricer/internal/pricing"
)

func main() {
	optType := flag.String("type", "call", "option type: call or put")
	spot := flag.Float64("S", 0, "spot price")
	strike := flag.Float64("K", 0, "strike price")
	rate := flag.Float64("r", 0, "risk-free rate, continuously compounded")
	sigma := flag.Float64("sigma", 0, "volatility, annualised")
	expiry := flag.Float64("T", 0, "time to expiry in years")
	div := flag.Float64("q", 0, "continuous dividend yield")
	showGreeks := flag.Bool("show-greeks", false, "print the Greeks")
	marketPrice := flag.Float64("market-price", -1, "solve implied volatility for this price")
	flag.Parse()

	if err := run(os.Stdout, *optType, pricing.MarketParams{
		Spot:     *spot,
		Strike:   *strike,
		Rate:     *rate,
		Vol:      *sigma,
		Expiry:   *expiry,
		DivYield: *div,
	}, *showGreeks, *marketPrice); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(w io.Writer, optType string, p pricing.MarketParams, showGreeks bool, marketPrice float64) error {
	t, err := pricing.ParseOptionType(optType)
	if err != nil {
		return err
	}

	price, err := pricing.Price(t, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Price: %.6f\n", price)

	if showGreeks {
		g, err := pricing.ComputeGreeks(t, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Delta: %.6f\n", g.Delta)
		fmt.Fprintf(w, "Gamma: %.6f\n", g.Gamma)
		fmt.Fprintf(w, "Theta: %.6f\n", g.Theta)
		fmt.Fprintf(w, "Vega: %.6f\n", g.Vega)
		fmt.Fprintf(w, "Rho: %.6f\n", g.Rho)
	}

	if marketPrice >= 0 {
		res, err := pricing.ImpliedVol(t, p, marketPrice)
		if err != nil {
			return err
		}
		switch res.Outcome {
		case pricing.Unresolved:
			fmt.Fprintf(w, "Implied vol: unresolved (%v)\n", res.Err())
		default:
			fmt.Fprintf(w, "Implied vol: %.6f (%s, %d iterations)\n", res.Sigma, res.Outcome, res.Iterations)
		}
	}
	return nil
}
