package main

import (
	"math"
	"testing"

	"github.com/contactkeval/bs-pricer/internal/rank"
)

func TestParseWeights(t *testing.T) {
	w, err := parseWeights("1y=0.5,6m=0.3,vol=0.15,div=0.05", rank.DefaultStockWeights())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if math.Abs(w.Return1Y-0.5) > 1e-12 || math.Abs(w.Dividend-0.05) > 1e-12 {
		t.Fatalf("unexpected weights %+v", w)
	}

	w, err = parseWeights("1y=2", rank.StockWeights{Return6M: 1, Stability: 1})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if math.Abs(w.Return1Y-0.5) > 1e-12 || math.Abs(w.Return6M-0.25) > 1e-12 {
		t.Fatalf("expected normalised weights, got %+v", w)
	}

	for _, bad := range []string{"1y", "6m=abc", "1y=0,6m=0,vol=0,div=0"} {
		if _, err := parseWeights(bad, rank.DefaultStockWeights()); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
