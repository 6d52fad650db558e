package pricing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
)

func TestNormMatchesReferenceDistribution(t *testing.T) {
	for x := -10.0; x <= 10.0; x += 0.25 {
		if got, want := NormCDF(x), distuv.UnitNormal.CDF(x); !almostEqual(got, want, 1e-15) {
			t.Fatalf("NormCDF(%v) = %v, reference %v", x, got, want)
		}
		if got, want := NormPDF(x), distuv.UnitNormal.Prob(x); !almostEqual(got, want, 1e-15) {
			t.Fatalf("NormPDF(%v) = %v, reference %v", x, got, want)
		}
	}
}

func TestNormCDFTails(t *testing.T) {
	lower := NormCDF(-10)
	if lower <= 0 {
		t.Fatalf("NormCDF(-10) underflowed to %v", lower)
	}
	// Φ(-10) = 7.619853024160527e-24
	if rel := math.Abs(lower-7.619853024160527e-24) / 7.619853024160527e-24; rel > 1e-10 {
		t.Fatalf("NormCDF(-10) = %v, relative error %v", lower, rel)
	}
	if upper := NormCDF(10); upper > 1 || upper < 1-1e-15 {
		t.Fatalf("NormCDF(10) = %v", upper)
	}
	if NormCDF(0) != 0.5 {
		t.Fatalf("NormCDF(0) = %v", NormCDF(0))
	}
	if NormPDF(10) <= 0 || NormPDF(-10) != NormPDF(10) {
		t.Fatalf("NormPDF tails: %v %v", NormPDF(-10), NormPDF(10))
	}
}

func TestNormCDFMonotone(t *testing.T) {
	prev := 0.0
	for x := -12.0; x <= 12.0; x += 0.01 {
		v := NormCDF(x)
		if v < prev || v < 0 || v > 1 {
			t.Fatalf("NormCDF not monotone in [0,1] at x=%v: %v (prev %v)", x, v, prev)
		}
		prev = v
	}
}
