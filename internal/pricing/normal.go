package pricing

import "math"

const sqrt2Pi = 2.5066282746310002

// NormPDF calculates the probability density function (PDF) of the standard normal distribution.
// The formula used is: exp(-0.5 * x^2) / sqrt(2π)
func NormPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// NormCDF computes the cumulative distribution function of the standard normal
// distribution using the error function relation Φ(x) = 0.5·(1 + erf(x/√2)).
//
// It is evaluated through the complementary error function, 0.5·erfc(-x/√2),
// which is the same quantity without the cancellation 1 + erf suffers for
// large negative x, so the lower tail keeps full relative precision.
func NormCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
