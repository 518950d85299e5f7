package power

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions wraps the standard normal functions the calculators need.
// It is stateless and safe for concurrent use.
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// NormalCDF computes the cumulative distribution function of the standard normal
func (d *Distributions) NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile computes the inverse CDF of the standard normal.
// p must lie in (0,1); the boundaries map to infinities.
func (d *Distributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// TwoSidedZ returns the critical value of a two-sided test at the given
// confidence level, e.g. 0.95 -> 1.959964.
func (d *Distributions) TwoSidedZ(confidence float64) float64 {
	alpha := 1 - confidence
	return d.NormalQuantile(1 - alpha/2)
}

// isFinite reports whether x is neither NaN nor infinite
func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
