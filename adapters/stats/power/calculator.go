package power

import (
	"math"

	domainPower "gopower/domain/power"
	"gopower/internal/errors"
)

const (
	// DefaultZAlpha is the critical value of a 95% two-sided reference band
	DefaultZAlpha = 1.96

	// ConservativeStdDev replaces sqrt(p(1-p)) with its maximum, reached at p = 0.5.
	// Sample sizes computed with it are upper bounds for any true proportion.
	ConservativeStdDev = 0.5
)

// Calculator computes sample sizes and achieved power for a test that
// distinguishes a reference proportion from an alternative one under the
// normal approximation to the binomial.
type Calculator struct {
	zAlpha float64
	dist   *Distributions
}

// NewCalculator returns a calculator using the fixed z_alpha of 1.96
func NewCalculator() *Calculator {
	return &Calculator{
		zAlpha: DefaultZAlpha,
		dist:   NewDistributions(),
	}
}

// NewCalculatorWithZ returns a calculator with an explicit reference critical value
func NewCalculatorWithZ(zAlpha float64) (*Calculator, error) {
	if !isFinite(zAlpha) || zAlpha <= 0 {
		return nil, errors.InvalidInputf("z_alpha", "z_alpha must be a positive finite number, got %g", zAlpha)
	}
	return &Calculator{
		zAlpha: zAlpha,
		dist:   NewDistributions(),
	}, nil
}

// NewCalculatorWithConfidence derives z_alpha from a two-sided confidence level
func NewCalculatorWithConfidence(confidence float64) (*Calculator, error) {
	if !isFinite(confidence) || confidence <= 0 || confidence >= 1 {
		return nil, errors.InvalidInputf("confidence_level", "confidence_level must be in (0,1), got %g", confidence)
	}
	dist := NewDistributions()
	return &Calculator{
		zAlpha: dist.TwoSidedZ(confidence),
		dist:   dist,
	}, nil
}

// ZAlpha returns the reference critical value in use
func (c *Calculator) ZAlpha() float64 {
	return c.zAlpha
}

// ComputeRequiredSampleSize returns the minimum number of observations for
// which a test against reference reaches powerLevel when the true proportion
// is alternative:
//
//	n = ((z_alpha + z_beta) * 0.5 / |alternative - reference|)^2
//
// with z_beta the standard normal quantile of powerLevel.
func (c *Calculator) ComputeRequiredSampleSize(reference, alternative, powerLevel float64) (float64, error) {
	result, err := c.Calculate(domainPower.SampleSizeRequest{
		Reference:   domainPower.Proportion(reference),
		Alternative: domainPower.Proportion(alternative),
		Power:       domainPower.PowerLevel(powerLevel),
	})
	if err != nil {
		return 0, err
	}
	return result.SampleSize, nil
}

// Calculate validates req and returns the full result including z values
func (c *Calculator) Calculate(req domainPower.SampleSizeRequest) (domainPower.SampleSizeResult, error) {
	if err := req.Validate(); err != nil {
		return domainPower.SampleSizeResult{}, err
	}

	zBeta := c.dist.NormalQuantile(float64(req.Power))
	delta := math.Abs(req.Delta())

	// Squaring makes the sign of delta irrelevant, so the two directional
	// branches of the textbook formula collapse into one.
	root := (c.zAlpha + zBeta) * ConservativeStdDev / delta
	n := root * root

	return domainPower.NewSampleSizeResult(req, c.zAlpha, zBeta, n), nil
}

// AchievedPower inverts the sample size formula: the power reached with
// sampleSize observations when the true proportion is alternative.
func (c *Calculator) AchievedPower(reference, alternative, sampleSize float64) (domainPower.PowerResult, error) {
	ref := domainPower.Proportion(reference)
	alt := domainPower.Proportion(alternative)
	if err := ref.Validate(domainPower.FieldReference); err != nil {
		return domainPower.PowerResult{}, err
	}
	if err := alt.Validate(domainPower.FieldAlternative); err != nil {
		return domainPower.PowerResult{}, err
	}
	if ref == alt {
		return domainPower.PowerResult{}, errors.InvalidInputf(domainPower.FieldAlternative,
			"%s must differ from %s", domainPower.FieldAlternative, domainPower.FieldReference)
	}
	if !isFinite(sampleSize) || sampleSize <= 0 {
		return domainPower.PowerResult{}, errors.InvalidInputf(domainPower.FieldSampleSize,
			"%s must be a positive finite number, got %g", domainPower.FieldSampleSize, sampleSize)
	}

	delta := math.Abs(alternative - reference)
	zBeta := delta*math.Sqrt(sampleSize)/ConservativeStdDev - c.zAlpha

	return domainPower.PowerResult{
		Reference:   ref,
		Alternative: alt,
		SampleSize:  sampleSize,
		ZAlpha:      c.zAlpha,
		Power:       c.dist.NormalCDF(zBeta),
	}, nil
}

var defaultCalculator = NewCalculator()

// ComputeRequiredSampleSize runs the default calculator (z_alpha = 1.96)
func ComputeRequiredSampleSize(reference, alternative, powerLevel float64) (float64, error) {
	return defaultCalculator.ComputeRequiredSampleSize(reference, alternative, powerLevel)
}
