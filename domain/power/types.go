package power

import (
	"math"

	"gopower/internal/errors"
)

// Input names used in validation errors and wire formats
const (
	FieldReference   = "reference_proportion"
	FieldAlternative = "alternative_proportion"
	FieldPower       = "power_level"
	FieldSampleSize  = "sample_size"
)

// Proportion is a population proportion in the open interval (0, 1)
type Proportion float64

// Validate checks that the proportion lies strictly between 0 and 1
func (p Proportion) Validate(field string) error {
	v := float64(p)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.InvalidInputf(field, "%s must be a finite number", field)
	}
	if v <= 0 || v >= 1 {
		return errors.InvalidInputf(field, "%s must be in (0,1), got %g", field, v)
	}
	return nil
}

// PowerLevel is the desired probability of rejecting a false null (1 - type II error rate)
type PowerLevel float64

// Validate rejects 0, 1 and anything beyond: their z-scores are infinite or undefined
func (p PowerLevel) Validate() error {
	v := float64(p)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.InvalidInputf(FieldPower, "%s must be a finite number", FieldPower)
	}
	if v <= 0 || v >= 1 {
		return errors.InvalidInputf(FieldPower, "%s must be in (0,1), got %g", FieldPower, v)
	}
	return nil
}

// SampleSizeRequest holds the three inputs of a sample size calculation
type SampleSizeRequest struct {
	Reference   Proportion `json:"reference_proportion" yaml:"reference"`
	Alternative Proportion `json:"alternative_proportion" yaml:"alternative"`
	Power       PowerLevel `json:"power_level" yaml:"power"`
}

// Validate checks every precondition of the calculation
func (r SampleSizeRequest) Validate() error {
	if err := r.Reference.Validate(FieldReference); err != nil {
		return err
	}
	if err := r.Alternative.Validate(FieldAlternative); err != nil {
		return err
	}
	if r.Reference == r.Alternative {
		return errors.InvalidInputf(FieldAlternative,
			"%s must differ from %s (both %g)", FieldAlternative, FieldReference, float64(r.Reference))
	}
	return r.Power.Validate()
}

// Delta is alternative minus reference
func (r SampleSizeRequest) Delta() float64 {
	return float64(r.Alternative) - float64(r.Reference)
}

// SampleSizeResult is the outcome of a sample size calculation.
// SampleSize is the exact real-valued bound; Required rounds it up.
// Capped is set when Required was clamped to MaxSurveySize.
type SampleSizeResult struct {
	Request    SampleSizeRequest `json:"request"`
	ZAlpha     float64           `json:"z_alpha"`
	ZBeta      float64           `json:"z_beta"`
	SampleSize float64           `json:"sample_size"`
	Required   int               `json:"required"`
	Capped     bool              `json:"capped,omitempty"`
}

// NewSampleSizeResult fills Required from the exact sample size
func NewSampleSizeResult(req SampleSizeRequest, zAlpha, zBeta, n float64) SampleSizeResult {
	return SampleSizeResult{
		Request:    req,
		ZAlpha:     zAlpha,
		ZBeta:      zBeta,
		SampleSize: n,
		Required:   RoundUp(n),
		Capped:     n > MaxSurveySize,
	}
}

// MaxSurveySize is the largest survey size RoundUp reports
const MaxSurveySize = math.MaxInt32

// RoundUp converts a real-valued sample size to a usable survey size
func RoundUp(n float64) int {
	if n <= 0 || math.IsNaN(n) {
		return 0
	}
	if n >= MaxSurveySize {
		return MaxSurveySize
	}
	return int(math.Ceil(n))
}

// PowerResult is the power achieved by a given sample size
type PowerResult struct {
	Reference   Proportion `json:"reference_proportion"`
	Alternative Proportion `json:"alternative_proportion"`
	SampleSize  float64    `json:"sample_size"`
	ZAlpha      float64    `json:"z_alpha"`
	Power       float64    `json:"power"`
}
