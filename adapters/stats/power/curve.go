package power

import (
	domainPower "gopower/domain/power"
	"gopower/internal/errors"
)

const maxCurveCells = 10000

// CurveCell is one grid entry. Err is set instead of SampleSize when the
// pair of inputs is invalid (e.g. the alternative equals the reference).
type CurveCell struct {
	Alternative float64 `json:"alternative_proportion"`
	Power       float64 `json:"power_level"`
	SampleSize  float64 `json:"sample_size,omitempty"`
	Required    int     `json:"required,omitempty"`
	Err         string  `json:"error,omitempty"`
}

// Curve is a grid of sample sizes: one row per alternative, one column per power level
type Curve struct {
	Reference    float64       `json:"reference_proportion"`
	ZAlpha       float64       `json:"z_alpha"`
	Alternatives []float64     `json:"alternatives"`
	Powers       []float64     `json:"powers"`
	Rows         [][]CurveCell `json:"rows"`
}

// Curve computes the sample size for every (alternative, power) pair
func (c *Calculator) Curve(reference float64, alternatives, powers []float64) (*Curve, error) {
	if err := domainPower.Proportion(reference).Validate(domainPower.FieldReference); err != nil {
		return nil, err
	}
	if len(alternatives) == 0 || len(powers) == 0 {
		return nil, errors.InvalidInput("curve needs at least one alternative and one power level")
	}
	if len(alternatives)*len(powers) > maxCurveCells {
		return nil, errors.InvalidInputf("alternatives", "curve is limited to %d cells", maxCurveCells)
	}

	curve := &Curve{
		Reference:    reference,
		ZAlpha:       c.zAlpha,
		Alternatives: alternatives,
		Powers:       powers,
		Rows:         make([][]CurveCell, len(alternatives)),
	}

	for i, alt := range alternatives {
		row := make([]CurveCell, len(powers))
		for j, pw := range powers {
			cell := CurveCell{Alternative: alt, Power: pw}
			result, err := c.Calculate(domainPower.SampleSizeRequest{
				Reference:   domainPower.Proportion(reference),
				Alternative: domainPower.Proportion(alt),
				Power:       domainPower.PowerLevel(pw),
			})
			if err != nil {
				cell.Err = err.Error()
			} else {
				cell.SampleSize = result.SampleSize
				cell.Required = result.Required
			}
			row[j] = cell
		}
		curve.Rows[i] = row
	}
	return curve, nil
}
