package power

import (
	"math"
	"math/rand/v2"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"gopower/internal/errors"
)

// RetrodesignRequest describes a study by its hypothesised true effect and
// the standard error of its estimate.
type RetrodesignRequest struct {
	TrueEffect    float64 `json:"true_effect"`
	StandardError float64 `json:"standard_error"`
	Alpha         float64 `json:"alpha"`
	Draws         int     `json:"draws"`
	Seed          uint64  `json:"seed"`
}

// RetrodesignResult reports the design's power together with the Type S
// (wrong sign) probability and the Type M exaggeration ratio.
type RetrodesignResult struct {
	Power        float64 `json:"power"`
	TypeS        float64 `json:"type_s"`
	Exaggeration float64 `json:"exaggeration"`
	Significant  int     `json:"significant_draws"`
}

// DefaultRetrodesignDraws is used when the request leaves Draws at zero
const DefaultRetrodesignDraws = 10000

// Retrodesign computes Type S and Type M errors for a design. Power and
// Type S are closed form; the exaggeration ratio is estimated from
// simulated estimates that reach significance.
func (d *Distributions) Retrodesign(req RetrodesignRequest) (RetrodesignResult, error) {
	if err := req.validate(); err != nil {
		return RetrodesignResult{}, err
	}
	draws := req.Draws
	if draws == 0 {
		draws = DefaultRetrodesignDraws
	}

	z := d.NormalQuantile(1 - req.Alpha/2)
	lambda := req.TrueEffect / req.StandardError

	pHi := 1 - d.NormalCDF(z-lambda)
	pLo := d.NormalCDF(-z - lambda)
	power := pHi + pLo

	// Type S is measured against the sign of the true effect
	typeS := pLo / power
	if req.TrueEffect < 0 {
		typeS = pHi / power
	}

	estimates := distuv.Normal{
		Mu:    req.TrueEffect,
		Sigma: req.StandardError,
		Src:   rand.NewPCG(req.Seed, req.Seed^0x9e3779b97f4a7c15),
	}

	threshold := req.StandardError * z
	ratios := make([]float64, 0, int(float64(draws)*power)+1)
	for i := 0; i < draws; i++ {
		est := estimates.Rand()
		if math.Abs(est) > threshold {
			ratios = append(ratios, math.Abs(est)/math.Abs(req.TrueEffect))
		}
	}

	result := RetrodesignResult{
		Power:       power,
		TypeS:       typeS,
		Significant: len(ratios),
	}
	if len(ratios) > 0 {
		exaggeration, err := stats.Mean(ratios)
		if err != nil {
			return RetrodesignResult{}, errors.Wrap(err, "failed to average exaggeration ratios")
		}
		result.Exaggeration = exaggeration
	}
	return result, nil
}

func (r RetrodesignRequest) validate() error {
	if !isFinite(r.TrueEffect) || r.TrueEffect == 0 {
		return errors.InvalidInputf("true_effect", "true_effect must be a non-zero finite number")
	}
	if !isFinite(r.StandardError) || r.StandardError <= 0 {
		return errors.InvalidInputf("standard_error", "standard_error must be positive, got %g", r.StandardError)
	}
	if !isFinite(r.Alpha) || r.Alpha <= 0 || r.Alpha >= 1 {
		return errors.InvalidInputf("alpha", "alpha must be in (0,1), got %g", r.Alpha)
	}
	if r.Draws < 0 {
		return errors.InvalidInputf("draws", "draws must not be negative, got %d", r.Draws)
	}
	return nil
}
