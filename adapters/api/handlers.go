package api

import (
	"net/http"

	"gopower/adapters/stats/power"
	domainPower "gopower/domain/power"
	"gopower/internal/metrics"
)

// AchievedPowerRequest is the body of POST /v1/power
type AchievedPowerRequest struct {
	Reference   float64 `json:"reference_proportion"`
	Alternative float64 `json:"alternative_proportion"`
	SampleSize  float64 `json:"sample_size"`
}

// CurveRequest is the body of POST /v1/curve
type CurveRequest struct {
	Reference    float64   `json:"reference_proportion"`
	Alternatives []float64 `json:"alternatives"`
	Powers       []float64 `json:"powers"`
}

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"z_alpha": r.calc.ZAlpha(),
	})
}

func (r *Router) handleSampleSize(w http.ResponseWriter, req *http.Request) {
	var body domainPower.SampleSizeRequest
	if err := decode(w, req, &body); err != nil {
		writeError(w, err)
		return
	}

	result, err := r.calc.Calculate(body)
	metrics.ObserveCalculation("sample_size", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handleAchievedPower(w http.ResponseWriter, req *http.Request) {
	var body AchievedPowerRequest
	if err := decode(w, req, &body); err != nil {
		writeError(w, err)
		return
	}

	result, err := r.calc.AchievedPower(body.Reference, body.Alternative, body.SampleSize)
	metrics.ObserveCalculation("achieved_power", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handleRetrodesign(w http.ResponseWriter, req *http.Request) {
	var body power.RetrodesignRequest
	if err := decode(w, req, &body); err != nil {
		writeError(w, err)
		return
	}

	result, err := r.dist.Retrodesign(body)
	metrics.ObserveCalculation("retrodesign", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handleSimulate(w http.ResponseWriter, req *http.Request) {
	var body power.SimulationRequest
	if err := decode(w, req, &body); err != nil {
		writeError(w, err)
		return
	}

	result, err := r.calc.Simulate(req.Context(), body)
	metrics.ObserveCalculation("simulation", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handleCurve(w http.ResponseWriter, req *http.Request) {
	var body CurveRequest
	if err := decode(w, req, &body); err != nil {
		writeError(w, err)
		return
	}

	curve, err := r.calc.Curve(body.Reference, body.Alternatives, body.Powers)
	metrics.ObserveCalculation("curve", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, curve)
}
