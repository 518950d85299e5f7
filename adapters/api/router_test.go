package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopower/adapters/stats/power"
	domainPower "gopower/domain/power"
	"gopower/internal/errors"
)

func newTestRouter() *Router {
	return NewRouter(power.NewCalculator())
}

func post(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"z_alpha":1.96`)
}

func TestSampleSize(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		required int
	}{
		{"near half", `{"reference_proportion":0.5,"alternative_proportion":0.6,"power_level":0.8}`, 197},
		{"rare event", `{"reference_proportion":0.04,"alternative_proportion":0.03,"power_level":0.8}`, 19623},
		{"high power", `{"reference_proportion":0.5,"alternative_proportion":0.6,"power_level":0.95}`, 325},
	}

	router := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, router, "/v1/sample-size", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var result domainPower.SampleSizeResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			assert.Equal(t, tt.required, result.Required)
			assert.Equal(t, 1.96, result.ZAlpha)
		})
	}
}

func TestSampleSize_EqualProportions(t *testing.T) {
	rec := post(t, newTestRouter(), "/v1/sample-size",
		`{"reference_proportion":0.5,"alternative_proportion":0.5,"power_level":0.8}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, errors.CodeInvalidInput, body.Code)
	assert.Equal(t, domainPower.FieldAlternative, body.Field)
}

func TestSampleSize_OutOfRange(t *testing.T) {
	rec := post(t, newTestRouter(), "/v1/sample-size",
		`{"reference_proportion":0.5,"alternative_proportion":0.6,"power_level":1}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domainPower.FieldPower, decodeError(t, rec).Field)
}

func TestBadBody(t *testing.T) {
	router := newTestRouter()

	rec := post(t, router, "/v1/sample-size", `{"reference_proportion":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "body", decodeError(t, rec).Field)

	rec = post(t, router, "/v1/sample-size", `{"reference":0.5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAchievedPower(t *testing.T) {
	rec := post(t, newTestRouter(), "/v1/power",
		`{"reference_proportion":0.5,"alternative_proportion":0.6,"sample_size":196.2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result domainPower.PowerResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.InDelta(t, 0.8, result.Power, 0.001)

	rec = post(t, newTestRouter(), "/v1/power",
		`{"reference_proportion":0.5,"alternative_proportion":0.6,"sample_size":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domainPower.FieldSampleSize, decodeError(t, rec).Field)
}

func TestRetrodesign(t *testing.T) {
	rec := post(t, newTestRouter(), "/v1/retrodesign",
		`{"true_effect":0.1,"standard_error":3.28,"seed":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result power.RetrodesignResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.InDelta(t, 0.05, result.Power, 0.002)
	assert.InDelta(t, 0.46, result.TypeS, 0.02)
}

func TestSimulate(t *testing.T) {
	rec := post(t, newTestRouter(), "/v1/simulate",
		`{"reference_proportion":0.5,"alternative_proportion":0.6,"sample_size":197,"trials":4000,"seed":11}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result power.SimulationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 4000, result.Trials)
	assert.InDelta(t, 0.8, result.EmpiricalPower, 0.04)
}

func TestSimulate_RejectsOversizedWorkers(t *testing.T) {
	rec := post(t, newTestRouter(), "/v1/simulate",
		`{"reference_proportion":0.5,"alternative_proportion":0.6,"sample_size":200000,"trials":200000,"workers":200000}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "workers", decodeError(t, rec).Field)
}

func TestCurve(t *testing.T) {
	rec := post(t, newTestRouter(), "/v1/curve",
		`{"reference_proportion":0.5,"alternatives":[0.5,0.6],"powers":[0.8,0.95]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var curve power.Curve
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &curve))
	require.Len(t, curve.Rows, 2)
	assert.NotEmpty(t, curve.Rows[0][0].Err)
	assert.Equal(t, 197, curve.Rows[1][0].Required)
	assert.Equal(t, 325, curve.Rows[1][1].Required)

	rec = post(t, newTestRouter(), "/v1/curve", `{"reference_proportion":0.5,"alternatives":[],"powers":[0.8]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sample-size", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
