package report

import (
	"strings"
	"testing"

	"gopower/adapters/stats/power"
	domainPower "gopower/domain/power"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(t *testing.T) domainPower.SampleSizeResult {
	t.Helper()
	result, err := power.NewCalculator().Calculate(domainPower.SampleSizeRequest{
		Reference:   0.04,
		Alternative: 0.03,
		Power:       0.8,
	})
	require.NoError(t, err)
	return result
}

func TestBuild_NarratesCalculation(t *testing.T) {
	md := Build(Input{Result: sampleResult(t)})

	assert.Contains(t, md, "# Sample size for detecting a change in proportion")
	assert.Contains(t, md, "below the reference value 4%")
	assert.Contains(t, md, "| Target power | 0.8 |")
	assert.Contains(t, md, "**19623** responses")
	assert.NotContains(t, md, "Simulation check")
}

func TestBuild_WithSimulation(t *testing.T) {
	sim := &power.SimulationResult{Trials: 100, Rejections: 99, EmpiricalPower: 0.99, MonteCarloSE: 0.01}
	md := Build(Input{Title: "Churn survey", Result: sampleResult(t), Simulation: sim})

	assert.True(t, strings.HasPrefix(md, "# Churn survey\n"))
	assert.Contains(t, md, "## Simulation check")
	assert.Contains(t, md, "0.990 ± 0.010")
}

func TestHTML_RendersTablesAndCode(t *testing.T) {
	out := string(HTML(Build(Input{Result: sampleResult(t)})))

	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<code>")
	assert.Contains(t, out, "<strong>19623</strong>")
}

func TestPage_EscapesTitle(t *testing.T) {
	out, err := Page("<b>x</b>", []byte("<p>body</p>"))
	require.NoError(t, err)
	page := string(out)
	assert.Contains(t, page, "<title>&lt;b&gt;x&lt;/b&gt;</title>")
	assert.Contains(t, page, "<p>body</p>")
}

func TestBuild_CappedSurvey(t *testing.T) {
	result, err := power.NewCalculator().Calculate(domainPower.SampleSizeRequest{
		Reference:   0.5,
		Alternative: 0.5000001,
		Power:       0.8,
	})
	require.NoError(t, err)
	require.True(t, result.Capped)

	md := Build(Input{Result: result})
	assert.Contains(t, md, "more than 2147483647 responses")
	assert.NotContains(t, md, "**2147483647**")
}
