package report

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strings"

	"gopower/adapters/stats/power"
	domainPower "gopower/domain/power"
	"gopower/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Input gathers everything a report narrates. Simulation is optional.
type Input struct {
	Title      string
	Result     domainPower.SampleSizeResult
	Simulation *power.SimulationResult
}

// Build writes the worked example for one sample size calculation as markdown
func Build(in Input) string {
	req := in.Result.Request
	ref := float64(req.Reference)
	alt := float64(req.Alternative)
	delta := alt - ref

	title := in.Title
	if title == "" {
		title = "Sample size for detecting a change in proportion"
	}

	direction := "above"
	if delta < 0 {
		direction = "below"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	fmt.Fprintf(&b, "We expect the true proportion to be %s, %s the reference value %s. ",
		pct(alt), direction, pct(ref))
	fmt.Fprintf(&b, "The survey should detect that difference with probability %s.\n\n", pct(float64(req.Power)))

	b.WriteString("## Inputs\n\n")
	b.WriteString("| Quantity | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Reference proportion | %g |\n", ref)
	fmt.Fprintf(&b, "| Alternative proportion | %g |\n", alt)
	fmt.Fprintf(&b, "| Difference | %+.4g |\n", delta)
	fmt.Fprintf(&b, "| Target power | %g |\n", float64(req.Power))
	fmt.Fprintf(&b, "| z (reference band) | %.4f |\n", in.Result.ZAlpha)
	fmt.Fprintf(&b, "| z (power quantile) | %.4f |\n\n", in.Result.ZBeta)

	b.WriteString("## Calculation\n\n")
	b.WriteString("The uncertainty band around the reference and the band at the power quantile ")
	b.WriteString("around the alternative first touch when\n\n")
	b.WriteString("```\nn = ((z_alpha + z_beta) * 0.5 / |alternative - reference|)^2\n```\n\n")
	fmt.Fprintf(&b, "n = ((%.4f + %.4f) * 0.5 / %.4g)^2 = **%.2f**\n\n",
		in.Result.ZAlpha, in.Result.ZBeta, math.Abs(delta), in.Result.SampleSize)
	if in.Result.Capped {
		fmt.Fprintf(&b, "That is more than %d responses, the largest survey size reported. ", domainPower.MaxSurveySize)
		b.WriteString("The difference is too small to detect with a survey.\n\n")
	} else {
		fmt.Fprintf(&b, "Rounded up, the survey needs **%d** responses.\n\n", in.Result.Required)
	}
	b.WriteString("The standard deviation of a proportion is replaced by its maximum, 0.5, ")
	b.WriteString("so the figure is an upper bound whatever the true proportion is.\n\n")

	if sim := in.Simulation; sim != nil {
		b.WriteString("## Simulation check\n\n")
		fmt.Fprintf(&b, "%d synthetic surveys of %d responses were drawn at the alternative proportion ",
			sim.Trials, in.Result.Required)
		b.WriteString("and each was tested against the reference.\n\n")
		b.WriteString("| Statistic | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| Empirical power | %.3f ± %.3f |\n", sim.EmpiricalPower, sim.MonteCarloSE)
		fmt.Fprintf(&b, "| Mean estimate | %.4f |\n", sim.MeanEstimate)
		fmt.Fprintf(&b, "| Std. dev. of estimate | %.4f |\n", sim.StdDevEstimate)
		fmt.Fprintf(&b, "| 95%% range of estimates | %.4f to %.4f |\n\n", sim.LowerEstimate, sim.UpperEstimate)
	}

	return b.String()
}

// HTML renders a markdown report as an HTML fragment
func HTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// Page wraps a rendered report in a minimal standalone document
func Page(title string, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body)})
	if err != nil {
		return nil, errors.Wrap(err, "failed to render report page")
	}
	return buf.Bytes(), nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head><body>
{{.Body}}</body></html>
`))

func pct(p float64) string {
	return fmt.Sprintf("%.4g%%", p*100)
}
