package ui

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"gopower/adapters/excel"
	domainPower "gopower/domain/power"
	"gopower/internal/errors"
	"gopower/internal/metrics"
	"gopower/internal/report"
	"gopower/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 50
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// CalculationRequest is the body of POST /api/calculations. Kind defaults to
// sample_size; achieved_power needs sample_size instead of power_level.
type CalculationRequest struct {
	Kind        models.CalculationKind `json:"kind"`
	Reference   float64                `json:"reference_proportion"`
	Alternative float64                `json:"alternative_proportion"`
	Power       *float64               `json:"power_level"`
	SampleSize  float64                `json:"sample_size"`
	Labels      models.Labels          `json:"labels"`
}

func (s *Server) handleIndex(c *gin.Context) {
	records, err := s.service.History(c.Request.Context(), defaultHistoryLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	data := map[string]interface{}{
		"Title":   "Survey sample sizes",
		"ZAlpha":  s.service.ZAlpha(),
		"Records": records,
	}
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		respondError(c, errors.Wrap(err, "failed to render index"))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleCreateCalculation(c *gin.Context) {
	var req CalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidInputf("body", "invalid request body: %v", err))
		return
	}

	ctx := c.Request.Context()
	switch req.Kind {
	case "", models.KindSampleSize:
		level := s.options.DefaultPower
		if req.Power != nil {
			level = *req.Power
		}
		outcome, err := s.service.SampleSize(ctx, domainPower.SampleSizeRequest{
			Reference:   domainPower.Proportion(req.Reference),
			Alternative: domainPower.Proportion(req.Alternative),
			Power:       domainPower.PowerLevel(level),
		}, req.Labels)
		metrics.ObserveCalculation(string(models.KindSampleSize), err)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, outcome)

	case models.KindAchievedPower:
		outcome, err := s.service.AchievedPower(ctx, req.Reference, req.Alternative, req.SampleSize, req.Labels)
		metrics.ObserveCalculation(string(models.KindAchievedPower), err)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, outcome)

	default:
		respondError(c, errors.InvalidInputf("kind", "unknown calculation kind %q", req.Kind))
	}
}

func (s *Server) handleListCalculations(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, errors.InvalidInputf("limit", "limit must be a non-negative integer, got %q", raw))
			return
		}
		limit = n
	}

	records, err := s.service.History(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"calculations": records,
		"count":        len(records),
	})
}

func (s *Server) handleGetCalculation(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	record, err := s.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// handleCalculationReport renders HTML, or markdown with ?format=md
func (s *Server) handleCalculationReport(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	md, err := s.service.Report(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "md" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
		return
	}
	page, err := report.Page("Sample size report", report.HTML(md))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (s *Server) handleCurveWorkbook(c *gin.Context) {
	reference, err := strconv.ParseFloat(c.Query("reference"), 64)
	if err != nil {
		respondError(c, errors.InvalidInputf("reference", "reference must be a number, got %q", c.Query("reference")))
		return
	}
	alternatives, err := parseFloatList("alternatives", c.Query("alternatives"))
	if err != nil {
		respondError(c, err)
		return
	}
	powers, err := parseFloatList("powers", c.Query("powers"))
	if err != nil {
		respondError(c, err)
		return
	}

	curve, err := s.service.Curve(reference, alternatives, powers)
	metrics.ObserveCalculation("curve", err)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteCurve(&buf, curve); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="sample-size-curve.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.InvalidInputf("id", "invalid calculation id %q", c.Param("id"))
	}
	return id, nil
}

// parseFloatList reads a comma separated list such as "0.55,0.6,0.65"
func parseFloatList(field, raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.InvalidInputf(field, "%s must not be empty", field)
	}
	parts := strings.Split(raw, ",")
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.InvalidInputf(field, "%s: %q is not a number", field, p)
		}
		values = append(values, v)
	}
	return values, nil
}
