package app

import (
	"context"

	"gopower/adapters/stats/power"
	domainPower "gopower/domain/power"
	"gopower/internal"
	"gopower/internal/errors"
	"gopower/internal/report"
	"gopower/models"
	"gopower/ports"

	"github.com/google/uuid"
)

// SimulationDefaults fill the gaps of a simulation request
type SimulationDefaults struct {
	Trials  int
	Workers int
	Seed    uint64
}

// PowerService is the application entry point for sample size, power and
// design-analysis calculations. It records every calculation it performs.
type PowerService struct {
	calc        *power.Calculator
	dist        *power.Distributions
	repo        ports.CalculationRepository
	simDefaults SimulationDefaults
	logger      *internal.Logger
}

// SampleSizeOutcome is a calculated and stored sample size
type SampleSizeOutcome struct {
	RecordID uuid.UUID                    `json:"id"`
	Result   domainPower.SampleSizeResult `json:"result"`
}

// PowerOutcome is a calculated and stored achieved power
type PowerOutcome struct {
	RecordID uuid.UUID               `json:"id"`
	Result   domainPower.PowerResult `json:"result"`
}

// NewPowerService creates a power service
func NewPowerService(calc *power.Calculator, repo ports.CalculationRepository, simDefaults SimulationDefaults) *PowerService {
	return &PowerService{
		calc:        calc,
		dist:        power.NewDistributions(),
		repo:        repo,
		simDefaults: simDefaults,
		logger:      internal.NewDefaultLogger("PowerService"),
	}
}

// ZAlpha exposes the calculator's reference critical value
func (s *PowerService) ZAlpha() float64 {
	return s.calc.ZAlpha()
}

// SampleSize computes the required sample size and stores the calculation
func (s *PowerService) SampleSize(ctx context.Context, req domainPower.SampleSizeRequest, labels models.Labels) (*SampleSizeOutcome, error) {
	result, err := s.calc.Calculate(req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sample size for reference=%g alternative=%g power=%g: n=%.2f (survey %d)",
		float64(req.Reference), float64(req.Alternative), float64(req.Power), result.SampleSize, result.Required)
	if result.Capped {
		s.logger.Warn("sample size %.4g exceeds the largest survey size, recorded as %d", result.SampleSize, result.Required)
	}

	record := &models.CalculationRecord{
		Kind:        models.KindSampleSize,
		Reference:   float64(req.Reference),
		Alternative: float64(req.Alternative),
		Power:       float64(req.Power),
		ZAlpha:      result.ZAlpha,
		SampleSize:  result.SampleSize,
		Required:    result.Required,
		Labels:      labels,
	}
	if err := s.save(ctx, record); err != nil {
		return nil, err
	}

	return &SampleSizeOutcome{RecordID: record.ID, Result: result}, nil
}

// AchievedPower computes the power reached by sampleSize observations and stores it
func (s *PowerService) AchievedPower(ctx context.Context, reference, alternative, sampleSize float64, labels models.Labels) (*PowerOutcome, error) {
	result, err := s.calc.AchievedPower(reference, alternative, sampleSize)
	if err != nil {
		return nil, err
	}

	s.logger.Info("achieved power for reference=%g alternative=%g n=%g: %.4f",
		reference, alternative, sampleSize, result.Power)

	record := &models.CalculationRecord{
		Kind:        models.KindAchievedPower,
		Reference:   reference,
		Alternative: alternative,
		Power:       result.Power,
		ZAlpha:      result.ZAlpha,
		SampleSize:  sampleSize,
		Required:    domainPower.RoundUp(sampleSize),
		Labels:      labels,
	}
	if err := s.save(ctx, record); err != nil {
		return nil, err
	}

	return &PowerOutcome{RecordID: record.ID, Result: result}, nil
}

// Batch computes every scenario. Invalid scenarios are reported in their
// outcome and do not stop the batch; a storage failure does.
func (s *PowerService) Batch(ctx context.Context, scenarios []domainPower.Scenario) ([]domainPower.BatchOutcome, error) {
	outcomes := make([]domainPower.BatchOutcome, len(scenarios))
	failed := 0
	for i, sc := range scenarios {
		outcomes[i].Scenario = sc
		out, err := s.SampleSize(ctx, sc.Request, models.Labels{"scenario": sc.Name, "source": "batch"})
		if err != nil {
			if !errors.IsInvalidInput(err) {
				return nil, err
			}
			s.logger.Debug("scenario %q rejected: %v", sc.Name, err)
			outcomes[i].Error = err.Error()
			failed++
			continue
		}
		result := out.Result
		outcomes[i].Result = &result
	}
	s.logger.Info("batch of %d scenarios done, %d invalid", len(scenarios), failed)
	return outcomes, nil
}

// Retrodesign reports Type S and Type M errors of a design
func (s *PowerService) Retrodesign(req power.RetrodesignRequest) (power.RetrodesignResult, error) {
	if req.Seed == 0 {
		req.Seed = s.simDefaults.Seed
	}
	return s.dist.Retrodesign(req)
}

// Simulate runs the Monte Carlo power check, filling unset fields from defaults
func (s *PowerService) Simulate(ctx context.Context, req power.SimulationRequest) (power.SimulationResult, error) {
	if req.Trials == 0 {
		req.Trials = s.simDefaults.Trials
	}
	if req.Workers == 0 {
		req.Workers = s.simDefaults.Workers
	}
	if req.Seed == 0 {
		req.Seed = s.simDefaults.Seed
	}

	result, err := s.calc.Simulate(ctx, req)
	if err != nil {
		return power.SimulationResult{}, err
	}

	s.logger.Info("simulated %d surveys of n=%d: empirical power %.3f (±%.3f)",
		result.Trials, req.SampleSize, result.EmpiricalPower, result.MonteCarloSE)
	return result, nil
}

// Curve computes a grid of sample sizes
func (s *PowerService) Curve(reference float64, alternatives, powers []float64) (*power.Curve, error) {
	return s.calc.Curve(reference, alternatives, powers)
}

// History lists stored calculations, newest first
func (s *PowerService) History(ctx context.Context, limit int) ([]*models.CalculationRecord, error) {
	return s.repo.List(ctx, limit)
}

// Get returns one stored calculation
func (s *PowerService) Get(ctx context.Context, id uuid.UUID) (*models.CalculationRecord, error) {
	return s.repo.Get(ctx, id)
}

// Report renders the worked-example report of a stored sample size calculation.
// The simulation check is re-run with the service defaults unless the
// survey size was capped.
func (s *PowerService) Report(ctx context.Context, id uuid.UUID) (string, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if record.Kind != models.KindSampleSize {
		return "", errors.InvalidInputf("id", "reports are only available for sample size calculations")
	}

	calc, err := power.NewCalculatorWithZ(record.ZAlpha)
	if err != nil {
		return "", err
	}
	result, err := calc.Calculate(domainPower.SampleSizeRequest{
		Reference:   domainPower.Proportion(record.Reference),
		Alternative: domainPower.Proportion(record.Alternative),
		Power:       domainPower.PowerLevel(record.Power),
	})
	if err != nil {
		return "", err
	}

	return s.buildReport(ctx, calc, result)
}

// ReportFor renders the report for an ad-hoc request without storing it
func (s *PowerService) ReportFor(ctx context.Context, req domainPower.SampleSizeRequest) (string, error) {
	result, err := s.calc.Calculate(req)
	if err != nil {
		return "", err
	}
	return s.buildReport(ctx, s.calc, result)
}

func (s *PowerService) buildReport(ctx context.Context, calc *power.Calculator, result domainPower.SampleSizeResult) (string, error) {
	if result.Capped {
		return report.Build(report.Input{Result: result}), nil
	}

	sim, err := calc.Simulate(ctx, power.SimulationRequest{
		Reference:   float64(result.Request.Reference),
		Alternative: float64(result.Request.Alternative),
		SampleSize:  result.Required,
		Trials:      s.simDefaults.Trials,
		Workers:     s.simDefaults.Workers,
		Seed:        s.simDefaults.Seed,
	})
	if err != nil {
		return "", err
	}

	return report.Build(report.Input{
		Result:     result,
		Simulation: &sim,
	}), nil
}

func (s *PowerService) save(ctx context.Context, record *models.CalculationRecord) error {
	if err := s.repo.Save(ctx, record); err != nil {
		s.logger.Error("failed to store %s calculation: %v", record.Kind, err)
		return errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to store calculation")
	}
	return nil
}
