package app

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"gopower/adapters/memory"
	"gopower/adapters/stats/power"
	domainPower "gopower/domain/power"
	"gopower/internal"
	"gopower/internal/errors"
	"gopower/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementation for testing
type MockCalculationRepository struct {
	mock.Mock
}

func (m *MockCalculationRepository) Save(ctx context.Context, record *models.CalculationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockCalculationRepository) Get(ctx context.Context, id uuid.UUID) (*models.CalculationRecord, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*models.CalculationRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCalculationRepository) List(ctx context.Context, limit int) ([]*models.CalculationRecord, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*models.CalculationRecord), args.Error(1)
}

var testDefaults = SimulationDefaults{Trials: 400, Workers: 2, Seed: 42}

func newTestService() *PowerService {
	return NewPowerService(power.NewCalculator(), memory.NewCalculationRepository(), testDefaults)
}

func TestPowerService_SampleSizeStoresRecord(t *testing.T) {
	repo := new(MockCalculationRepository)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(r *models.CalculationRecord) bool {
		return r.Kind == models.KindSampleSize && r.Required == 197 && r.Labels["survey"] == "pilot"
	})).Return(nil).Once()

	svc := NewPowerService(power.NewCalculator(), repo, testDefaults)
	out, err := svc.SampleSize(context.Background(), domainPower.SampleSizeRequest{
		Reference: 0.5, Alternative: 0.6, Power: 0.8,
	}, models.Labels{"survey": "pilot"})
	require.NoError(t, err)

	assert.Equal(t, 197, out.Result.Required)
	repo.AssertExpectations(t)
}

func TestPowerService_InvalidInputNotStored(t *testing.T) {
	repo := new(MockCalculationRepository)
	svc := NewPowerService(power.NewCalculator(), repo, testDefaults)

	_, err := svc.SampleSize(context.Background(), domainPower.SampleSizeRequest{
		Reference: 0.5, Alternative: 0.5, Power: 0.8,
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPowerService_StoreFailureIsDatabaseError(t *testing.T) {
	repo := new(MockCalculationRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(fmt.Errorf("connection refused"))

	svc := NewPowerService(power.NewCalculator(), repo, testDefaults)
	_, err := svc.AchievedPower(context.Background(), 0.5, 0.6, 197, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}

func TestPowerService_HistoryAndReport(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	out, err := svc.SampleSize(ctx, domainPower.SampleSizeRequest{Reference: 0.5, Alternative: 0.6, Power: 0.95}, nil)
	require.NoError(t, err)
	_, err = svc.AchievedPower(ctx, 0.5, 0.6, 100, nil)
	require.NoError(t, err)

	history, err := svc.History(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	md, err := svc.Report(ctx, out.RecordID)
	require.NoError(t, err)
	assert.Contains(t, md, "**325** responses")
	assert.Contains(t, md, "## Simulation check")
}

func TestPowerService_ReportRejectsPowerRecords(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	out, err := svc.AchievedPower(ctx, 0.5, 0.6, 100, nil)
	require.NoError(t, err)

	_, err = svc.Report(ctx, out.RecordID)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = svc.Report(ctx, uuid.New())
	assert.True(t, errors.IsNotFound(err))
}

func TestPowerService_SimulateUsesDefaults(t *testing.T) {
	svc := newTestService()
	res, err := svc.Simulate(context.Background(), power.SimulationRequest{
		Reference: 0.5, Alternative: 0.6, SampleSize: 197,
	})
	require.NoError(t, err)
	assert.Equal(t, testDefaults.Trials, res.Trials)
}

func TestPowerService_RetrodesignAndCurve(t *testing.T) {
	svc := newTestService()

	rd, err := svc.Retrodesign(power.RetrodesignRequest{TrueEffect: 2.8, StandardError: 1, Alpha: 0.05, Draws: 2000})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, rd.Power, 0.01)

	curve, err := svc.Curve(0.5, []float64{0.6}, []float64{0.8})
	require.NoError(t, err)
	assert.Equal(t, 197, curve.Rows[0][0].Required)
	assert.Equal(t, 1.96, svc.ZAlpha())
}

func TestPowerService_Batch(t *testing.T) {
	svc := newTestService()
	outcomes, err := svc.Batch(context.Background(), []domainPower.Scenario{
		{Name: "coin", Request: domainPower.SampleSizeRequest{Reference: 0.5, Alternative: 0.6, Power: 0.8}},
		{Name: "bad", Request: domainPower.SampleSizeRequest{Reference: 0.5, Alternative: 0.6, Power: 1}},
		{Name: "rare", Request: domainPower.SampleSizeRequest{Reference: 0.04, Alternative: 0.03, Power: 0.8}},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, 197, outcomes[0].Result.Required)
	assert.Nil(t, outcomes[1].Result)
	assert.Contains(t, outcomes[1].Error, "power_level")
	assert.Equal(t, 19623, outcomes[2].Result.Required)

	history, err := svc.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return &buf
}

func TestPowerService_BatchLogsRejectedScenarios(t *testing.T) {
	buf := captureLog(t)
	svc := newTestService()
	svc.logger = internal.NewLogger("PowerService", internal.LogLevelDebug)

	_, err := svc.Batch(context.Background(), []domainPower.Scenario{
		{Name: "bad", Request: domainPower.SampleSizeRequest{Reference: 0.5, Alternative: 0.5, Power: 0.8}},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `[PowerService] scenario "bad" rejected:`)
	assert.Contains(t, buf.String(), "1 invalid")
}

func TestPowerService_CappedReportSkipsSimulation(t *testing.T) {
	buf := captureLog(t)
	svc := newTestService()
	svc.logger = internal.NewLogger("PowerService", internal.LogLevelWarn)
	ctx := context.Background()

	out, err := svc.SampleSize(ctx, domainPower.SampleSizeRequest{Reference: 0.5, Alternative: 0.5000001, Power: 0.8}, nil)
	require.NoError(t, err)
	assert.True(t, out.Result.Capped)
	assert.Contains(t, buf.String(), "exceeds the largest survey size")

	md, err := svc.Report(ctx, out.RecordID)
	require.NoError(t, err)
	assert.Contains(t, md, "too small to detect")
	assert.NotContains(t, md, "Simulation check")
}
