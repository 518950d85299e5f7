package power

import (
	"math"
	"testing"

	"gopower/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleSizeRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     SampleSizeRequest
		field   string
		wantErr bool
	}{
		{"valid increase", SampleSizeRequest{0.5, 0.6, 0.8}, "", false},
		{"valid decrease", SampleSizeRequest{0.04, 0.03, 0.8}, "", false},
		{"reference zero", SampleSizeRequest{0, 0.6, 0.8}, FieldReference, true},
		{"reference one", SampleSizeRequest{1, 0.6, 0.8}, FieldReference, true},
		{"alternative negative", SampleSizeRequest{0.5, -0.1, 0.8}, FieldAlternative, true},
		{"equal proportions", SampleSizeRequest{0.3, 0.3, 0.8}, FieldAlternative, true},
		{"power zero", SampleSizeRequest{0.5, 0.6, 0}, FieldPower, true},
		{"power one", SampleSizeRequest{0.5, 0.6, 1}, FieldPower, true},
		{"power NaN", SampleSizeRequest{0.5, 0.6, PowerLevel(math.NaN())}, FieldPower, true},
		{"reference Inf", SampleSizeRequest{Proportion(math.Inf(1)), 0.6, 0.8}, FieldReference, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsInvalidInput(err))
			assert.Equal(t, tt.field, errors.GetField(err))
		})
	}
}

func TestSampleSizeRequest_Delta(t *testing.T) {
	assert.InDelta(t, 0.1, SampleSizeRequest{0.5, 0.6, 0.8}.Delta(), 1e-12)
	assert.InDelta(t, -0.01, SampleSizeRequest{0.04, 0.03, 0.8}.Delta(), 1e-12)
}

func TestRoundUp(t *testing.T) {
	assert.Equal(t, 197, RoundUp(196.2))
	assert.Equal(t, 196, RoundUp(196))
	assert.Equal(t, 0, RoundUp(-1))
	assert.Equal(t, 0, RoundUp(math.NaN()))
	assert.Equal(t, math.MaxInt32, RoundUp(math.Inf(1)))
}

func TestNewSampleSizeResult_MarksCappedSurvey(t *testing.T) {
	req := SampleSizeRequest{0.5, 0.5000001, 0.8}

	r := NewSampleSizeResult(req, 1.96, 0.84, 1.962e14)
	assert.True(t, r.Capped)
	assert.Equal(t, MaxSurveySize, r.Required)
	assert.Equal(t, 1.962e14, r.SampleSize)

	r = NewSampleSizeResult(req, 1.96, 0.84, 196.2)
	assert.False(t, r.Capped)
}
