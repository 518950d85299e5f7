package models

import (
	"math"
	"testing"

	"gopower/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabels_Value(t *testing.T) {
	var empty Labels
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	v, err = Labels{"team": "ops"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"team":"ops"}`, string(v.([]byte)))
}

func TestLabels_Scan(t *testing.T) {
	tests := []struct {
		name        string
		input       interface{}
		expected    Labels
		expectError bool
	}{
		{name: "bytes", input: []byte(`{"survey":"pilot"}`), expected: Labels{"survey": "pilot"}},
		{name: "string", input: `{"a":"b"}`, expected: Labels{"a": "b"}},
		{name: "null", input: nil, expected: Labels{}},
		{name: "empty", input: []byte{}, expected: Labels{}},
		{name: "wrong type", input: 42, expectError: true},
		{name: "bad json", input: []byte(`{`), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l Labels
			err := l.Scan(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, l)
		})
	}
}

func TestCalculationRecord_Validate(t *testing.T) {
	valid := func() *CalculationRecord {
		return &CalculationRecord{
			Kind: KindSampleSize, Reference: 0.5, Alternative: 0.6,
			Power: 0.8, ZAlpha: 1.96, SampleSize: 196.2, Required: 197,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name  string
		edit  func(r *CalculationRecord)
		field string
	}{
		{"empty kind", func(r *CalculationRecord) { r.Kind = "" }, "kind"},
		{"reference above one", func(r *CalculationRecord) { r.Reference = 1.5 }, "reference_proportion"},
		{"alternative NaN", func(r *CalculationRecord) { r.Alternative = math.NaN() }, "alternative_proportion"},
		{"equal proportions", func(r *CalculationRecord) { r.Alternative = 0.5 }, "alternative_proportion"},
		{"power one", func(r *CalculationRecord) { r.Power = 1 }, "power_level"},
		{"zero z", func(r *CalculationRecord) { r.ZAlpha = 0 }, "z_alpha"},
		{"zero sample size", func(r *CalculationRecord) { r.SampleSize = 0 }, "sample_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.edit(r)
			err := r.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.field, errors.GetField(err))
		})
	}
}
