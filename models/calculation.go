package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gopower/internal/errors"

	"github.com/google/uuid"
)

// CalculationKind distinguishes the stored operations
type CalculationKind string

const (
	KindSampleSize    CalculationKind = "sample_size"
	KindAchievedPower CalculationKind = "achieved_power"
)

// Labels is free-form metadata stored as JSONB
type Labels map[string]string

// Value implements driver.Valuer interface
func (l Labels) Value() (driver.Value, error) {
	if l == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface
func (l *Labels) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		*l = Labels{}
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported labels column type %T", value)
	}

	result := Labels{}
	if len(bytes) > 0 {
		if err := json.Unmarshal(bytes, &result); err != nil {
			return err
		}
	}
	*l = result
	return nil
}

// CalculationRecord is one stored calculation. For KindSampleSize, Power is
// the requested level and SampleSize the result; for KindAchievedPower it is
// the other way round.
type CalculationRecord struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Kind        CalculationKind `json:"kind" db:"kind"`
	Reference   float64         `json:"reference_proportion" db:"reference_proportion"`
	Alternative float64         `json:"alternative_proportion" db:"alternative_proportion"`
	Power       float64         `json:"power_level" db:"power_level"`
	ZAlpha      float64         `json:"z_alpha" db:"z_alpha"`
	SampleSize  float64         `json:"sample_size" db:"sample_size"`
	Required    int             `json:"required" db:"required"`
	Labels      Labels          `json:"labels,omitempty" db:"labels"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// Validate checks a record read from outside the service, e.g. an import file
func (r *CalculationRecord) Validate() error {
	switch r.Kind {
	case KindSampleSize, KindAchievedPower:
	default:
		return errors.InvalidInputf("kind", "unknown calculation kind %q", r.Kind)
	}
	if !inUnitInterval(r.Reference) {
		return errors.InvalidInputf("reference_proportion", "reference_proportion must be in [0,1], got %g", r.Reference)
	}
	if !inUnitInterval(r.Alternative) {
		return errors.InvalidInputf("alternative_proportion", "alternative_proportion must be in [0,1], got %g", r.Alternative)
	}
	if r.Reference == r.Alternative {
		return errors.InvalidInputf("alternative_proportion", "alternative_proportion must differ from reference_proportion")
	}
	if !(r.Power > 0 && r.Power < 1) {
		return errors.InvalidInputf("power_level", "power_level must be in (0,1), got %g", r.Power)
	}
	if !(r.ZAlpha > 0) || math.IsInf(r.ZAlpha, 0) {
		return errors.InvalidInputf("z_alpha", "z_alpha must be positive, got %g", r.ZAlpha)
	}
	if !(r.SampleSize > 0) || math.IsInf(r.SampleSize, 0) || r.Required < 0 {
		return errors.InvalidInputf("sample_size", "sample_size must be positive, got %g", r.SampleSize)
	}
	return nil
}

func inUnitInterval(v float64) bool {
	return v >= 0 && v <= 1
}
