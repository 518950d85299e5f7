package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunner_StepOrder(t *testing.T) {
	r := NewRunner()
	assert.Equal(t, "1.0.0", r.Version())
	assert.Equal(t, []string{
		"create schema_migrations table",
		"create power_calculations table",
		"add labels column",
		"create indexes",
	}, r.Steps())
}

func TestRunner_StepsAreIdempotent(t *testing.T) {
	for _, s := range NewRunner().steps {
		upper := strings.ToUpper(s.sql)
		assert.True(t,
			strings.Contains(upper, "IF NOT EXISTS"),
			"step %q must be safe to re-run", s.name)
	}
}

func TestRunner_Checksum(t *testing.T) {
	a := NewRunner()
	assert.Len(t, a.Checksum(), 64)
	assert.Equal(t, a.Checksum(), NewRunner().Checksum())

	a.steps = a.steps[:1]
	assert.NotEqual(t, a.Checksum(), NewRunner().Checksum())
}
