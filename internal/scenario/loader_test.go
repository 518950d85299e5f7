package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopower/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
scenarios:
  - name: coin
    reference: 0.5
    alternative: 0.6
    power: 0.8
  - reference: 0.04
    alternative: 0.03
    power: 0.8
`

func TestLoad(t *testing.T) {
	scenarios, err := Load(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	assert.Equal(t, "coin", scenarios[0].Name)
	assert.Equal(t, 0.6, float64(scenarios[0].Request.Alternative))
	assert.Equal(t, "scenario-2", scenarios[1].Name)
	assert.Equal(t, 0.04, float64(scenarios[1].Request.Reference))
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := Load(strings.NewReader("scenarios:\n  - name: x\n    referance: 0.5\n"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load(strings.NewReader(""))
	assert.True(t, errors.IsInvalidInput(err))

	_, err = Load(strings.NewReader("scenarios: []\n"))
	assert.True(t, errors.IsInvalidInput(err))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	scenarios, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, scenarios, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
