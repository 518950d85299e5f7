package scenario

import (
	"fmt"
	"io"
	"os"

	domainPower "gopower/domain/power"
	"gopower/internal/errors"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a scenario batch:
//
//	scenarios:
//	  - name: churn
//	    reference: 0.04
//	    alternative: 0.03
//	    power: 0.8
type File struct {
	Scenarios []domainPower.Scenario `yaml:"scenarios"`
}

// LoadFile reads scenarios from a YAML file
func LoadFile(path string) ([]domainPower.Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open scenario file %s", path)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes scenarios from YAML. Unknown keys are rejected so typos in
// field names do not silently become zero values.
func Load(r io.Reader) ([]domainPower.Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, errors.InvalidInput("scenario file is empty")
		}
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("invalid scenario file: %w", err))
	}
	if len(file.Scenarios) == 0 {
		return nil, errors.InvalidInput("scenario file defines no scenarios")
	}

	for i := range file.Scenarios {
		if file.Scenarios[i].Name == "" {
			file.Scenarios[i].Name = fmt.Sprintf("scenario-%d", i+1)
		}
	}
	return file.Scenarios, nil
}
