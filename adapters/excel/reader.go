package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	domainPower "gopower/domain/power"
	"gopower/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Recognised batch columns. Header matching is case-insensitive and the
// long field names are accepted as aliases.
var columnAliases = map[string]string{
	"name":                   "name",
	"scenario":               "name",
	"reference":              "reference",
	"reference_proportion":   "reference",
	"alternative":            "alternative",
	"alternative_proportion": "alternative",
	"power":                  "power",
	"power_level":            "power",
}

// ReadScenarios loads batch scenarios from an .xlsx or .csv file
func ReadScenarios(path string) ([]domainPower.Scenario, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("batch file %s", path))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %s", path)
		}
		defer f.Close()
		return ReadScenariosXLSX(f)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %s", path)
		}
		defer f.Close()
		return ReadScenariosCSV(f)
	default:
		return nil, errors.UnsupportedFile(path)
	}
}

// ReadScenariosXLSX reads the first sheet of a workbook
func ReadScenariosXLSX(r io.Reader) ([]domainPower.Scenario, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to open workbook: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheets[0])
	}
	log.Printf("[BatchReader] sheet %s read (%d rows)", sheets[0], len(rows))

	return processRows(rows)
}

// ReadScenariosCSV reads a comma-separated batch file
func ReadScenariosCSV(r io.Reader) ([]domainPower.Scenario, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to read CSV: %w", err))
	}
	log.Printf("[BatchReader] CSV read (%d rows)", len(rows))

	return processRows(rows)
}

// processRows maps header names to columns and parses every data row.
// Blank rows are skipped; a malformed number fails the whole file.
func processRows(rows [][]string) ([]domainPower.Scenario, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidInput("batch file must have a header row and at least one data row")
	}

	columns := map[string]int{}
	for i, header := range rows[0] {
		if canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(header))]; ok {
			columns[canonical] = i
		}
	}
	for _, required := range []string{"reference", "alternative", "power"} {
		if _, ok := columns[required]; !ok {
			return nil, errors.InvalidInputf(required, "batch file is missing the %q column", required)
		}
	}

	scenarios := make([]domainPower.Scenario, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if isBlank(row) {
			continue
		}

		reference, err := parseCell(row, columns["reference"], "reference", line)
		if err != nil {
			return nil, err
		}
		alternative, err := parseCell(row, columns["alternative"], "alternative", line)
		if err != nil {
			return nil, err
		}
		powerLevel, err := parseCell(row, columns["power"], "power", line)
		if err != nil {
			return nil, err
		}

		name := fmt.Sprintf("row-%d", line)
		if idx, ok := columns["name"]; ok && idx < len(row) && strings.TrimSpace(row[idx]) != "" {
			name = strings.TrimSpace(row[idx])
		}

		scenarios = append(scenarios, domainPower.Scenario{
			Name: name,
			Request: domainPower.SampleSizeRequest{
				Reference:   domainPower.Proportion(reference),
				Alternative: domainPower.Proportion(alternative),
				Power:       domainPower.PowerLevel(powerLevel),
			},
		})
	}

	if len(scenarios) == 0 {
		return nil, errors.InvalidInput("batch file has no data rows")
	}
	return scenarios, nil
}

func parseCell(row []string, idx int, column string, line int) (float64, error) {
	if idx >= len(row) {
		return 0, errors.InvalidInputf(column, "row %d: %s is empty", line, column)
	}
	raw := strings.TrimSpace(row[idx])
	value, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
	if err != nil {
		return 0, errors.InvalidInputf(column, "row %d: %s %q is not a number", line, column, raw)
	}
	if strings.HasSuffix(raw, "%") {
		value /= 100
	}
	return value, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
