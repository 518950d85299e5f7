package excel

import (
	"io"

	"gopower/adapters/stats/power"
	domainPower "gopower/domain/power"
	"gopower/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	curveSheet = "Sheet1"
	batchSheet = "Sheet1"
)

// WriteCurve writes a power curve as a workbook: column A holds the
// alternatives, row 1 the power levels, each cell the rounded-up sample size.
// Invalid cells are left blank and their errors listed on a second sheet.
func WriteCurve(w io.Writer, curve *power.Curve) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, 0, len(curve.Powers)+1)
	header = append(header, "alternative \\ power")
	for _, p := range curve.Powers {
		header = append(header, p)
	}
	if err := f.SetSheetRow(curveSheet, "A1", &header); err != nil {
		return err
	}

	var problems [][]interface{}
	for i, row := range curve.Rows {
		values := make([]interface{}, 0, len(row)+1)
		values = append(values, curve.Alternatives[i])
		for _, cell := range row {
			if cell.Err != "" {
				values = append(values, nil)
				problems = append(problems, []interface{}{cell.Alternative, cell.Power, cell.Err})
				continue
			}
			values = append(values, cell.Required)
		}
		start, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(curveSheet, start, &values); err != nil {
			return err
		}
	}

	if err := boldHeader(f, curveSheet, len(header)); err != nil {
		return err
	}

	meta := [][]interface{}{
		{"reference_proportion", curve.Reference},
		{"z_alpha", curve.ZAlpha},
	}
	if err := writeSheet(f, "Parameters", []interface{}{"parameter", "value"}, meta); err != nil {
		return err
	}
	if len(problems) > 0 {
		if err := writeSheet(f, "Errors", []interface{}{"alternative", "power", "error"}, problems); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// WriteBatch writes batch outcomes, one row per scenario
func WriteBatch(w io.Writer, outcomes []domainPower.BatchOutcome) error {
	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{"name", "reference", "alternative", "power", "z_alpha", "z_beta", "sample_size", "required", "error"}
	rows := make([][]interface{}, 0, len(outcomes))
	for _, o := range outcomes {
		req := o.Scenario.Request
		row := []interface{}{o.Scenario.Name, float64(req.Reference), float64(req.Alternative), float64(req.Power)}
		if o.Result != nil {
			row = append(row, o.Result.ZAlpha, o.Result.ZBeta, o.Result.SampleSize, o.Result.Required, "")
		} else {
			row = append(row, nil, nil, nil, nil, o.Error)
		}
		rows = append(rows, row)
	}

	if err := writeSheet(f, batchSheet, header, rows); err != nil {
		return err
	}
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return errors.Wrapf(err, "failed to create sheet %s", sheet)
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i := range rows {
		start, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, start, &rows[i]); err != nil {
			return err
		}
	}
	return boldHeader(f, sheet, len(header))
}

func boldHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(columns, 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}
