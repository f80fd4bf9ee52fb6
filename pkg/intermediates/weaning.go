package intermediates

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/canguro-platform/growthcurves/pkg/common/logger"
	"github.com/xuri/excelize/v2"
)

// nullCell is how the external SPSS workflow marks missing values in the
// weaning spreadsheet.
const nullCell = "#NULL!"

// WeaningOutcome is one spreadsheet row of externally computed
// oxygen-weaning and breastfeeding outcomes, keyed by (Iden_Codigo,
// Iden_Sede). The table is produced and validated outside this system and
// treated as opaque: outcome values pass through unchanged.
type WeaningOutcome struct {
	// Row is the 1-based spreadsheet row, kept for the drop report.
	Row int

	PatientCode *int64
	SiteCode    *int64

	WeaningAgeDays            *float64
	OxygenAtAdmission         *float64
	OxygenWeaningWeight       *float64
	AnyBreastfeeding3M        *float64
	AnyBreastfeeding6M        *float64
	AnyBreastfeeding40W       *float64
	ExclusiveBreastfeeding40W *float64
	ExclusiveBreastfeeding3M  *float64
	ExclusiveBreastfeeding6M  *float64
}

var weaningOutcomeColumns = []string{
	"edaddestete",
	"oxigenoalaentrada",
	"pesodesteteoxigeno",
	"algoLM3meses",
	"algoLM6meses",
	"algoLM40sem",
	"LME40",
	"LME3m",
	"LME6m",
}

// LoadWeaningOutcomes reads the first sheet of the weaning spreadsheet.
// The header row must carry the join keys and all nine outcome columns;
// a missing header is a SchemaError naming the field.
func LoadWeaningOutcomes(path string) ([]WeaningOutcome, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NotFoundError{Path: path}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, ParseError{Path: path, Err: err}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, ParseError{Path: path, Err: err}
	}
	if len(rows) == 0 {
		return nil, ParseError{Path: path, Err: fmt.Errorf("sheet %q has no header row", sheet)}
	}

	source := filepath.Base(path)
	colIndex := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		colIndex[strings.TrimSpace(header)] = i
	}
	for _, required := range append([]string{"Iden_Codigo", "Iden_Sede"}, weaningOutcomeColumns...) {
		if _, ok := colIndex[required]; !ok {
			return nil, SchemaError{Source: source, Field: required}
		}
	}

	outcomes := make([]WeaningOutcome, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}

		get := func(col string) string {
			idx := colIndex[col]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		out := WeaningOutcome{Row: rowNum + 2}
		var parseErr error
		intCell := func(col string) *int64 {
			raw := get(col)
			if raw == "" || raw == nullCell {
				return nil
			}
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil && parseErr == nil {
				parseErr = fmt.Errorf("row %d, column %s: %q is not numeric", rowNum+2, col, raw)
			}
			v := int64(f)
			return &v
		}
		floatCell := func(col string) *float64 {
			raw := get(col)
			if raw == "" || raw == nullCell {
				return nil
			}
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil && parseErr == nil {
				parseErr = fmt.Errorf("row %d, column %s: %q is not numeric", rowNum+2, col, raw)
			}
			return &f
		}

		out.PatientCode = intCell("Iden_Codigo")
		out.SiteCode = intCell("Iden_Sede")
		out.WeaningAgeDays = floatCell("edaddestete")
		out.OxygenAtAdmission = floatCell("oxigenoalaentrada")
		out.OxygenWeaningWeight = floatCell("pesodesteteoxigeno")
		out.AnyBreastfeeding3M = floatCell("algoLM3meses")
		out.AnyBreastfeeding6M = floatCell("algoLM6meses")
		out.AnyBreastfeeding40W = floatCell("algoLM40sem")
		out.ExclusiveBreastfeeding40W = floatCell("LME40")
		out.ExclusiveBreastfeeding3M = floatCell("LME3m")
		out.ExclusiveBreastfeeding6M = floatCell("LME6m")

		if parseErr != nil {
			return nil, ParseError{Path: path, Err: parseErr}
		}
		outcomes = append(outcomes, out)
	}

	logger.Log.WithFields(map[string]interface{}{
		"file": path,
		"rows": len(outcomes),
	}).Info("Loaded weaning outcomes")
	return outcomes, nil
}

// SourceRef identifies the spreadsheet row in the drop report; outcome rows
// have no Karen document ID to point at.
func (w WeaningOutcome) SourceRef() string {
	return fmt.Sprintf("spreadsheet row %d", w.Row)
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
