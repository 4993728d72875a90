// Package dataset maps the pipeline's records to and from the tabular files
// exchanged with downstream reporting. Column names are a wire contract.
package dataset

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Column names.
const (
	ColName              = "name"
	ColAge               = "age"
	ColPackYears         = "pack_years"
	ColQuitYears         = "quit_years"
	ColComorbidities     = "comorbidities"
	ColNote              = "note"
	ColSmokingStatus     = "smoking_status"
	ColEligible          = "eligible"
	ColEligibilityReason = "eligibility_reason"
)

var (
	// InputColumns is the patient input layout.
	InputColumns = []string{ColName, ColAge, ColPackYears, ColQuitYears, ColComorbidities, ColNote}

	// ExtractionColumns is the extraction output layout.
	ExtractionColumns = []string{ColName, ColAge, ColPackYears, ColQuitYears, ColSmokingStatus, ColComorbidities, ColNote}

	// EligibilityColumns is the eligibility output layout.
	EligibilityColumns = append(append([]string{}, ExtractionColumns...), ColEligible, ColEligibilityReason)

	// LabelColumns is the reference label layout.
	LabelColumns = []string{ColName, ColPackYears, ColQuitYears, ColSmokingStatus}
)

// Options configures the readers.
type Options struct {
	Charset string // CSV input charset; empty means UTF-8
	Sheet   string // XLSX sheet; empty means the first
}

// colIndex maps lowercased header names to positions.
type colIndex map[string]int

func indexHeader(header []string) colIndex {
	idx := make(colIndex, len(header))
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(col))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func (c colIndex) require(cols ...string) error {
	var missing []string
	for _, col := range cols {
		if _, ok := c[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("dataset: missing required column(s) %s", strings.Join(missing, ", "))
	}
	return nil
}

// get returns the trimmed cell for col, or "" when the column or cell is absent.
func (c colIndex) get(row []string, col string) string {
	i, ok := c[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
