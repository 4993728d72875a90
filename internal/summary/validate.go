package summary

import (
	"math/rand/v2"

	"github.com/sells-group/screening-cli/internal/eligibility"
	"github.com/sells-group/screening-cli/internal/model"
)

// DefaultSampleSize is the number of rows drawn for manual review.
const DefaultSampleSize = 5

// ColumnCount is a per-column tally.
type ColumnCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// ValidationReport is a data-quality pass over screened rows: missing values,
// numeric spread, the eligibility breakdown, and a sample for manual review.
type ValidationReport struct {
	Rows       int                    `json:"rows"`
	Missing    []ColumnCount          `json:"missing"`
	PackYears  *Stats                 `json:"pack_years"`
	QuitYears  *Stats                 `json:"quit_years"`
	Eligible   int                    `json:"eligible"`
	Ineligible int                    `json:"ineligible"`
	Reasons    []ReasonCount          `json:"reasons"`
	Sample     []model.ScreenedRecord `json:"sample"`
}

// ValidateOptions configures Validate.
type ValidateOptions struct {
	SampleSize int // <= 0 selects DefaultSampleSize
	Seed       uint64
}

// Validate builds a ValidationReport. Quit-year statistics cover every row
// with a known value, unlike Compute. The sample is reproducible for a seed.
func Validate(rows []model.ScreenedRecord, g eligibility.Guideline, opts ValidateOptions) ValidationReport {
	missing := map[string]int{}
	reasons := map[model.EligibilityReason]int{}
	var packs, quits []float64
	rep := ValidationReport{Rows: len(rows)}

	for _, r := range rows {
		if r.Patient.Name == "" {
			missing["name"]++
		}
		if !r.Extraction.PackYears.Valid {
			missing["pack_years"]++
		} else {
			packs = append(packs, r.Extraction.PackYears.Value)
		}
		if !r.Extraction.QuitYears.Valid {
			missing["quit_years"]++
		} else {
			quits = append(quits, r.Extraction.QuitYears.Value)
		}
		if r.Extraction.SmokingStatus == "" || r.Extraction.SmokingStatus == model.StatusUnknown {
			missing["smoking_status"]++
		}
		if r.Patient.Comorbidities == "" {
			missing["comorbidities"]++
		}
		if r.Patient.Note == "" {
			missing["note"]++
		}
		if r.Decision.Eligible {
			rep.Eligible++
		} else {
			rep.Ineligible++
			reasons[r.Decision.Reason]++
		}
	}

	for _, col := range []string{"name", "age", "pack_years", "quit_years", "smoking_status", "comorbidities", "note"} {
		rep.Missing = append(rep.Missing, ColumnCount{Column: col, Count: missing[col]})
	}
	rep.PackYears = Describe(packs)
	rep.QuitYears = Describe(quits)
	rep.Reasons = rankReasons(reasons, g)
	rep.Sample = sample(rows, opts)
	return rep
}

func sample(rows []model.ScreenedRecord, opts ValidateOptions) []model.ScreenedRecord {
	n := opts.SampleSize
	if n <= 0 {
		n = DefaultSampleSize
	}
	if n > len(rows) {
		n = len(rows)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	out := make([]model.ScreenedRecord, 0, n)
	for _, i := range rng.Perm(len(rows))[:n] {
		out = append(out, rows[i])
	}
	return out
}
