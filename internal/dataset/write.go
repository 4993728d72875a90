package dataset

import (
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/screening-cli/internal/fetcher"
	"github.com/sells-group/screening-cli/internal/model"
)

// WriteExtraction writes extraction output. records and results must be
// index-aligned. pack_years and quit_years hold the resolved values.
func WriteExtraction(path string, records []model.PatientRecord, results []model.ExtractionResult) error {
	if len(records) != len(results) {
		return eris.Errorf("dataset: %d records but %d extraction results", len(records), len(results))
	}

	rows := make([][]string, len(records))
	for i := range records {
		rows[i] = extractionRow(records[i], results[i])
	}
	return eris.Wrap(fetcher.WriteTable(path, &fetcher.Table{Header: ExtractionColumns, Rows: rows}), "dataset: write extraction")
}

// WriteEligibility writes eligibility output: the extraction columns plus
// eligible (True/False) and the eligibility reason code.
func WriteEligibility(path string, screened []model.ScreenedRecord) error {
	rows := make([][]string, len(screened))
	for i, s := range screened {
		rows[i] = append(extractionRow(s.Patient, s.Extraction),
			formatBool(s.Decision.Eligible),
			string(s.Decision.Reason),
		)
	}
	return eris.Wrap(fetcher.WriteTable(path, &fetcher.Table{Header: EligibilityColumns, Rows: rows}), "dataset: write eligibility")
}

// WriteLabels writes mock reference labels from the first n records, with
// smoking status taken from whether quit-years is present. These labels are
// a scaffold for human review, not ground truth. Returns the number written.
func WriteLabels(path string, records []model.PatientRecord, n int) (int, error) {
	if n < 0 {
		return 0, eris.Errorf("dataset: label count must be >= 0, got %d", n)
	}
	if n > len(records) {
		n = len(records)
	}

	rows := make([][]string, n)
	for i, rec := range records[:n] {
		status := model.StatusCurrent
		if rec.QuitYears.Valid {
			status = model.StatusFormer
		}
		rows[i] = []string{rec.Name, rec.PackYears.String(), rec.QuitYears.String(), string(status)}
	}
	if err := fetcher.WriteTable(path, &fetcher.Table{Header: LabelColumns, Rows: rows}); err != nil {
		return 0, eris.Wrap(err, "dataset: write labels")
	}
	return n, nil
}

func extractionRow(rec model.PatientRecord, res model.ExtractionResult) []string {
	return []string{
		rec.Name,
		strconv.Itoa(rec.Age),
		res.PackYears.String(),
		res.QuitYears.String(),
		string(res.SmokingStatus),
		rec.Comorbidities,
		rec.Note,
	}
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
