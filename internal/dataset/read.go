package dataset

import (
	"context"
	"math"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/screening-cli/internal/fetcher"
	"github.com/sells-group/screening-cli/internal/model"
)

// ReadPatients loads patient input. Rows with a missing name, a non-integer
// age, or a malformed pack_years/quit_years cell are returned as row errors
// and left out of the records; blank rows are skipped. The error return is
// reserved for failures that affect the whole file.
func ReadPatients(ctx context.Context, path string, opts Options) ([]model.PatientRecord, []*model.RowError, error) {
	tbl, cols, err := load(ctx, path, opts, ColName, ColAge, ColNote)
	if err != nil {
		return nil, nil, err
	}

	var (
		records []model.PatientRecord
		rowErrs []*model.RowError
	)
	for i, row := range tbl.Rows {
		if blank(row) {
			continue
		}
		rec, err := parsePatient(cols, row, i+1)
		if err != nil {
			rowErrs = append(rowErrs, err)
			continue
		}
		records = append(records, rec)
	}

	logRead(path, "patients", len(records), rowErrs)
	return records, rowErrs, nil
}

// ReadLabels loads reference labels. smoking_status is kept as written.
func ReadLabels(ctx context.Context, path string, opts Options) ([]model.LabeledRecord, []*model.RowError, error) {
	tbl, cols, err := load(ctx, path, opts, ColName, ColPackYears, ColQuitYears, ColSmokingStatus)
	if err != nil {
		return nil, nil, err
	}

	var (
		labels  []model.LabeledRecord
		rowErrs []*model.RowError
	)
	for i, row := range tbl.Rows {
		if blank(row) {
			continue
		}
		name := cols.get(row, ColName)
		rowErr := func(err error) { rowErrs = append(rowErrs, &model.RowError{Row: i + 1, Name: name, Err: err}) }

		if name == "" {
			rowErr(eris.New("missing name"))
			continue
		}
		pack, err := model.ParseQuantity(cols.get(row, ColPackYears))
		if err != nil {
			rowErr(eris.Wrap(err, ColPackYears))
			continue
		}
		quit, err := model.ParseQuantity(cols.get(row, ColQuitYears))
		if err != nil {
			rowErr(eris.Wrap(err, ColQuitYears))
			continue
		}
		labels = append(labels, model.LabeledRecord{
			Name:          name,
			PackYears:     pack,
			QuitYears:     quit,
			SmokingStatus: cols.get(row, ColSmokingStatus),
		})
	}

	logRead(path, "labels", len(labels), rowErrs)
	return labels, rowErrs, nil
}

// ReadExtraction loads an extraction (or eligibility) output file back into
// the patient rows and their extraction results, index-aligned.
func ReadExtraction(ctx context.Context, path string, opts Options) ([]model.PatientRecord, []model.ExtractionResult, []*model.RowError, error) {
	screened, rowErrs, err := readScreened(ctx, path, opts, false)
	if err != nil {
		return nil, nil, nil, err
	}
	records := make([]model.PatientRecord, len(screened))
	results := make([]model.ExtractionResult, len(screened))
	for i, s := range screened {
		records[i] = s.Patient
		results[i] = s.Extraction
	}
	return records, results, rowErrs, nil
}

// ReadScreened loads an eligibility output file.
func ReadScreened(ctx context.Context, path string, opts Options) ([]model.ScreenedRecord, []*model.RowError, error) {
	return readScreened(ctx, path, opts, true)
}

func readScreened(ctx context.Context, path string, opts Options, withDecision bool) ([]model.ScreenedRecord, []*model.RowError, error) {
	required := []string{ColName, ColAge, ColPackYears, ColQuitYears, ColSmokingStatus}
	if withDecision {
		required = append(required, ColEligible, ColEligibilityReason)
	}
	tbl, cols, err := load(ctx, path, opts, required...)
	if err != nil {
		return nil, nil, err
	}

	var (
		out     []model.ScreenedRecord
		rowErrs []*model.RowError
	)
	for i, row := range tbl.Rows {
		if blank(row) {
			continue
		}
		rec, rowErr := parsePatient(cols, row, i+1)
		if rowErr != nil {
			rowErrs = append(rowErrs, rowErr)
			continue
		}
		status, _ := model.ParseSmokingStatus(cols.get(row, ColSmokingStatus))
		s := model.ScreenedRecord{
			Patient: rec,
			Extraction: model.ExtractionResult{
				Name:            rec.Name,
				PackYears:       rec.PackYears,
				QuitYears:       rec.QuitYears,
				SmokingStatus:   status,
				PackYearsSource: model.SourceStructured,
				QuitYearsSource: model.SourceStructured,
			},
		}

		if withDecision {
			eligible, err := strconv.ParseBool(cols.get(row, ColEligible))
			if err != nil {
				rowErrs = append(rowErrs, &model.RowError{Row: i + 1, Name: rec.Name, Err: eris.Wrap(err, ColEligible)})
				continue
			}
			reason, err := model.ParseEligibilityReason(cols.get(row, ColEligibilityReason))
			if err != nil {
				rowErrs = append(rowErrs, &model.RowError{Row: i + 1, Name: rec.Name, Err: err})
				continue
			}
			s.Decision = model.EligibilityDecision{Eligible: eligible, Reason: reason}
		}
		out = append(out, s)
	}

	logRead(path, "screened", len(out), rowErrs)
	return out, rowErrs, nil
}

func load(ctx context.Context, path string, opts Options, required ...string) (*fetcher.Table, colIndex, error) {
	tbl, err := fetcher.ReadTable(ctx, path, fetcher.ReadOptions{Charset: opts.Charset, Sheet: opts.Sheet})
	if err != nil {
		return nil, nil, eris.Wrap(err, "dataset: load")
	}
	cols := indexHeader(tbl.Header)
	if err := cols.require(required...); err != nil {
		return nil, nil, eris.Wrapf(err, "dataset: %s", path)
	}
	return tbl, cols, nil
}

func parsePatient(cols colIndex, row []string, n int) (model.PatientRecord, *model.RowError) {
	name := cols.get(row, ColName)
	fail := func(err error) (model.PatientRecord, *model.RowError) {
		return model.PatientRecord{}, &model.RowError{Row: n, Name: name, Err: err}
	}

	if name == "" {
		return fail(eris.New("missing name"))
	}
	age, err := parseAge(cols.get(row, ColAge))
	if err != nil {
		return fail(err)
	}
	pack, err := model.ParseQuantity(cols.get(row, ColPackYears))
	if err != nil {
		return fail(eris.Wrap(err, ColPackYears))
	}
	quit, err := model.ParseQuantity(cols.get(row, ColQuitYears))
	if err != nil {
		return fail(eris.Wrap(err, ColQuitYears))
	}

	return model.PatientRecord{
		Name:          name,
		Age:           age,
		PackYears:     pack,
		QuitYears:     quit,
		Comorbidities: cols.get(row, ColComorbidities),
		Note:          cols.get(row, ColNote),
		Row:           n,
	}, nil
}

// parseAge accepts whole numbers, including spreadsheet renderings like "55.0".
func parseAge(s string) (int, error) {
	if s == "" {
		return 0, eris.New("age: missing")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, eris.Errorf("age: negative value %q", s)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, eris.Errorf("age: not an integer %q", s)
	}
	if f < 0 || f > math.MaxInt32 {
		return 0, eris.Errorf("age: out of range %q", s)
	}
	return int(f), nil
}

func logRead(path, kind string, n int, rowErrs []*model.RowError) {
	for _, e := range rowErrs {
		zap.L().Warn("dataset: rejected row",
			zap.String("path", path),
			zap.Int("row", e.Row),
			zap.String("name", e.Name),
			zap.Error(e.Err),
		)
	}
	zap.L().Info("dataset: loaded",
		zap.String("path", path),
		zap.String("kind", kind),
		zap.Int("records", n),
		zap.Int("rejected", len(rowErrs)),
	)
}
