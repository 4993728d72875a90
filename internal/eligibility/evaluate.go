package eligibility

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/screening-cli/internal/model"
)

// Evaluate applies the guideline rules in order; the first matching rule
// decides. Age and pack-years are checked before smoking status. Absent
// pack-years never meet the minimum.
func (g Guideline) Evaluate(age int, packYears, quitYears model.Quantity, status model.SmokingStatus) model.EligibilityDecision {
	// 1. Age below minimum.
	if age < g.MinAge {
		return ineligible(model.ReasonAgeBelowMin)
	}

	// 2. Age above maximum.
	if age > g.MaxAge {
		return ineligible(model.ReasonAgeAboveMax)
	}

	// 3. Insufficient exposure.
	if !packYears.Valid || packYears.Value < g.MinPackYears {
		return ineligible(model.ReasonInsufficientPackYears)
	}

	switch status {
	// 4. Currently smoking.
	case model.StatusCurrent:
		return eligible(model.ReasonEligibleCurrent)

	// 5. Former smoker: quit recently enough.
	case model.StatusFormer:
		if quitYears.Less(g.MaxQuitYears) {
			return eligible(model.ReasonEligibleRecentQuitter)
		}
		return ineligible(model.ReasonQuitTooLongAgo)
	}

	// 6. Never smoker or unrecognized.
	return ineligible(model.ReasonUnknownStatus)
}

// Screen evaluates every record against its extraction result. records and
// results must be index-aligned; output row i corresponds to input row i.
func Screen(g Guideline, records []model.PatientRecord, results []model.ExtractionResult) ([]model.ScreenedRecord, error) {
	if len(records) != len(results) {
		return nil, eris.Errorf("eligibility: %d records but %d extraction results", len(records), len(results))
	}

	out := make([]model.ScreenedRecord, len(records))
	for i, rec := range records {
		res := results[i]
		out[i] = model.ScreenedRecord{
			Patient:    rec,
			Extraction: res,
			Decision:   g.Evaluate(rec.Age, res.PackYears, res.QuitYears, res.SmokingStatus),
		}
	}
	return out, nil
}

func eligible(r model.EligibilityReason) model.EligibilityDecision {
	return model.EligibilityDecision{Eligible: true, Reason: r}
}

func ineligible(r model.EligibilityReason) model.EligibilityDecision {
	return model.EligibilityDecision{Eligible: false, Reason: r}
}
