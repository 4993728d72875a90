package extract

import "github.com/sells-group/screening-cli/internal/model"

// AbsentPackYearsPolicy decides how status derivation treats a patient whose
// pack-years could not be resolved at all.
type AbsentPackYearsPolicy string

const (
	// PolicyFallthrough derives status from quit-years alone, matching the
	// reference labels.
	PolicyFallthrough AbsentPackYearsPolicy = "fallthrough"
	// PolicyUnknown yields StatusUnknown.
	PolicyUnknown AbsentPackYearsPolicy = "unknown"
)

func (p AbsentPackYearsPolicy) valid() bool {
	return p == PolicyFallthrough || p == PolicyUnknown
}

// DeriveStatus classifies smoking status. Zero pack-years is checked first
// and wins regardless of quit-years.
func DeriveStatus(packYears, quitYears model.Quantity, policy AbsentPackYearsPolicy) model.SmokingStatus {
	if packYears.IsZero() {
		return model.StatusNever
	}
	if !packYears.Valid && policy == PolicyUnknown {
		return model.StatusUnknown
	}
	if !quitYears.Valid {
		return model.StatusCurrent
	}
	return model.StatusFormer
}
