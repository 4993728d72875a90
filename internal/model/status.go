package model

import "strings"

// SmokingStatus is the derived three-way smoking classification.
type SmokingStatus string

const (
	StatusNever   SmokingStatus = "never smoker"
	StatusCurrent SmokingStatus = "current smoker"
	StatusFormer  SmokingStatus = "former smoker"
	// StatusUnknown is only produced when absent pack-years are configured
	// to stop status derivation.
	StatusUnknown SmokingStatus = "unknown"
)

// ParseSmokingStatus maps free text to a status. Unrecognized text maps to
// StatusUnknown with ok=false.
func ParseSmokingStatus(s string) (SmokingStatus, bool) {
	switch SmokingStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusNever:
		return StatusNever, true
	case StatusCurrent:
		return StatusCurrent, true
	case StatusFormer:
		return StatusFormer, true
	case StatusUnknown:
		return StatusUnknown, true
	}
	return StatusUnknown, false
}

// ValueSource records where a resolved quantity came from.
type ValueSource string

const (
	SourceNote       ValueSource = "note"
	SourceAugment    ValueSource = "augment"
	SourceStructured ValueSource = "structured"
	SourceNone       ValueSource = "none"
)

// ExtractionResult is the per-patient output of feature extraction.
type ExtractionResult struct {
	Name            string        `json:"name"`
	PackYears       Quantity      `json:"pack_years"`
	QuitYears       Quantity      `json:"quit_years"`
	SmokingStatus   SmokingStatus `json:"smoking_status"`
	PackYearsSource ValueSource   `json:"pack_years_source"`
	QuitYearsSource ValueSource   `json:"quit_years_source"`
}
