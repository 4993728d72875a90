// Package model defines the records that flow through the screening pipeline.
package model

import "fmt"

// PatientRecord is one input row. It is never mutated after load; extraction
// and eligibility produce derived records alongside it.
type PatientRecord struct {
	Name          string   `json:"name"` // join key, not guaranteed unique
	Age           int      `json:"age"`
	PackYears     Quantity `json:"pack_years"`
	QuitYears     Quantity `json:"quit_years"` // absent means never quit
	Comorbidities string   `json:"comorbidities"`
	Note          string   `json:"note"`
	Row           int      `json:"row"` // 1-based data row in the source file
}

// LabeledRecord is a reference (human-reviewed) row used for accuracy evaluation.
type LabeledRecord struct {
	Name          string   `json:"name"`
	PackYears     Quantity `json:"pack_years"`
	QuitYears     Quantity `json:"quit_years"`
	SmokingStatus string   `json:"smoking_status"`
}

// RowError describes a malformed input row that was excluded from the batch.
type RowError struct {
	Row  int
	Name string
	Err  error
}

func (e *RowError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("row %d (%s): %v", e.Row, e.Name, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
