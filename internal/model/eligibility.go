package model

import "github.com/rotisserie/eris"

// EligibilityReason is the closed set of screening decision reasons. The
// string value is the wire code written to eligibility_reason.
type EligibilityReason string

const (
	ReasonAgeBelowMin           EligibilityReason = "AGE_BELOW_MIN"
	ReasonAgeAboveMax           EligibilityReason = "AGE_ABOVE_MAX"
	ReasonInsufficientPackYears EligibilityReason = "INSUFFICIENT_PACK_YEARS"
	ReasonEligibleCurrent       EligibilityReason = "ELIGIBLE_CURRENT_SMOKER"
	ReasonEligibleRecentQuitter EligibilityReason = "ELIGIBLE_RECENT_QUITTER"
	ReasonQuitTooLongAgo        EligibilityReason = "QUIT_TOO_LONG_AGO"
	ReasonUnknownStatus         EligibilityReason = "UNKNOWN_STATUS"
)

// Reasons lists every reason in rule-evaluation order.
var Reasons = []EligibilityReason{
	ReasonAgeBelowMin,
	ReasonAgeAboveMax,
	ReasonInsufficientPackYears,
	ReasonEligibleCurrent,
	ReasonEligibleRecentQuitter,
	ReasonQuitTooLongAgo,
	ReasonUnknownStatus,
}

// ParseEligibilityReason validates a wire code.
func ParseEligibilityReason(s string) (EligibilityReason, error) {
	for _, r := range Reasons {
		if string(r) == s {
			return r, nil
		}
	}
	return "", eris.Errorf("unknown eligibility reason %q", s)
}

// Eligible reports whether the reason corresponds to a positive decision.
func (r EligibilityReason) Eligible() bool {
	return r == ReasonEligibleCurrent || r == ReasonEligibleRecentQuitter
}

// EligibilityDecision is the per-patient screening outcome.
type EligibilityDecision struct {
	Eligible bool              `json:"eligible"`
	Reason   EligibilityReason `json:"eligibility_reason"`
}

// ScreenedRecord joins an input row with its extraction and decision. It is
// one row of the eligibility output.
type ScreenedRecord struct {
	Patient    PatientRecord       `json:"patient"`
	Extraction ExtractionResult    `json:"extraction"`
	Decision   EligibilityDecision `json:"decision"`
}
