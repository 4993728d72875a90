package eligibility

import (
	"fmt"
	"strconv"

	"github.com/sells-group/screening-cli/internal/model"
)

// Describe renders the display text for a reason under g. Display text is for
// reports only; decisions are always made on the reason code.
func (g Guideline) Describe(r model.EligibilityReason) string {
	switch r {
	case model.ReasonAgeBelowMin:
		return fmt.Sprintf("Ineligible: Age below %d", g.MinAge)
	case model.ReasonAgeAboveMax:
		return fmt.Sprintf("Ineligible: Age above %d", g.MaxAge)
	case model.ReasonInsufficientPackYears:
		return fmt.Sprintf("Ineligible: <%s pack-years", num(g.MinPackYears))
	case model.ReasonEligibleCurrent:
		return "Eligible: Current smoker"
	case model.ReasonEligibleRecentQuitter:
		return fmt.Sprintf("Eligible: Quit within %s years", num(g.MaxQuitYears))
	case model.ReasonQuitTooLongAgo:
		return fmt.Sprintf("Ineligible: Quit ≥ %s years ago", num(g.MaxQuitYears))
	case model.ReasonUnknownStatus:
		return "Ineligible: Unknown status"
	}
	return string(r)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
