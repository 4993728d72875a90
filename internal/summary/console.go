package summary

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/sells-group/screening-cli/internal/accuracy"
	"github.com/sells-group/screening-cli/internal/model"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen).SprintFunc()
	bad     = color.New(color.FgRed).SprintFunc()
	muted   = color.New(color.FgHiBlack).SprintFunc()
)

// RenderSummary prints Table 1, the ineligibility reasons, and accuracy
// metrics when present.
func RenderSummary(w io.Writer, s Summary) {
	heading.Fprintln(w, "Table 1: Demographics") //nolint:errcheck
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range Table1(s) {
		fmt.Fprintf(tw, "  %s\t%s\n", r.Metric, r.Value)
	}
	tw.Flush() //nolint:errcheck

	fmt.Fprintln(w)
	renderReasons(w, s.IneligibilityReasons)

	if s.Accuracy != nil {
		fmt.Fprintln(w)
		RenderAccuracy(w, s.Accuracy)
	}
}

// RenderAccuracy prints per-field precision, recall, and F1 with the join
// counts that determine the evaluated population.
func RenderAccuracy(w io.Writer, r *accuracy.Report) {
	heading.Fprintln(w, "Extraction Accuracy") //nolint:errcheck
	fmt.Fprintf(w, "  label policy %s; joined %d (reference %d, predicted %d, reference only %d, predicted only %d)\n",
		r.Policy, r.Joined, r.Reference, r.Predicted, r.ReferenceOnly, r.PredictedOnly)
	if r.NoData {
		fmt.Fprintf(w, "  %s\n", bad("no data: reference and predicted records share no names"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  FIELD\tPRECISION\tRECALL\tF1")
	for _, f := range accuracy.Fields {
		m := r.Metrics[f]
		fmt.Fprintf(tw, "  %s\t%.2f\t%.2f\t%s\n", f, m.Precision, m.Recall, score(m.F1))
	}
	tw.Flush() //nolint:errcheck
}

// RenderValidation prints a ValidationReport.
func RenderValidation(w io.Writer, rep ValidationReport) {
	heading.Fprintf(w, "Missing Values (%d rows)\n", rep.Rows) //nolint:errcheck
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, m := range rep.Missing {
		n := strconv.Itoa(m.Count)
		if m.Count == 0 {
			n = muted(n)
		}
		fmt.Fprintf(tw, "  %s\t%s\n", m.Column, n)
	}
	tw.Flush() //nolint:errcheck

	fmt.Fprintln(w)
	renderStats(w, "Pack-years statistics", rep.PackYears)
	fmt.Fprintln(w)
	renderStats(w, "Quit-years statistics", rep.QuitYears)

	fmt.Fprintln(w)
	heading.Fprintln(w, "Eligibility Breakdown") //nolint:errcheck
	fmt.Fprintf(w, "  %s  %d\n  %s  %d\n", good("True "), rep.Eligible, bad("False"), rep.Ineligible)

	fmt.Fprintln(w)
	renderReasons(w, rep.Reasons)

	fmt.Fprintln(w)
	heading.Fprintln(w, "Random sample for review") //nolint:errcheck
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tAGE\tPACK_YEARS\tQUIT_YEARS\tSTATUS\tELIGIBLE\tREASON")
	for _, r := range rep.Sample {
		fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			r.Patient.Name, r.Patient.Age,
			orDash(r.Extraction.PackYears), orDash(r.Extraction.QuitYears),
			r.Extraction.SmokingStatus, eligibleMark(r.Decision), r.Decision.Reason)
	}
	tw.Flush() //nolint:errcheck
}

func renderReasons(w io.Writer, reasons []ReasonCount) {
	heading.Fprintln(w, "Top Ineligibility Reasons") //nolint:errcheck
	if len(reasons) == 0 {
		fmt.Fprintf(w, "  %s\n", muted("none"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range reasons {
		fmt.Fprintf(tw, "  %s\t%d\t%s\n", r.Reason, r.Count, muted(r.Description))
	}
	tw.Flush() //nolint:errcheck
}

func renderStats(w io.Writer, title string, st *Stats) {
	heading.Fprintln(w, title) //nolint:errcheck
	if st == nil {
		fmt.Fprintf(w, "  %s\n", muted("no values"))
		return
	}
	std := "NaN"
	if st.Std != nil {
		std = strconv.FormatFloat(*st.Std, 'f', 2, 64)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  count\t%d\n", st.Count)
	fmt.Fprintf(tw, "  mean\t%.2f\n", st.Mean)
	fmt.Fprintf(tw, "  std\t%s\n", std)
	fmt.Fprintf(tw, "  min\t%.2f\n", st.Min)
	fmt.Fprintf(tw, "  25%%\t%.2f\n", st.P25)
	fmt.Fprintf(tw, "  50%%\t%.2f\n", st.P50)
	fmt.Fprintf(tw, "  75%%\t%.2f\n", st.P75)
	fmt.Fprintf(tw, "  max\t%.2f\n", st.Max)
	tw.Flush() //nolint:errcheck
}

func score(f1 float64) string {
	s := strconv.FormatFloat(f1, 'f', 2, 64)
	if f1 >= 0.9 {
		return good(s)
	}
	if f1 < 0.5 {
		return bad(s)
	}
	return s
}

func orDash(q model.Quantity) string {
	if !q.Valid {
		return "-"
	}
	return q.String()
}

func eligibleMark(d model.EligibilityDecision) string {
	if d.Eligible {
		return good("True")
	}
	return bad("False")
}
