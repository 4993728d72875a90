// Package summary aggregates screened records into the descriptive outputs
// consumed by reporting: eligibility counts, Table 1, ineligibility reasons,
// comorbidity frequencies, and a data validation report.
package summary

import (
	"sort"
	"strings"

	"github.com/sells-group/screening-cli/internal/accuracy"
	"github.com/sells-group/screening-cli/internal/eligibility"
	"github.com/sells-group/screening-cli/internal/model"
)

// DefaultTopComorbidities is the number of comorbidities listed in Table 1.
const DefaultTopComorbidities = 3

// Share is a count with its percentage of all patients, to one decimal.
type Share struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ReasonCount is how many ineligible patients share a reason.
type ReasonCount struct {
	Reason      model.EligibilityReason `json:"reason"`
	Description string                  `json:"description"`
	Count       int                     `json:"count"`
}

// Comorbidity is a named condition and its share of all patients.
type Comorbidity struct {
	Name string `json:"name"`
	Share
}

// Summary is the aggregate view of one screening run.
type Summary struct {
	Guideline            eligibility.Guideline `json:"guideline"`
	TotalPatients        int                   `json:"total_patients"`
	Eligible             Share                 `json:"eligible"`
	Ineligible           Share                 `json:"ineligible"`
	MissedHighRisk       Share                 `json:"missed_high_risk"`
	Age                  *Stats                `json:"age"`
	PackYears            *Stats                `json:"pack_years"`
	QuitYears            *Stats                `json:"quit_years"`
	IneligibilityReasons []ReasonCount         `json:"ineligibility_reasons"`
	TopComorbidities     []Comorbidity         `json:"top_comorbidities"`
	Accuracy             *accuracy.Report      `json:"accuracy,omitempty"`
}

// Compute aggregates rows. Missed high-risk patients are ineligible despite
// meeting the pack-year minimum. Quit-year statistics cover former smokers
// with a known quit-years value. topN <= 0 selects DefaultTopComorbidities.
func Compute(rows []model.ScreenedRecord, g eligibility.Guideline, topN int) Summary {
	if topN <= 0 {
		topN = DefaultTopComorbidities
	}
	total := len(rows)

	var (
		eligible, missed   int
		ages, packs, quits []float64
	)
	reasons := make(map[model.EligibilityReason]int)
	comorbidityCounts := make(map[string]int)
	for _, r := range rows {
		ages = append(ages, float64(r.Patient.Age))
		pack := r.Extraction.PackYears
		if pack.Valid {
			packs = append(packs, pack.Value)
		}
		if r.Extraction.SmokingStatus == model.StatusFormer && r.Extraction.QuitYears.Valid {
			quits = append(quits, r.Extraction.QuitYears.Value)
		}

		if r.Decision.Eligible {
			eligible++
		} else {
			reasons[r.Decision.Reason]++
			if pack.Valid && pack.Value >= g.MinPackYears {
				missed++
			}
		}

		for _, c := range SplitComorbidities(r.Patient.Comorbidities) {
			comorbidityCounts[c]++
		}
	}

	s := Summary{
		Guideline:      g,
		TotalPatients:  total,
		Eligible:       Share{Count: eligible, Percent: percent(eligible, total)},
		Ineligible:     Share{Count: total - eligible, Percent: percent(total-eligible, total)},
		MissedHighRisk: Share{Count: missed, Percent: percent(missed, total)},
		Age:            Describe(ages),
		PackYears:      Describe(packs),
		QuitYears:      Describe(quits),
	}

	s.IneligibilityReasons = rankReasons(reasons, g)

	s.TopComorbidities = make([]Comorbidity, 0, topN)
	for _, name := range topKeys(comorbidityCounts, topN) {
		n := comorbidityCounts[name]
		s.TopComorbidities = append(s.TopComorbidities, Comorbidity{Name: name, Share: Share{Count: n, Percent: percent(n, total)}})
	}
	return s
}

// rankReasons orders reasons by count descending, then code ascending.
func rankReasons(counts map[model.EligibilityReason]int, g eligibility.Guideline) []ReasonCount {
	out := make([]ReasonCount, 0, len(counts))
	for r, n := range counts {
		out = append(out, ReasonCount{Reason: r, Description: g.Describe(r), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

// SplitComorbidities splits a comma-separated cell into trimmed, non-empty names.
func SplitComorbidities(cell string) []string {
	var out []string
	for _, part := range strings.Split(cell, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// topKeys returns up to n keys by count descending, then name ascending.
func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
