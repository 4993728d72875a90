package summary

import (
	"fmt"
	"strconv"
	"strings"
)

// TableRow is one Metric/Value line of Table 1.
type TableRow struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

// Table1 renders the demographics table.
func Table1(s Summary) []TableRow {
	return []TableRow{
		{"Total Patients", strconv.Itoa(s.TotalPatients)},
		{"Eligible Patients (%)", fmt.Sprintf("%d (%s%%)", s.Eligible.Count, dec1(s.Eligible.Percent))},
		{"Ineligible Patients (%)", fmt.Sprintf("%d (%s%%)", s.Ineligible.Count, dec1(s.Ineligible.Percent))},
		{"Missed High-Risk Smokers (%)", dec1(s.MissedHighRisk.Percent) + "%"},
		{"Age (Mean ± SD)", meanSD(s.Age)},
		{"Pack-Years (Mean ± SD)", meanSD(s.PackYears)},
		{"Quit-Years (Mean ± SD)", meanSD(s.QuitYears)},
		{"Top Comorbidities", comorbidityList(s.TopComorbidities)},
	}
}

func meanSD(st *Stats) string {
	if st == nil {
		return "N/A"
	}
	sd := "N/A"
	if st.Std != nil {
		sd = dec1(round1(*st.Std))
	}
	return dec1(round1(st.Mean)) + " ± " + sd
}

func comorbidityList(cs []Comorbidity) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%s (%s%%)", c.Name, dec1(c.Percent))
	}
	return strings.Join(parts, ", ")
}

func dec1(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
