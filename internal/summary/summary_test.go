package summary

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/screening-cli/internal/accuracy"
	"github.com/sells-group/screening-cli/internal/eligibility"
	"github.com/sells-group/screening-cli/internal/model"
)

func screened(name string, age int, pack, quit model.Quantity, status model.SmokingStatus, reason model.EligibilityReason, comorbidities string) model.ScreenedRecord {
	return model.ScreenedRecord{
		Patient: model.PatientRecord{Name: name, Age: age, Comorbidities: comorbidities, Note: "note"},
		Extraction: model.ExtractionResult{
			Name: name, PackYears: pack, QuitYears: quit, SmokingStatus: status,
		},
		Decision: model.EligibilityDecision{Eligible: reason.Eligible(), Reason: reason},
	}
}

func cohort() []model.ScreenedRecord {
	k, a := model.Known, model.Absent()
	return []model.ScreenedRecord{
		screened("Ada", 55, k(30), a, model.StatusCurrent, model.ReasonEligibleCurrent, "COPD, Hypertension"),
		screened("Bo", 45, k(30), a, model.StatusCurrent, model.ReasonAgeBelowMin, "COPD"),
		screened("Cy", 65, k(10), a, model.StatusCurrent, model.ReasonInsufficientPackYears, "Diabetes"),
		screened("Di", 65, k(25), k(20), model.StatusFormer, model.ReasonQuitTooLongAgo, "Hypertension, COPD"),
		screened("Ed", 60, k(25), k(10), model.StatusFormer, model.ReasonEligibleRecentQuitter, ""),
	}
}

func TestDescribe(t *testing.T) {
	st := Describe([]float64{4, 1, 3, 2})
	require.NotNil(t, st)
	assert.Equal(t, 4, st.Count)
	assert.InDelta(t, 2.5, st.Mean, 1e-9)
	require.NotNil(t, st.Std)
	assert.InDelta(t, math.Sqrt(5.0/3.0), *st.Std, 1e-9)
	assert.InDelta(t, 1, st.Min, 1e-9)
	assert.InDelta(t, 1.75, st.P25, 1e-9)
	assert.InDelta(t, 2.5, st.P50, 1e-9)
	assert.InDelta(t, 3.25, st.P75, 1e-9)
	assert.InDelta(t, 4, st.Max, 1e-9)
}

func TestDescribe_Degenerate(t *testing.T) {
	assert.Nil(t, Describe(nil))

	one := Describe([]float64{7})
	require.NotNil(t, one)
	assert.Nil(t, one.Std)
	assert.InDelta(t, 7, one.P25, 1e-9)
	assert.InDelta(t, 7, one.P75, 1e-9)
}

func TestCompute(t *testing.T) {
	s := Compute(cohort(), eligibility.DefaultGuideline(), 0)

	assert.Equal(t, 5, s.TotalPatients)
	assert.Equal(t, Share{Count: 2, Percent: 40}, s.Eligible)
	assert.Equal(t, Share{Count: 3, Percent: 60}, s.Ineligible)
	assert.Equal(t, Share{Count: 2, Percent: 40}, s.MissedHighRisk)

	require.NotNil(t, s.Age)
	assert.InDelta(t, 58, s.Age.Mean, 1e-9)
	require.NotNil(t, s.PackYears)
	assert.InDelta(t, 24, s.PackYears.Mean, 1e-9)
	require.NotNil(t, s.QuitYears)
	assert.Equal(t, 2, s.QuitYears.Count)
	assert.InDelta(t, 15, s.QuitYears.Mean, 1e-9)

	require.Len(t, s.IneligibilityReasons, 3)
	assert.Equal(t, model.ReasonAgeBelowMin, s.IneligibilityReasons[0].Reason)
	assert.Equal(t, "Ineligible: Age below 50", s.IneligibilityReasons[0].Description)
	assert.Equal(t, model.ReasonInsufficientPackYears, s.IneligibilityReasons[1].Reason)
	assert.Equal(t, model.ReasonQuitTooLongAgo, s.IneligibilityReasons[2].Reason)

	require.Len(t, s.TopComorbidities, 3)
	assert.Equal(t, "COPD", s.TopComorbidities[0].Name)
	assert.Equal(t, 3, s.TopComorbidities[0].Count)
	assert.InDelta(t, 60, s.TopComorbidities[0].Percent, 1e-9)
	assert.Equal(t, "Hypertension", s.TopComorbidities[1].Name)
	assert.Equal(t, "Diabetes", s.TopComorbidities[2].Name)
}

func TestCompute_ReasonsSortedByCount(t *testing.T) {
	k, a := model.Known, model.Absent()
	rows := []model.ScreenedRecord{
		screened("A", 40, k(30), a, model.StatusCurrent, model.ReasonAgeBelowMin, ""),
		screened("B", 60, k(5), a, model.StatusCurrent, model.ReasonInsufficientPackYears, ""),
		screened("C", 60, k(5), a, model.StatusCurrent, model.ReasonInsufficientPackYears, ""),
	}
	s := Compute(rows, eligibility.DefaultGuideline(), 3)
	require.Len(t, s.IneligibilityReasons, 2)
	assert.Equal(t, model.ReasonInsufficientPackYears, s.IneligibilityReasons[0].Reason)
	assert.Equal(t, 2, s.IneligibilityReasons[0].Count)
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, eligibility.DefaultGuideline(), 3)
	assert.Equal(t, 0, s.TotalPatients)
	assert.Nil(t, s.Age)
	assert.Empty(t, s.IneligibilityReasons)
	assert.Empty(t, s.TopComorbidities)

	rows := Table1(s)
	assert.Equal(t, "0 (0.0%)", rows[1].Value)
	assert.Equal(t, "N/A", rows[4].Value)
}

func TestTable1(t *testing.T) {
	rows := Table1(Compute(cohort(), eligibility.DefaultGuideline(), 3))

	want := []TableRow{
		{"Total Patients", "5"},
		{"Eligible Patients (%)", "2 (40.0%)"},
		{"Ineligible Patients (%)", "3 (60.0%)"},
		{"Missed High-Risk Smokers (%)", "40.0%"},
		{"Age (Mean ± SD)", "58.0 ± 8.4"},
		{"Pack-Years (Mean ± SD)", "24.0 ± 8.2"},
		{"Quit-Years (Mean ± SD)", "15.0 ± 7.1"},
		{"Top Comorbidities", "COPD (60.0%), Hypertension (40.0%), Diabetes (20.0%)"},
	}
	assert.Equal(t, want, rows)
}

func TestTable1_SingleQuitValueHasNoSD(t *testing.T) {
	k, a := model.Known, model.Absent()
	rows := []model.ScreenedRecord{
		screened("A", 60, k(30), k(4), model.StatusFormer, model.ReasonEligibleRecentQuitter, ""),
		screened("B", 60, k(30), a, model.StatusCurrent, model.ReasonEligibleCurrent, ""),
	}
	assert.Equal(t, "4.0 ± N/A", Table1(Compute(rows, eligibility.DefaultGuideline(), 3))[6].Value)
}

func TestSplitComorbidities(t *testing.T) {
	assert.Equal(t, []string{"COPD", "Type 2 Diabetes"}, SplitComorbidities(" COPD ,, Type 2 Diabetes, "))
	assert.Empty(t, SplitComorbidities(""))
}

func TestWrite(t *testing.T) {
	s := Compute(cohort(), eligibility.DefaultGuideline(), 3)
	s.Accuracy = &accuracy.Report{
		Policy: accuracy.LabelCanonical, Joined: 1,
		Metrics: map[string]accuracy.FieldMetrics{
			accuracy.FieldPackYears:     {Precision: 1, Recall: 1, F1: 1},
			accuracy.FieldQuitYears:     {Precision: 1, Recall: 1, F1: 1},
			accuracy.FieldSmokingStatus: {Precision: 0.5, Recall: 0.5, F1: 0.5},
		},
	}

	dir := filepath.Join(t.TempDir(), "processed")
	paths, err := Write(dir, s)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	data, err := os.ReadFile(filepath.Join(dir, StatsFile))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.InDelta(t, 5, decoded["total_patients"], 1e-9)
	assert.Contains(t, decoded, "missed_high_risk")
	pack := decoded["pack_years"].(map[string]any)
	assert.Contains(t, pack, "25%")

	table1, err := os.ReadFile(filepath.Join(dir, Table1File))
	require.NoError(t, err)
	assert.Contains(t, string(table1), "Metric,Value\nTotal Patients,5\n")

	reasons, err := os.ReadFile(filepath.Join(dir, ReasonsFile))
	require.NoError(t, err)
	assert.Contains(t, string(reasons), "reason,count,description\nAGE_BELOW_MIN,1,Ineligible: Age below 50\n")

	wb, err := xlsx.OpenFile(filepath.Join(dir, WorkbookFile))
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 3)
	assert.Equal(t, "Table 1", wb.Sheets[0].Name)
	assert.Equal(t, "Ineligibility Reasons", wb.Sheets[1].Name)
	assert.Equal(t, "Accuracy", wb.Sheets[2].Name)
	assert.Len(t, wb.Sheets[2].Rows, 4)
}

func TestValidate(t *testing.T) {
	rows := cohort()
	rep := Validate(rows, eligibility.DefaultGuideline(), ValidateOptions{SampleSize: 3, Seed: 42})

	assert.Equal(t, 5, rep.Rows)
	assert.Equal(t, 2, rep.Eligible)
	assert.Equal(t, 3, rep.Ineligible)

	missing := map[string]int{}
	for _, m := range rep.Missing {
		missing[m.Column] = m.Count
	}
	assert.Equal(t, 3, missing["quit_years"])
	assert.Equal(t, 0, missing["pack_years"])
	assert.Equal(t, 1, missing["comorbidities"])

	require.NotNil(t, rep.QuitYears)
	assert.Equal(t, 2, rep.QuitYears.Count)
	assert.Len(t, rep.Reasons, 3)

	require.Len(t, rep.Sample, 3)
	again := Validate(rows, eligibility.DefaultGuideline(), ValidateOptions{SampleSize: 3, Seed: 42})
	assert.Equal(t, rep.Sample, again.Sample)

	all := Validate(rows, eligibility.DefaultGuideline(), ValidateOptions{SampleSize: 50})
	assert.Len(t, all.Sample, 5)
}

func TestRender(t *testing.T) {
	color.NoColor = true

	s := Compute(cohort(), eligibility.DefaultGuideline(), 3)
	s.Accuracy = &accuracy.Report{Policy: accuracy.LabelCanonical, NoData: true}

	var buf bytes.Buffer
	RenderSummary(&buf, s)
	out := buf.String()
	assert.Contains(t, out, "Table 1: Demographics")
	assert.Contains(t, out, "58.0 ± 8.4")
	assert.Contains(t, out, "AGE_BELOW_MIN")
	assert.Contains(t, out, "no data")

	buf.Reset()
	RenderValidation(&buf, Validate(cohort(), eligibility.DefaultGuideline(), ValidateOptions{Seed: 1}))
	out = buf.String()
	assert.Contains(t, out, "Missing Values (5 rows)")
	assert.Contains(t, out, "Pack-years statistics")
	assert.Contains(t, out, "Random sample for review")
}
