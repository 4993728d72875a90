package summary

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/screening-cli/internal/accuracy"
	"github.com/sells-group/screening-cli/internal/fetcher"
)

// Output file names written by Write.
const (
	StatsFile    = "summary_stats.json"
	Table1File   = "table_1_demographics.csv"
	ReasonsFile  = "top_ineligibility_reasons.csv"
	WorkbookFile = "summary.xlsx"
)

// Write saves every summary output under dir and returns the paths written.
func Write(dir string, s Summary) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "summary: create %s", dir)
	}

	paths := []string{
		filepath.Join(dir, StatsFile),
		filepath.Join(dir, Table1File),
		filepath.Join(dir, ReasonsFile),
		filepath.Join(dir, WorkbookFile),
	}

	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return nil, eris.Wrap(err, "summary: marshal stats")
	}
	if err := os.WriteFile(paths[0], data, 0o644); err != nil {
		return nil, eris.Wrap(err, "summary: write stats")
	}

	table1 := table1Table(s)
	if err := fetcher.WriteTable(paths[1], &table1); err != nil {
		return nil, eris.Wrap(err, "summary: write table 1")
	}

	reasons := reasonsTable(s)
	if err := fetcher.WriteTable(paths[2], &reasons); err != nil {
		return nil, eris.Wrap(err, "summary: write reasons")
	}

	err = fetcher.WriteXLSX(paths[3],
		fetcher.Sheet{Name: "Table 1", Table: table1},
		fetcher.Sheet{Name: "Ineligibility Reasons", Table: reasons},
		fetcher.Sheet{Name: "Accuracy", Table: accuracyTable(s.Accuracy)},
	)
	if err != nil {
		return nil, eris.Wrap(err, "summary: write workbook")
	}
	return paths, nil
}

func table1Table(s Summary) fetcher.Table {
	t := fetcher.Table{Header: []string{"Metric", "Value"}}
	for _, r := range Table1(s) {
		t.Rows = append(t.Rows, []string{r.Metric, r.Value})
	}
	return t
}

func reasonsTable(s Summary) fetcher.Table {
	t := fetcher.Table{Header: []string{"reason", "count", "description"}}
	for _, r := range s.IneligibilityReasons {
		t.Rows = append(t.Rows, []string{string(r.Reason), strconv.Itoa(r.Count), r.Description})
	}
	return t
}

func accuracyTable(r *accuracy.Report) fetcher.Table {
	t := fetcher.Table{Header: []string{"field", "precision", "recall", "f1", "tp", "fp", "fn"}}
	if r == nil || r.NoData {
		return t
	}
	for _, f := range accuracy.Fields {
		m := r.Metrics[f]
		t.Rows = append(t.Rows, []string{
			f,
			strconv.FormatFloat(m.Precision, 'f', 4, 64),
			strconv.FormatFloat(m.Recall, 'f', 4, 64),
			strconv.FormatFloat(m.F1, 'f', 4, 64),
			strconv.Itoa(m.TP),
			strconv.Itoa(m.FP),
			strconv.Itoa(m.FN),
		})
	}
	return t
}
