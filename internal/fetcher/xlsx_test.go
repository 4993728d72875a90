package fetcher

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "patients.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestStreamXLSX_SkipsHeader(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Patients": {
			{"name", "age"},
			{"Ada", "55"},
			{"Bo", "61"},
		},
	})
	headerCh := make(chan []string, 1)

	rowCh, errCh := StreamXLSX(context.Background(), path, XLSXOptions{SkipRows: 1, HeaderCh: headerCh})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Ada", "55"}, {"Bo", "61"}}, rows)
	assert.Equal(t, []string{"name", "age"}, <-headerCh)
}

func TestStreamXLSX_SheetByName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Labels": {{"name"}, {"Ada"}},
	})

	rowCh, errCh := StreamXLSX(context.Background(), path, XLSXOptions{SheetName: "Labels"})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rowCh, errCh = StreamXLSX(context.Background(), path, XLSXOptions{SheetName: "Missing"})
	_, err = collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Missing" not found`)
}

func TestStreamXLSX_SheetIndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Only": {{"a"}}})

	rowCh, errCh := StreamXLSX(context.Background(), path, XLSXOptions{SheetIndex: 3})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestStreamXLSX_MissingFile(t *testing.T) {
	rowCh, errCh := StreamXLSX(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open file")
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.xlsx")
	err := WriteXLSX(path,
		Sheet{Name: "Table 1", Table: Table{
			Header: []string{"Metric", "Value"},
			Rows:   [][]string{{"Total Patients", "100"}, {"Eligible Patients", "40 (40.0%)"}},
		}},
		Sheet{Name: "Accuracy", Table: Table{Header: []string{"field", "f1"}}},
	)
	require.NoError(t, err)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)
	assert.Equal(t, "Table 1", f.Sheets[0].Name)
	assert.Equal(t, "Accuracy", f.Sheets[1].Name)

	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Metric", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "100", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, xlsx.CellTypeNumeric, sheet.Rows[1].Cells[1].Type())
	assert.Equal(t, "40 (40.0%)", sheet.Rows[2].Cells[1].String())
}

func TestWriteXLSX_NoSheets(t *testing.T) {
	err := WriteXLSX(filepath.Join(t.TempDir(), "x.xlsx"))
	require.Error(t, err)
}

func TestStreamSheet_HeaderFromFirstPresentRow(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Patients")
	require.NoError(t, err)
	for _, rowData := range [][]string{{"name", "age"}, {"Ada", "55"}} {
		row := sheet.AddRow()
		for _, v := range rowData {
			row.AddCell().SetString(v)
		}
	}
	sheet.Rows = append([]*xlsx.Row{nil}, sheet.Rows...)

	headerCh := make(chan []string, 1)
	rowCh := make(chan []string, 4)
	err = streamSheet(context.Background(), sheet, XLSXOptions{SkipRows: 1, HeaderCh: headerCh}, rowCh)
	require.NoError(t, err)
	close(rowCh)

	var rows [][]string
	for r := range rowCh {
		rows = append(rows, r)
	}
	assert.Equal(t, []string{"name", "age"}, <-headerCh)
	assert.Equal(t, [][]string{{"Ada", "55"}}, rows)
}

func TestWriteXLSX_KeepsNonCanonicalNumbersAsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.xlsx")
	err := WriteXLSX(path, Sheet{Name: "data", Table: Table{
		Header: []string{"name", "pack_years", "quit_years"},
		Rows:   [][]string{{"007", "20.0", "1e3"}, {"Ada", "20", "3"}},
	}})
	require.NoError(t, err)

	table, err := ReadTable(context.Background(), path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"007", "20.0", "1e3"}, {"Ada", "20", "3"}}, table.Rows)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	cells := f.Sheets[0].Rows[1].Cells
	assert.Equal(t, xlsx.CellTypeString, cells[0].Type())
	assert.Equal(t, xlsx.CellTypeString, cells[1].Type())
	assert.Equal(t, xlsx.CellTypeNumeric, f.Sheets[0].Rows[2].Cells[1].Type())
}
