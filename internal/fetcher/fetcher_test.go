package fetcher

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"data/patients.csv", FormatCSV, false},
		{"data/PATIENTS.CSV", FormatCSV, false},
		{"out/summary.xlsx", FormatXLSX, false},
		{"notes.json", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatOf(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		charset string
		want    string
	}{
		{"utf8 passthrough", "José", "", "José"},
		{"utf8 label", "José", "UTF-8", "José"},
		{"bom stripped", "\xEF\xBB\xBFname", "", "name"},
		{"windows-1252", "Jos\xe9", "windows-1252", "José"},
		{"latin1 alias", "Jos\xe9", "latin1", "José"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := DecodeReader(strings.NewReader(tt.input), tt.charset)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestDecodeReader_UnknownCharset(t *testing.T) {
	_, err := DecodeReader(strings.NewReader("x"), "klingon-8")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported charset")
}

func TestReadTable_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patients.csv")
	require.NoError(t, writeTestFile(path, "\xEF\xBB\xBFname,age\nAda, 55\nBo,61\n"))

	tbl, err := ReadTable(context.Background(), path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, tbl.Header)
	assert.Equal(t, [][]string{{"Ada", "55"}, {"Bo", "61"}}, tbl.Rows)
}

func TestReadTable_CSVCharset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patients.csv")
	require.NoError(t, writeTestFile(path, "name,age\nJos\xe9,70\n"))

	tbl, err := ReadTable(context.Background(), path, ReadOptions{Charset: "windows-1252"})
	require.NoError(t, err)
	assert.Equal(t, "José", tbl.Rows[0][0])
}

func TestReadTable_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"name", "age"}, {"Ada", "55"}},
	})

	tbl, err := ReadTable(context.Background(), path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, tbl.Header)
	assert.Equal(t, [][]string{{"Ada", "55"}}, tbl.Rows)
}

func TestReadTable_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadTable(context.Background(), filepath.Join(dir, "missing.csv"), ReadOptions{})
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, writeTestFile(empty, ""))
	_, err = ReadTable(context.Background(), empty, ReadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")

	_, err = ReadTable(context.Background(), filepath.Join(dir, "x.txt"), ReadOptions{})
	require.Error(t, err)
}

func TestWriteTable_RoundTrip(t *testing.T) {
	in := &Table{
		Header: []string{"name", "eligible", "eligibility_reason"},
		Rows: [][]string{
			{"Ada", "True", "ELIGIBLE_CURRENT_SMOKER"},
			{"Bo", "False", "AGE_BELOW_MIN"},
		},
	}

	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "out"+ext)
			require.NoError(t, WriteTable(path, in))

			out, err := ReadTable(context.Background(), path, ReadOptions{})
			require.NoError(t, err)
			assert.Equal(t, in.Header, out.Header)
			assert.Equal(t, in.Rows, out.Rows)
		})
	}
}
