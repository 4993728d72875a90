// Package fetcher reads and writes the tabular files exchanged by the
// screening pipeline. CSV and XLSX are supported, chosen by file extension.
package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format identifies a tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf picks the format from the path extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", eris.Errorf("fetcher: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
}

// Table is a header row plus data rows. Data rows may be shorter than the
// header when trailing cells are empty.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadOptions configures ReadTable.
type ReadOptions struct {
	Charset string // CSV only; empty means UTF-8
	Sheet   string // XLSX only; empty means the first sheet
}

// ReadTable loads a whole CSV or XLSX file. The first row is the header.
func ReadTable(ctx context.Context, path string, opts ReadOptions) (*Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	headerCh := make(chan []string, 1)
	var (
		rowCh <-chan []string
		errCh <-chan error
	)

	switch format {
	case FormatCSV:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer f.Close() //nolint:errcheck

		r, err := DecodeReader(f, opts.Charset)
		if err != nil {
			return nil, err
		}
		rowCh, errCh = StreamCSV(ctx, r, CSVOptions{HasHeader: true, HeaderCh: headerCh, TrimSpace: true})
	case FormatXLSX:
		rowCh, errCh = StreamXLSX(ctx, path, XLSXOptions{SheetName: opts.Sheet, SkipRows: 1, HeaderCh: headerCh})
	}

	t := &Table{}
	for row := range rowCh {
		t.Rows = append(t.Rows, row)
	}
	for err := range errCh {
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: read %s", path)
		}
	}

	select {
	case t.Header = <-headerCh:
	default:
		return nil, eris.Errorf("fetcher: %s has no header row", path)
	}
	return t, nil
}

// WriteTable writes t to path in the format implied by its extension,
// creating parent directories as needed.
func WriteTable(path string, t *Table) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "fetcher: create dir for %s", path)
	}

	if format == FormatXLSX {
		return WriteXLSX(path, Sheet{Name: "data", Table: *t})
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "fetcher: create %s", path)
	}
	if err := WriteCSV(f, t.Header, t.Rows); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "fetcher: close %s", path)
}
