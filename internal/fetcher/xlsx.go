package fetcher

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int             // default 0
	SheetName  string          // if set, overrides SheetIndex
	SkipRows   int             // number of header rows to skip
	HeaderCh   chan<- []string // optional: receives the first row
}

// StreamXLSX reads an XLSX file and sends rows to a channel.
// Both channels are closed when processing completes.
func StreamXLSX(ctx context.Context, path string, opts XLSXOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		f, err := xlsx.OpenFile(path)
		if err != nil {
			errCh <- eris.Wrap(err, "xlsx: open file")
			return
		}

		sheet, err := getSheet(f, opts)
		if err != nil {
			errCh <- err
			return
		}

		if err := streamSheet(ctx, sheet, opts, rowCh); err != nil {
			errCh <- err
		}
	}()

	return rowCh, errCh
}

// streamSheet sends the rows of sheet. Missing rows are skipped; SkipRows and
// the header count only rows that are present.
func streamSheet(ctx context.Context, sheet *xlsx.Sheet, opts XLSXOptions, rowCh chan<- []string) error {
	seen := 0
	for _, row := range sheet.Rows {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "xlsx: context cancelled")
		}
		if row == nil {
			continue
		}

		cells := rowToStrings(row)
		seen++

		if seen == 1 && opts.HeaderCh != nil {
			select {
			case opts.HeaderCh <- cells:
			case <-ctx.Done():
				return eris.Wrap(ctx.Err(), "xlsx: context cancelled sending header")
			}
		}

		if seen <= opts.SkipRows {
			continue
		}

		select {
		case rowCh <- cells:
		case <-ctx.Done():
			return eris.Wrap(ctx.Err(), "xlsx: context cancelled")
		}
	}
	return nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// Sheet is one named worksheet of a workbook.
type Sheet struct {
	Name string
	Table
}

// WriteXLSX writes a workbook with one worksheet per sheet, in order. Header
// cells are bold. Cells whose text is the canonical form of a finite number
// are stored as numbers; everything else stays text so it reads back as written.
func WriteXLSX(path string, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return eris.New("xlsx: no sheets to write")
	}

	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.Name)
		if err != nil {
			return eris.Wrapf(err, "xlsx: add sheet %q", s.Name)
		}

		header := sheet.AddRow()
		for _, h := range s.Header {
			cell := header.AddCell()
			cell.SetString(h)
			cell.GetStyle().Font.Bold = true
		}
		for _, r := range s.Rows {
			row := sheet.AddRow()
			for _, v := range r {
				setCell(row.AddCell(), v)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "xlsx: create dir for %s", path)
	}
	return eris.Wrapf(f.Save(path), "xlsx: save %s", path)
}

func setCell(cell *xlsx.Cell, v string) {
	n, err := strconv.ParseFloat(v, 64)
	if err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) && strconv.FormatFloat(n, 'f', -1, 64) == v {
		cell.SetFloat(n)
		return
	}
	cell.SetString(v)
}
