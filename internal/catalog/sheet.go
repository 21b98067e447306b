package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is the first worksheet of a spreadsheet: a header row followed by
// one record per row. Short rows are padded to the header width.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// ReadSheet loads the first worksheet of an .xlsx file.
func ReadSheet(path string) (Sheet, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Sheet{}, fmt.Errorf("%w: %s", ErrInputMissing, path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Sheet{}, fmt.Errorf("%s has no worksheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Sheet{}, fmt.Errorf("read rows of %s: %w", path, err)
	}
	if len(rows) == 0 {
		return Sheet{}, nil
	}
	out := Sheet{Header: rows[0]}
	for _, r := range rows[1:] {
		rec := make([]string, len(out.Header))
		copy(rec, r)
		if len(r) > len(rec) {
			rec = append(rec[:len(out.Header)], r[len(out.Header):]...)
		}
		out.Rows = append(out.Rows, rec)
	}
	return out, nil
}

// Index returns the position of the named column (case-insensitive) or -1.
func (s Sheet) Index(name string) int {
	for i, h := range s.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Column returns the values of column i for every record; blank cells are
// kept as empty strings.
func (s Sheet) Column(i int) []string {
	out := make([]string, 0, len(s.Rows))
	for _, r := range s.Rows {
		if i < 0 || i >= len(r) {
			out = append(out, "")
			continue
		}
		out = append(out, strings.TrimSpace(r[i]))
	}
	return out
}

// Records maps every row to header name -> cell value.
func (s Sheet) Records() []map[string]string {
	out := make([]map[string]string, 0, len(s.Rows))
	for _, r := range s.Rows {
		rec := make(map[string]string, len(s.Header))
		for i, h := range s.Header {
			if i < len(r) {
				rec[h] = r[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

// WriteSheet writes header and rows to a new single-sheet .xlsx file.
func WriteSheet(path string, header []string, rows [][]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := sw.SetRow("A1", head); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.SaveAs(path)
}
