package feefo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"nothsreports/internal/catalog"
)

// ProductCodeColumn replaces the API's sku column in exports.
const ProductCodeColumn = "Product Code"

// Table holds API products as rows keyed by field name. Columns lists every
// field in the order it was first seen.
type Table struct {
	Columns []string
	Rows    []map[string]any

	seen map[string]bool
}

func (t *Table) add(raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("product is not an object")
	}
	if t.seen == nil {
		t.seen = make(map[string]bool)
	}
	row := make(map[string]any)
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		row[key] = cellValue(v)
		if !t.seen[key] {
			t.seen[key] = true
			t.Columns = append(t.Columns, key)
		}
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// cellValue flattens a JSON value into something a spreadsheet cell holds.
// Objects and arrays are kept as compact JSON text.
func cellValue(v json.RawMessage) any {
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return string(v)
	}
	switch t := x.(type) {
	case nil:
		return ""
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case string, bool:
		return t
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return string(v)
		}
		return buf.String()
	}
}

// Export returns the header and rows for a spreadsheet: the sku column,
// matched case-insensitively, is renamed to ProductCodeColumn and moved to
// the front.
func (t *Table) Export() ([]string, [][]any) {
	cols := append([]string(nil), t.Columns...)
	header := append([]string(nil), cols...)
	for i, c := range cols {
		if strings.EqualFold(c, "sku") {
			cols = append([]string{c}, append(cols[:i:i], cols[i+1:]...)...)
			header = append([]string{ProductCodeColumn}, append(header[:i:i], header[i+1:]...)...)
			break
		}
	}
	rows := make([][]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make([]any, len(cols))
		for i, c := range cols {
			if v, ok := r[c]; ok {
				rec[i] = v
			} else {
				rec[i] = ""
			}
		}
		rows = append(rows, rec)
	}
	return header, rows
}

// WriteXLSX saves the exported table to path.
func (t *Table) WriteXLSX(path string) error {
	header, rows := t.Export()
	return catalog.WriteSheet(path, header, rows)
}

// FileName is the dated export name the enrichment job looks for.
func FileName(dir string, period Period, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("feefo_product_ratings_%s_%s.xlsx", period, now.UTC().Format("20060102")))
}
