// Package storage persists record tables as CSV, JSONL and SQLite.
package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/litrev/internal/record"
)

// utf8BOM is stripped from the first header cell; spreadsheet exports often
// start with one.
const utf8BOM = "\ufeff"

// ReadCSV reads a CSV file with a header row into a table. Empty cells are
// read as null. An empty file yields a table with no columns.
func ReadCSV(path string) (record.Table, error) {
	r, err := OpenReader(path)
	if err != nil {
		return record.Table{}, fmt.Errorf("opening table: %w", err)
	}
	defer r.Close()

	return DecodeCSV(r)
}

// DecodeCSV reads CSV with a header row from r.
func DecodeCSV(r io.Reader) (record.Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return record.ToTable(nil), nil
	}
	if err != nil {
		return record.Table{}, fmt.Errorf("reading header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if seen[h] {
			return record.Table{}, fmt.Errorf("duplicate column %q", h)
		}
		seen[h] = true
	}

	t := record.NewTable(header...)
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return record.Table{}, fmt.Errorf("reading row %d: %w", line, err)
		}

		values := make([]*string, len(row))
		for i, cell := range row {
			if cell != "" {
				values[i] = record.String(cell)
			}
		}
		if err := t.AppendRow(values); err != nil {
			return record.Table{}, fmt.Errorf("row %d: %w", line, err)
		}
	}

	return t, nil
}

// WriteCSV writes a table with a header row, creating parent directories.
// Null cells are written empty. A table without columns produces an empty
// file.
func WriteCSV(path string, t record.Table) error {
	w, err := CreateWriter(path)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	if err := EncodeCSV(w, t); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// EncodeCSV writes a table as CSV to w.
func EncodeCSV(w io.Writer, t record.Table) error {
	if len(t.Columns) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	n := t.Len()
	row := make([]string, len(t.Columns))
	for i := 0; i < n; i++ {
		for j, v := range t.Row(i) {
			row[j] = record.Value(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}
