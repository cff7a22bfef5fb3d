package storage

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/matsen/litrev/internal/record"
	"github.com/segmentio/encoding/json"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// WriteJSONL writes a table as one JSON object per row, keys in column
// order, null cells as null. Parent directories are created.
func WriteJSONL(path string, t record.Table) error {
	f, err := CreateWriter(path)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	if err := encodeRows(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeRows(dst io.Writer, t record.Table) error {
	w := bufio.NewWriter(dst)
	n := t.Len()
	for i := 0; i < n; i++ {
		line, err := encodeRow(t.Columns, t.Row(i))
		if err != nil {
			return fmt.Errorf("encoding row %d: %w", i+1, err)
		}
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// encodeRow builds a JSON object whose keys follow the column order.
func encodeRow(columns []string, row []*string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for j, c := range columns {
		if j > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(row[j])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ReadJSONL reads a JSONL table written by WriteJSONL. Record fields come
// first in Columns order, any other keys follow sorted. A missing file is an
// error; an empty file yields a table with no columns.
func ReadJSONL(path string) (record.Table, error) {
	f, err := OpenReader(path)
	if err != nil {
		return record.Table{}, fmt.Errorf("opening table: %w", err)
	}
	defer f.Close()

	var rows []map[string]*string
	keys := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var row map[string]*string
		if err := json.Unmarshal(line, &row); err != nil {
			return record.Table{}, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		for k := range row {
			keys[k] = true
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return record.Table{}, fmt.Errorf("reading table: %w", err)
	}

	if len(rows) == 0 {
		return record.ToTable(nil), nil
	}

	t := record.NewTable(orderColumns(keys)...)
	for _, row := range rows {
		values := make([]*string, len(t.Columns))
		for j, c := range t.Columns {
			values[j] = row[c]
		}
		t.AppendRow(values)
	}
	return t, nil
}

// orderColumns puts known record fields first, in output order.
func orderColumns(keys map[string]bool) []string {
	var cols, extra []string
	for _, c := range record.Columns {
		if keys[c] {
			cols = append(cols, c)
		}
	}
	for k := range keys {
		if !record.IsField(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}
