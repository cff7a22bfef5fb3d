package storage

import (
	"fmt"

	"github.com/matsen/litrev/internal/record"
)

// Table formats.
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// FormatFromPath guesses the table format from the file extension,
// ignoring a .gz or .zst suffix and defaulting to CSV.
func FormatFromPath(path string) string {
	if hasExt(path, ".jsonl", ".ndjson") {
		return FormatJSONL
	}
	return FormatCSV
}

// ReadTable reads a CSV or JSONL table, chosen by extension.
func ReadTable(path string) (record.Table, error) {
	if FormatFromPath(path) == FormatJSONL {
		return ReadJSONL(path)
	}
	return ReadCSV(path)
}

// WriteTable writes t in the given format.
func WriteTable(path, format string, t record.Table) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(path, t)
	case FormatJSONL:
		return WriteJSONL(path, t)
	}
	return fmt.Errorf("unknown table format %q", format)
}
