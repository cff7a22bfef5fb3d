// Package pipeline drives parsing and filtering of bibliography exports for
// one configured dialect.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matsen/litrev/internal/bib"
	"github.com/matsen/litrev/internal/config"
	"github.com/matsen/litrev/internal/filter"
	"github.com/matsen/litrev/internal/record"
	"github.com/matsen/litrev/internal/storage"
	"github.com/sirupsen/logrus"
)

// ErrNoInputs is returned when the input patterns match no files.
var ErrNoInputs = errors.New("no input files")

// Driver parses and filters the export files of one dialect.
type Driver struct {
	dialect bib.Dialect
	stages  []filter.Stage
	log     logrus.FieldLogger
}

// FileSummary reports what happened to one input file.
type FileSummary struct {
	Path    string `json:"path"`
	Parsed  int    `json:"parsed"`  // Records extracted
	Skipped int    `json:"skipped"` // Entries that failed extraction
	Kept    int    `json:"kept"`    // Records left after filtering
	Error   string `json:"error,omitempty"`
}

// Diagnostic describes one skipped entry.
type Diagnostic struct {
	File    string `json:"file"`
	Entry   int    `json:"entry"` // 1-based position in the file
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// Result is the outcome of a run.
type Result struct {
	Dialect     string          `json:"dialect"`
	Files       []FileSummary   `json:"files"`
	Diagnostics []Diagnostic    `json:"diagnostics"`
	Records     []record.Record `json:"-"`
	Table       record.Table    `json:"-"`
}

// New builds a driver from cfg. The dialect and filter stages are resolved
// here so configuration errors surface before any file is read.
func New(cfg config.Pipeline, log logrus.FieldLogger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dialect, err := bib.Lookup(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	stages, err := cfg.Stages()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Driver{
		dialect: dialect,
		stages:  stages,
		log:     log.WithField("dialect", dialect.Name()),
	}, nil
}

// Dialect returns the dialect the driver parses.
func (d *Driver) Dialect() bib.Dialect {
	return d.dialect
}

// Stages returns the filter stages run on every file.
func (d *Driver) Stages() []filter.Stage {
	return d.stages
}

// Run processes paths in order and accumulates the surviving records. A file
// that cannot be read is reported in its FileSummary and the run continues
// with the next file. A filter stage failing is a configuration error and
// aborts the run.
func (d *Driver) Run(paths []string) (*Result, error) {
	res := &Result{
		Dialect:     d.dialect.Name(),
		Files:       []FileSummary{},
		Diagnostics: []Diagnostic{},
	}

	for _, path := range paths {
		records, summary, diags, err := d.ProcessFile(path)
		res.Diagnostics = append(res.Diagnostics, diags...)
		if err != nil {
			if errors.Is(err, filter.ErrEmptyField) || errors.Is(err, filter.ErrUnknownField) {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			summary.Error = err.Error()
			d.log.WithField("file", path).WithError(err).Error("skipping file")
		}
		res.Files = append(res.Files, summary)
		res.Records = append(res.Records, records...)
	}

	res.Table = record.ToTable(res.Records)
	return res, nil
}

// ProcessFile reads, parses and filters one export file.
func (d *Driver) ProcessFile(path string) ([]record.Record, FileSummary, []Diagnostic, error) {
	summary := FileSummary{Path: path}
	log := d.log.WithField("file", path)
	log.Info("reading export")

	blob, err := ReadBlob(path)
	if err != nil {
		return nil, summary, nil, err
	}

	records, errs := bib.Parse(blob, d.dialect)
	summary.Parsed = len(records)
	summary.Skipped = len(errs)

	diags := make([]Diagnostic, 0, len(errs))
	for _, e := range errs {
		diag := Diagnostic{File: path, Message: e.Error()}
		var entryErr *bib.EntryError
		if errors.As(e, &entryErr) {
			diag.Entry = entryErr.Index + 1
			diag.Title = entryErr.Title
			diag.Message = entryErr.Err.Error()
		}
		log.WithFields(logrus.Fields{"entry": diag.Entry, "title": diag.Title}).Warn(diag.Message)
		diags = append(diags, diag)
	}

	kept, err := filter.Apply(records, d.stages)
	if err != nil {
		return nil, summary, diags, err
	}
	summary.Kept = len(kept)

	log.WithFields(logrus.Fields{
		"parsed":  summary.Parsed,
		"skipped": summary.Skipped,
		"kept":    summary.Kept,
	}).Debug("processed export")

	return kept, summary, diags, nil
}

// ReadBlob reads a whole export file, decompressing .gz and .zst exports.
// Invalid UTF-8 sequences are dropped.
func ReadBlob(path string) (string, error) {
	f, err := storage.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("reading export: %w", err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// ExpandInputs resolves glob patterns into a sorted, de-duplicated list of
// files. Patterns without glob characters are kept as literal paths.
func ExpandInputs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, pattern := range patterns {
		pattern = config.ExpandPath(pattern)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		if len(matches) == 0 && !strings.ContainsAny(pattern, "*?[") {
			matches = []string{pattern}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoInputs, patterns)
	}
	return paths, nil
}
