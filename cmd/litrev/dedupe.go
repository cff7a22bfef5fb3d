package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matsen/litrev/internal/config"
	"github.com/matsen/litrev/internal/dedupe"
	"github.com/matsen/litrev/internal/record"
	"github.com/matsen/litrev/internal/storage"
	"github.com/spf13/cobra"
)

// DefaultUniqueOutput is where the merged table is written.
const DefaultUniqueOutput = "uniqueArticles.csv"

var dedupeOutput string

func init() {
	dedupeCmd.Flags().StringVarP(&dedupeOutput, "output", "o", DefaultUniqueOutput, "Output table path")
	rootCmd.AddCommand(dedupeCmd)
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe [tables...]",
	Short: "Merge article tables and drop duplicate titles and DOIs",
	Long: `Merge the per-database article tables, keep the title, year and doi
columns and remove duplicates: titles are compared case-insensitively and the
first occurrence wins, then rows repeating an already kept DOI are dropped.
Rows without a DOI are always kept.

Tables default to every CSV and JSONL table in queriedArticles, compressed
or not, in sorted order.

Examples:
  litrev dedupe
  litrev dedupe queriedArticles/ACM*.csv queriedArticles/IEEE*.csv queriedArticles/PubMed*.csv`,
	RunE: runDedupe,
}

// DedupeInput reports the row count of one input table.
type DedupeInput struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// DedupeResponse is the response for the dedupe command.
type DedupeResponse struct {
	Inputs          []DedupeInput `json:"inputs"`
	Total           int           `json:"total"`
	DuplicateTitles int           `json:"duplicate_titles"`
	DuplicateDOIs   int           `json:"duplicate_dois"`
	Unique          int           `json:"unique"`
	Output          string        `json:"output"`
}

func runDedupe(cmd *cobra.Command, args []string) error {
	paths, err := dedupeInputs(args, config.DefaultOutputDir)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	tables := make([]record.Table, 0, len(paths))
	for _, p := range paths {
		t, err := storage.ReadTable(p)
		if err != nil {
			exitWithError(ExitDataError, "reading %s: %v", p, err)
		}
		log.WithField("file", p).Debugf("read %d rows", t.Len())
		tables = append(tables, t)
	}

	merged, stats := dedupe.Merge(tables...)
	if err := writeTable(dedupeOutput, storage.FormatFromPath(dedupeOutput), merged); err != nil {
		exitWithError(ExitError, "writing %s: %v", dedupeOutput, err)
	}

	resp := DedupeResponse{
		Inputs:          make([]DedupeInput, len(paths)),
		Total:           stats.Total,
		DuplicateTitles: stats.DuplicateTitles,
		DuplicateDOIs:   stats.DuplicateDOIs,
		Unique:          stats.Unique,
		Output:          dedupeOutput,
	}
	for i, p := range paths {
		resp.Inputs[i] = DedupeInput{Path: p, Rows: stats.Inputs[i]}
	}

	if humanOutput {
		fmt.Println(formatInputCounts(resp.Inputs))
		fmt.Printf("%d unique articles (%d duplicate titles, %d duplicate DOIs) written to %s\n",
			resp.Unique, resp.DuplicateTitles, resp.DuplicateDOIs, resp.Output)
	} else {
		outputJSON(resp)
	}
	return nil
}

// tableExtensions are the table files dedupe picks up by default.
var tableExtensions = []string{".csv", ".jsonl", ".ndjson"}

// dedupeInputs returns the tables to merge: args as given, or every table in
// dir in sorted order.
func dedupeInputs(args []string, dir string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var paths []string
	for _, ext := range tableExtensions {
		for _, suffix := range []string{"", storage.SuffixGzip, storage.SuffixZstd} {
			matches, err := filepath.Glob(filepath.Join(dir, "*"+ext+suffix))
			if err != nil {
				return nil, err
			}
			paths = append(paths, matches...)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no tables in %s (looked for %s)", dir, strings.Join(tableExtensions, ", "))
	}
	sort.Strings(paths)
	return paths, nil
}

// formatInputCounts formats input sizes as "ACM (n = 10), IEEE (n = 4)".
func formatInputCounts(inputs []DedupeInput) string {
	parts := make([]string, len(inputs))
	for i, in := range inputs {
		base := filepath.Base(storage.StripCompression(in.Path))
		name := strings.TrimSuffix(base, filepath.Ext(base))
		name = strings.TrimSuffix(name, "QueriedArticles")
		parts[i] = fmt.Sprintf("%s (n = %d)", name, in.Rows)
	}
	return strings.Join(parts, ", ")
}
