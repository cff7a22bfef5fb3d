package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matsen/litrev/internal/storage"
	"github.com/spf13/cobra"
)

// DefaultDBPath is the SQLite corpus used by index and search.
const DefaultDBPath = ".litrev/corpus.db"

var (
	indexDB     string
	indexSource string
)

func init() {
	indexCmd.Flags().StringVar(&indexDB, "db", DefaultDBPath, "SQLite database path")
	indexCmd.Flags().StringVar(&indexSource, "source", "", "Source label stored with each row (default: file name)")
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index <table>",
	Short: "Load an article table into the SQLite full-text index",
	Long: `Load a CSV or JSONL article table into a local SQLite database with an
FTS5 index over title, abstract and keywords. The previous contents are
replaced.

Examples:
  litrev index uniqueArticles.csv
  litrev index queriedArticles/IEEEQueriedArticles.csv --db ieee.db`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

// IndexResponse is the response for the index command.
type IndexResponse struct {
	Input    string `json:"input"`
	Database string `json:"database"`
	Articles int    `json:"articles"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	input := args[0]
	t, err := storage.ReadTable(input)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", input, err)
	}

	source := indexSource
	if source == "" {
		source = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}

	db := mustOpenDatabase(indexDB)
	defer db.Close()

	n, err := db.Load(t, source)
	if err != nil {
		exitWithError(ExitDataError, "indexing %s: %v", input, err)
	}

	if humanOutput {
		fmt.Printf("Indexed %d articles from %s into %s\n", n, input, indexDB)
	} else {
		outputJSON(IndexResponse{Input: input, Database: indexDB, Articles: n})
	}
	return nil
}
