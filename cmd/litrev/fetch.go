package main

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/matsen/litrev/internal/config"
	"github.com/matsen/litrev/internal/pubmed"
	"github.com/matsen/litrev/internal/record"
	"github.com/matsen/litrev/internal/storage"
	"github.com/spf13/cobra"
)

// PubMed CSV export columns.
const (
	ColumnPMID = "PMID"
	ColumnDOI  = "DOI"
)

// pubmedRenames maps PubMed export columns to record fields.
var pubmedRenames = map[string]string{
	"Title":            record.FieldTitle,
	"Publication Year": record.FieldYear,
	ColumnDOI:          record.FieldDOI,
}

var (
	fetchOutput    string
	fetchBatchSize int
	fetchDOI       bool
)

func init() {
	// Load .env file if present (for NCBI_API_KEY)
	_ = godotenv.Load()

	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", filepath.Join(config.DefaultOutputDir, "PubMedQueriedArticles.csv"), "Output table path")
	fetchCmd.Flags().IntVar(&fetchBatchSize, "batch-size", pubmed.DefaultBatchSize, "PMIDs per efetch request")
	fetchCmd.Flags().BoolVar(&fetchDOI, "doi", false, "Fill empty DOI cells from the MEDLINE article identifiers")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <pubmed.csv>",
	Short: "Add PubMed abstracts to a PubMed CSV export",
	Long: `Fetch the abstract of every article in a PubMed CSV export from NCBI
E-utilities, by PMID, and write the export with an added abstract column.
Title, Publication Year and DOI are renamed to title, year and doi.

Requests are rate limited to 3/s, or 10/s when NCBI_API_KEY is set.
NCBI_EMAIL is sent as the contact address. Both may live in a .env file.

Examples:
  litrev fetch PubMedCsv/PubMedQuery.csv
  litrev fetch export.csv --doi -o queriedArticles/pubmed.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

// FetchResponse is the response for the fetch command.
type FetchResponse struct {
	Input     string `json:"input"`
	Output    string `json:"output"`
	Articles  int    `json:"articles"`
	Abstracts int    `json:"abstracts"`
	DOIsAdded int    `json:"dois_added,omitempty"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	input := args[0]
	t, err := storage.ReadTable(input)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", input, err)
	}
	ids, err := pmids(t)
	if err != nil {
		exitWithError(ExitDataError, "%s: %v", input, err)
	}

	client := pubmed.NewClient(
		pubmed.WithAPIKey(config.GetNCBIAPIKey()),
		pubmed.WithEmail(config.GetNCBIEmail()),
		pubmed.WithLogger(log),
	)
	records, err := client.Fetch(cmd.Context(), ids, fetchBatchSize)
	if err != nil {
		exitWithError(ExitNetworkError, "fetching abstracts: %v", err)
	}

	resp := FetchResponse{Input: input, Output: fetchOutput, Articles: len(ids)}
	if fetchDOI {
		resp.DOIsAdded = fillDOIs(&t, records)
	}
	abstracts := make([]*string, len(records))
	for i, rec := range records {
		if rec != nil {
			abstracts[i] = rec.Abstract()
		}
		if abstracts[i] != nil {
			resp.Abstracts++
		}
	}
	if err := setColumn(&t, record.FieldAbstract, abstracts); err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	t.Rename(pubmedRenames)

	if err := writeTable(fetchOutput, storage.FormatFromPath(fetchOutput), t); err != nil {
		exitWithError(ExitError, "writing %s: %v", fetchOutput, err)
	}

	if humanOutput {
		fmt.Printf("Fetched %d abstracts for %d articles\n", resp.Abstracts, resp.Articles)
		if fetchDOI {
			fmt.Printf("Filled %d missing DOIs\n", resp.DOIsAdded)
		}
		fmt.Printf("Written to %s\n", resp.Output)
	} else {
		outputJSON(resp)
	}
	return nil
}

// pmids returns the PMID column as strings. Rows without a PMID are an error.
func pmids(t record.Table) ([]string, error) {
	col := t.Column(ColumnPMID)
	if col == nil {
		return nil, fmt.Errorf("no %s column", ColumnPMID)
	}
	ids := make([]string, len(col))
	for i, v := range col {
		if v == nil || *v == "" {
			return nil, fmt.Errorf("row %d has no %s", i+1, ColumnPMID)
		}
		ids[i] = *v
	}
	return ids, nil
}

// fillDOIs sets null DOI cells from the records' article identifiers, adding
// the DOI column if the export lacks it. Returns the number of cells filled.
func fillDOIs(t *record.Table, records []pubmed.Medline) int {
	dois := t.Column(ColumnDOI)
	if dois == nil {
		dois = make([]*string, t.Len())
	}
	filled := 0
	for i, rec := range records {
		if i >= len(dois) || rec == nil || (dois[i] != nil && *dois[i] != "") {
			continue
		}
		if doi := rec.DOI(); doi != nil {
			dois[i] = doi
			filled++
		}
	}
	if !t.HasColumn(ColumnDOI) {
		_ = t.AddColumn(ColumnDOI, dois)
	}
	return filled
}

// setColumn adds a column or replaces an existing one.
func setColumn(t *record.Table, name string, values []*string) error {
	if t.HasColumn(name) {
		if len(values) != t.Len() {
			return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.Len())
		}
		t.Values[name] = values
		return nil
	}
	return t.AddColumn(name, values)
}
