package main

import (
	"fmt"

	"github.com/matsen/litrev/internal/storage"
	"github.com/spf13/cobra"
)

var (
	searchDB    string
	searchLimit int
	searchDOI   string
)

func init() {
	searchCmd.Flags().StringVar(&searchDB, "db", DefaultDBPath, "SQLite database path")
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	searchCmd.Flags().StringVar(&searchDOI, "doi", "", "Lookup by exact DOI")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over the indexed articles",
	Long: `Search the indexed articles by title, abstract and keywords.

Every word must appear as the start of a word in the article, so
"histolog" finds "histology". A query containing punctuation such as
quotes or hyphens is matched as one exact phrase.

Examples:
  litrev search histolog
  litrev search "cell counting" --limit 10
  litrev search --doi 10.1145/3448016`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

// SearchResponse is the response for the search command.
type SearchResponse struct {
	Query    string            `json:"query,omitempty"`
	DOI      string            `json:"doi,omitempty"`
	Total    int               `json:"total"`
	Articles []storage.Article `json:"articles"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && searchDOI == "" {
		exitWithError(ExitError, "must specify a query or --doi")
	}

	db := mustOpenDatabase(searchDB)
	defer db.Close()

	resp := SearchResponse{DOI: searchDOI}
	var err error
	if searchDOI != "" {
		resp.Articles, err = db.FindByDOI(searchDOI)
	} else {
		resp.Query = args[0]
		resp.Articles, err = db.Search(resp.Query, searchLimit)
	}
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}
	if resp.Articles == nil {
		resp.Articles = []storage.Article{}
	}
	resp.Total = len(resp.Articles)

	if humanOutput {
		printArticlesHuman(resp.Articles)
	} else {
		outputJSON(resp)
	}
	return nil
}

func printArticlesHuman(articles []storage.Article) {
	if len(articles) == 0 {
		fmt.Println("No articles found.")
		return
	}
	for i, a := range articles {
		fmt.Printf("%d. %s\n", i+1, truncateString(a.Title, SearchTitleMaxLen))
		venue := a.Journal
		if venue == "" {
			venue = a.Source
		}
		fmt.Printf("   %s (%s)\n", venue, a.Year)
		if a.DOI != "" {
			fmt.Printf("   doi:%s\n", a.DOI)
		}
		fmt.Println()
	}
}
