package main

import (
	"errors"
	"fmt"

	"github.com/matsen/litrev/internal/config"
	"github.com/matsen/litrev/internal/filter"
	"github.com/matsen/litrev/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	parseDialect string
	parseOutput  string
	parseFormat  string
	parseDryRun  bool
)

func init() {
	parseCmd.Flags().StringVarP(&parseDialect, "dialect", "d", "", "Export dialect: ieee or acm (overrides config)")
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", "", "Output table path (overrides config)")
	parseCmd.Flags().StringVar(&parseFormat, "format", "", "Output format: csv or jsonl (overrides config)")
	parseCmd.Flags().BoolVar(&parseDryRun, "dry-run", false, "Parse and filter without writing the table")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse [files...]",
	Short: "Parse .bib exports and apply the screening filters",
	Long: `Parse IEEE Xplore or ACM Digital Library .bib exports, keep the records
whose keywords match the accepted terms and drop those whose title or abstract
contains an excluded term.

Files default to the configured input globs (IEEEBibFiles/*.bib for IEEE).
Entries that cannot be parsed are skipped and reported as diagnostics.

Examples:
  litrev parse
  litrev parse --dialect acm ACMBibFiles/*.bib
  litrev parse --config review.yml --format jsonl -o out/ieee.jsonl`,
	RunE: runParse,
}

// ParseResponse is the response for the parse command.
type ParseResponse struct {
	Dialect     string                 `json:"dialect"`
	Stages      []string               `json:"stages"`
	Files       []pipeline.FileSummary `json:"files"`
	Diagnostics []pipeline.Diagnostic  `json:"diagnostics"`
	Records     int                    `json:"records"`
	Output      string                 `json:"output,omitempty"`
	DryRun      bool                   `json:"dry_run,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg := mustLoadPipeline()
	applyParseFlags(&cfg)

	driver, err := pipeline.New(cfg, log)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.InputPatterns()
	}
	paths, err := pipeline.ExpandInputs(patterns)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	res, err := driver.Run(paths)
	if err != nil {
		if errors.Is(err, filter.ErrEmptyField) || errors.Is(err, filter.ErrUnknownField) {
			exitWithError(ExitConfigError, "%v", err)
		}
		exitWithError(ExitError, "%v", err)
	}

	resp := ParseResponse{
		Dialect:     res.Dialect,
		Stages:      make([]string, 0, len(driver.Stages())),
		Files:       res.Files,
		Diagnostics: res.Diagnostics,
		Records:     len(res.Records),
		DryRun:      parseDryRun,
	}
	for _, s := range driver.Stages() {
		resp.Stages = append(resp.Stages, s.String())
	}

	if !parseDryRun {
		out := cfg.OutputPath()
		if err := writeTable(out, cfg.OutputFormat(), res.Table); err != nil {
			exitWithError(ExitError, "writing %s: %v", out, err)
		}
		resp.Output = out
	}

	if humanOutput {
		printParseHuman(resp)
	} else {
		outputJSON(resp)
	}
	return nil
}

// applyParseFlags overrides configuration values with command-line flags.
func applyParseFlags(cfg *config.Pipeline) {
	if parseDialect != "" {
		cfg.Dialect = parseDialect
	}
	if parseOutput != "" {
		cfg.Output = parseOutput
		// The extension of an explicit output decides unless --format is set.
		cfg.Format = ""
	}
	if parseFormat != "" {
		cfg.Format = parseFormat
	}
}

func printParseHuman(resp ParseResponse) {
	fmt.Printf("Dialect: %s\n", resp.Dialect)
	if len(resp.Stages) > 0 {
		fmt.Printf("Filters: %v\n", resp.Stages)
	}
	for _, f := range resp.Files {
		if f.Error != "" {
			fmt.Printf("  %s: FAILED (%s)\n", f.Path, f.Error)
			continue
		}
		fmt.Printf("  %s: %d parsed, %d skipped, %d kept\n", f.Path, f.Parsed, f.Skipped, f.Kept)
	}
	if len(resp.Diagnostics) > 0 {
		fmt.Printf("\nSkipped entries:\n")
		for _, d := range resp.Diagnostics {
			title := d.Title
			if title == "" {
				title = "(no title)"
			}
			fmt.Printf("  %s #%d %s: %s\n", d.File, d.Entry, truncateString(title, DiagTitleMaxLen), d.Message)
		}
	}
	fmt.Printf("\n%d records", resp.Records)
	if resp.Output != "" {
		fmt.Printf(" written to %s", resp.Output)
	}
	fmt.Println()
}
