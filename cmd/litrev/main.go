// Package main provides the litrev CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/matsen/litrev/internal/config"
	"github.com/matsen/litrev/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
	quiet       bool
	configPath  string
)

// log writes diagnostics to stderr; results go to stdout.
var log = logrus.New()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "litrev",
	Short: "Literature-review screening pipeline",
	Long: `litrev builds a screened article list for a systematic literature review.

Stages:
  fetch    Add PubMed abstracts to a PubMed CSV export
  parse    Parse IEEE Xplore / ACM .bib exports and apply keyword filters
  dedupe   Merge the per-database tables and drop duplicate titles and DOIs
  index    Load a table into a local SQLite full-text index
  search   Query the index

All commands output JSON by default; use --human for readable output.
Diagnostics are logged to stderr.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug diagnostics")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Pipeline config file (default $LITREV_CONFIG or global config)")
	rootCmd.Version = Version
}

func setupLogging(cmd *cobra.Command, args []string) error {
	if verbose && quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	switch {
	case verbose:
		log.SetLevel(logrus.DebugLevel)
	case quiet:
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	return nil
}

// mustLoadPipeline loads the pipeline configuration, exits on error.
// --config wins over LITREV_CONFIG and the global config.
func mustLoadPipeline() config.Pipeline {
	path := configPath
	if path == "" {
		path = config.GetPipelinePath()
	}
	cfg, err := config.LoadPipeline(path)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if path != "" {
		log.WithField("path", path).Debug("loaded pipeline config")
	}
	return cfg
}

// mustOpenDatabase opens the SQLite corpus, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(path string) *storage.DB {
	db, err := storage.OpenDB(config.ExpandPath(path))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}
