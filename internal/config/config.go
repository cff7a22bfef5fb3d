// Package config handles pipeline and global configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/litrev/internal/bib"
	"github.com/matsen/litrev/internal/filter"
	"github.com/matsen/litrev/internal/record"
	"github.com/matsen/litrev/internal/storage"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// ValidFormats lists the supported table output formats.
var ValidFormats = []string{FormatCSV, FormatJSONL}

const (
	// DefaultOutputDir holds the per-database tables.
	DefaultOutputDir = "queriedArticles"
	// DefaultDialect is the export dialect parsed when none is configured.
	DefaultDialect = bib.DialectIEEE
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// StageConfig configures one filter stage.
type StageConfig struct {
	Kind  string   `yaml:"kind" json:"kind"`   // positive or negative
	Field string   `yaml:"field" json:"field"` // record field the stage reads
	Terms []string `yaml:"terms" json:"terms"` // "*" suffix matches any continuation
}

// Pipeline configures one run of the bibliography parser.
type Pipeline struct {
	Dialect string   `yaml:"dialect" json:"dialect"`
	Inputs  []string `yaml:"inputs,omitempty" json:"inputs,omitempty"` // Glob patterns
	Output  string   `yaml:"output,omitempty" json:"output,omitempty"`
	Format  string   `yaml:"format,omitempty" json:"format,omitempty"`

	// Filters maps a dialect name to the stages run on its records. A dialect
	// without an entry passes through unfiltered. Keys are case-insensitive.
	Filters map[string][]StageConfig `yaml:"filters" json:"filters"`
}

// Reference filter sets for the IEEE corpus.
var (
	// DefaultTitleTerms reject imaging-modality and deep-learning titles.
	DefaultTitleTerms = []string{
		"deep", "cnn", "network", "networks", "transformer*",
		"radio*", "mri", "3d", "three-dimension*",
		"magnetic", "tomograph*", "tomodensi*", "ultraso*",
		"ct", "mr", "pet", "electro*", "review",
	}

	// DefaultAbstractTerms reject video, endoscopy and cytology work.
	DefaultAbstractTerms = []string{"video", "endoscop*", "cytolog*"}

	// DefaultKeywordTerms are the accepted IEEE index terms.
	DefaultKeywordTerms = []string{
		"medical image processing", "optical microscopy", "feature extraction", "image segmentation",
		"cancer", "image classification", "biomedical optical imaging", "biological tissues",
		"learning (artificial intelligence)", "diseases", "tumours",
	}
)

// DefaultPipeline returns the reference configuration: IEEE exports filtered
// by keywords, then title, then abstract.
func DefaultPipeline() Pipeline {
	return Pipeline{
		Dialect: DefaultDialect,
		Filters: map[string][]StageConfig{
			bib.DialectIEEE: {
				{Kind: string(filter.KindPositive), Field: record.FieldKeywords, Terms: DefaultKeywordTerms},
				{Kind: string(filter.KindNegative), Field: record.FieldTitle, Terms: DefaultTitleTerms},
				{Kind: string(filter.KindNegative), Field: record.FieldAbstract, Terms: DefaultAbstractTerms},
			},
		},
	}
}

// LoadPipeline reads a YAML pipeline file on top of DefaultPipeline. An empty
// path returns the defaults. A dialect named under filters replaces the
// default stages for that dialect.
func LoadPipeline(path string) (Pipeline, error) {
	cfg := DefaultPipeline()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Pipeline{}, fmt.Errorf("reading pipeline config: %w", err)
	}

	defaults := cfg.Filters
	cfg.Filters = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Pipeline{}, fmt.Errorf("parsing pipeline config: %w", err)
	}

	filters, err := normalizeFilters(cfg.Filters)
	if err != nil {
		return Pipeline{}, err
	}
	for key, stages := range defaults {
		if _, ok := filters[key]; !ok {
			filters[key] = stages
		}
	}
	cfg.Filters = filters

	return cfg, nil
}

// normalizeFilters lower-cases the dialect keys of filters. Two keys that
// differ only in case are rejected.
func normalizeFilters(filters map[string][]StageConfig) (map[string][]StageConfig, error) {
	out := make(map[string][]StageConfig, len(filters))
	for key, stages := range filters {
		norm := strings.ToLower(strings.TrimSpace(key))
		if _, dup := out[norm]; dup {
			return nil, fmt.Errorf("%w: filters: dialect %q given more than once", ErrInvalidConfig, norm)
		}
		out[norm] = stages
	}
	return out, nil
}

// Save writes the configuration as YAML.
func (p Pipeline) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding pipeline config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing pipeline config: %w", err)
	}
	return nil
}

// DialectKey returns the normalized dialect name.
func (p Pipeline) DialectKey() string {
	return strings.ToLower(strings.TrimSpace(p.Dialect))
}

// InputPatterns returns the configured globs, defaulting to
// "<DIALECT>BibFiles/*.bib".
func (p Pipeline) InputPatterns() []string {
	if len(p.Inputs) > 0 {
		return p.Inputs
	}
	return []string{strings.ToUpper(p.DialectKey()) + "BibFiles/*.bib"}
}

// OutputPath returns the configured output path, defaulting to
// "queriedArticles/<DIALECT>QueriedArticles.<format>".
func (p Pipeline) OutputPath() string {
	if p.Output != "" {
		return ExpandPath(p.Output)
	}
	return filepath.Join(DefaultOutputDir, strings.ToUpper(p.DialectKey())+"QueriedArticles."+p.OutputFormat())
}

// OutputFormat returns the configured format. Without one it follows the
// extension of Output, and defaults to CSV.
func (p Pipeline) OutputFormat() string {
	if p.Format != "" {
		return strings.ToLower(p.Format)
	}
	if p.Output != "" {
		return storage.FormatFromPath(p.Output)
	}
	return FormatCSV
}

// Stages builds the filter stages configured for the selected dialect.
func (p Pipeline) Stages() ([]filter.Stage, error) {
	filters, err := normalizeFilters(p.Filters)
	if err != nil {
		return nil, err
	}
	key := p.DialectKey()
	return buildStages(key, filters[key])
}

func buildStages(key string, cfgs []StageConfig) ([]filter.Stage, error) {
	stages := make([]filter.Stage, 0, len(cfgs))
	for i, sc := range cfgs {
		s, err := filter.NewStage(filter.Kind(strings.ToLower(sc.Kind)), strings.ToLower(sc.Field), sc.Terms)
		if err != nil {
			return nil, fmt.Errorf("%w: filters.%s[%d]: %v", ErrInvalidConfig, key, i, err)
		}
		stages = append(stages, s)
	}
	return stages, nil
}

// Validate checks the dialect, format and the filter stages of every dialect.
func (p Pipeline) Validate() error {
	if _, err := bib.Lookup(p.Dialect); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := ValidateFormat(p.OutputFormat()); err != nil {
		return err
	}
	if _, err := normalizeFilters(p.Filters); err != nil {
		return err
	}
	for key, cfgs := range p.Filters {
		if _, err := bib.Lookup(key); err != nil {
			return fmt.Errorf("%w: filters: %v", ErrInvalidConfig, err)
		}
		if _, err := buildStages(key, cfgs); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFormat checks that format is a supported output format.
func ValidateFormat(format string) error {
	for _, valid := range ValidFormats {
		if format == valid {
			return nil
		}
	}
	return fmt.Errorf("%w: format %q (valid: %v)", ErrInvalidConfig, format, ValidFormats)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
