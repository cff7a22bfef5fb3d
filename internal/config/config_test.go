package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/litrev/internal/filter"
)

func TestDefaultPipeline(t *testing.T) {
	cfg := DefaultPipeline()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	stages, err := cfg.Stages()
	if err != nil {
		t.Fatalf("Stages() error = %v", err)
	}
	if len(stages) != 3 {
		t.Fatalf("Stages() returned %d stages, want 3", len(stages))
	}

	want := []struct {
		kind  filter.Kind
		field string
	}{
		{filter.KindPositive, "keywords"},
		{filter.KindNegative, "title"},
		{filter.KindNegative, "abstract"},
	}
	for i, w := range want {
		if stages[i].Kind != w.kind || stages[i].Field != w.field {
			t.Errorf("stage %d = %s(%s), want %s(%s)", i, stages[i].Kind, stages[i].Field, w.kind, w.field)
		}
	}
}

func TestDefaultPipeline_ACMUnfiltered(t *testing.T) {
	cfg := DefaultPipeline()
	cfg.Dialect = "ACM"

	stages, err := cfg.Stages()
	if err != nil {
		t.Fatalf("Stages() error = %v", err)
	}
	if len(stages) != 0 {
		t.Errorf("Stages() returned %d stages for acm, want 0", len(stages))
	}
}

func TestPipeline_DerivedPaths(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Pipeline
		wantInputs string
		wantOutput string
	}{
		{"ieee defaults", Pipeline{Dialect: "ieee"}, "IEEEBibFiles/*.bib", filepath.Join("queriedArticles", "IEEEQueriedArticles.csv")},
		{"acm jsonl", Pipeline{Dialect: "acm", Format: "jsonl"}, "ACMBibFiles/*.bib", filepath.Join("queriedArticles", "ACMQueriedArticles.jsonl")},
		{"explicit", Pipeline{Dialect: "acm", Inputs: []string{"in/*.bib"}, Output: "out.csv"}, "in/*.bib", "out.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.InputPatterns()[0]; got != tt.wantInputs {
				t.Errorf("InputPatterns() = %q, want %q", got, tt.wantInputs)
			}
			if got := tt.cfg.OutputPath(); got != tt.wantOutput {
				t.Errorf("OutputPath() = %q, want %q", got, tt.wantOutput)
			}
		})
	}
}

func TestLoadPipeline_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yml")
	content := `dialect: acm
inputs:
  - exports/*.bib
filters:
  acm:
    - kind: negative
      field: title
      terms: [survey*]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadPipeline(path)
	if err != nil {
		t.Fatalf("LoadPipeline() error = %v", err)
	}
	if cfg.Dialect != "acm" {
		t.Errorf("Dialect = %q, want acm", cfg.Dialect)
	}
	if cfg.OutputFormat() != FormatCSV {
		t.Errorf("OutputFormat() = %q, want default csv", cfg.OutputFormat())
	}
	if len(cfg.Filters["ieee"]) != 3 {
		t.Errorf("default ieee filters lost: %v", cfg.Filters["ieee"])
	}

	stages, err := cfg.Stages()
	if err != nil {
		t.Fatalf("Stages() error = %v", err)
	}
	if len(stages) != 1 || stages[0].Field != "title" {
		t.Errorf("Stages() = %v, want one title stage", stages)
	}
}

func TestLoadPipeline_ReplacesDialectFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yml")
	content := `dialect: IEEE
filters:
  IEEE:
    - kind: negative
      field: title
      terms: [survey*]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadPipeline(path)
	if err != nil {
		t.Fatalf("LoadPipeline() error = %v", err)
	}
	if _, ok := cfg.Filters["IEEE"]; ok {
		t.Error("filter keys should be lower-cased")
	}

	// Repeat to catch map-order dependence.
	for i := 0; i < 10; i++ {
		stages, err := cfg.Stages()
		if err != nil {
			t.Fatalf("Stages() error = %v", err)
		}
		if len(stages) != 1 || stages[0].Kind != filter.KindNegative || stages[0].Field != "title" {
			t.Fatalf("Stages() = %v, want only the configured title stage", stages)
		}
	}
}

func TestLoadPipeline_CaseDuplicateFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yml")
	content := `filters:
  acm:
    - {kind: negative, field: title, terms: [a]}
  ACM:
    - {kind: negative, field: title, terms: [b]}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPipeline(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadPipeline() error = %v, want ErrInvalidConfig", err)
	}

	cfg := DefaultPipeline()
	cfg.Filters["IEEE"] = nil
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
	}
}

func TestPipeline_OutputFormat(t *testing.T) {
	tests := []struct {
		name string
		cfg  Pipeline
		want string
	}{
		{"default", Pipeline{}, FormatCSV},
		{"from jsonl output", Pipeline{Output: "out/ieee.jsonl"}, FormatJSONL},
		{"from compressed output", Pipeline{Output: "out/ieee.jsonl.gz"}, FormatJSONL},
		{"from csv output", Pipeline{Output: "out/ieee.csv"}, FormatCSV},
		{"explicit wins", Pipeline{Output: "out/ieee.jsonl", Format: "CSV"}, FormatCSV},
		{"explicit without output", Pipeline{Format: "jsonl"}, FormatJSONL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.OutputFormat(); got != tt.want {
				t.Errorf("OutputFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadPipeline_Errors(t *testing.T) {
	if _, err := LoadPipeline(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("LoadPipeline() expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yml")
	os.WriteFile(path, []byte("dialect: [unclosed"), 0644)
	if _, err := LoadPipeline(path); err == nil {
		t.Error("LoadPipeline() expected error for invalid YAML")
	}
}

func TestLoadPipeline_EmptyPath(t *testing.T) {
	cfg, err := LoadPipeline("")
	if err != nil {
		t.Fatalf("LoadPipeline(\"\") error = %v", err)
	}
	if cfg.Dialect != DefaultDialect {
		t.Errorf("Dialect = %q, want %q", cfg.Dialect, DefaultDialect)
	}
}

func TestPipeline_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Pipeline)
	}{
		{"unknown dialect", func(p *Pipeline) { p.Dialect = "scopus" }},
		{"unknown format", func(p *Pipeline) { p.Format = "xlsx" }},
		{"unknown filter dialect", func(p *Pipeline) { p.Filters["wos"] = nil }},
		{"bad stage kind", func(p *Pipeline) {
			p.Filters["acm"] = []StageConfig{{Kind: "sometimes", Field: "title", Terms: []string{"x"}}}
		}},
		{"bad stage field", func(p *Pipeline) {
			p.Filters["ieee"] = []StageConfig{{Kind: "negative", Field: "author", Terms: []string{"x"}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPipeline()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestPipeline_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pipeline.yml")
	cfg := DefaultPipeline()
	cfg.Dialect = "acm"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := LoadPipeline(path)
	if err != nil {
		t.Fatalf("LoadPipeline() error = %v", err)
	}
	if loaded.Dialect != "acm" {
		t.Errorf("Dialect = %q, want acm", loaded.Dialect)
	}
	if got := len(loaded.Filters["ieee"][1].Terms); got != len(DefaultTitleTerms) {
		t.Errorf("title terms = %d, want %d", got, len(DefaultTitleTerms))
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got := ExpandPath("~/x.yml"); got != filepath.Join(home, "x.yml") {
		t.Errorf("ExpandPath(~/x.yml) = %q", got)
	}
	if got := ExpandPath("/abs/x.yml"); got != "/abs/x.yml" {
		t.Errorf("ExpandPath(/abs/x.yml) = %q", got)
	}
}
