package pipeline

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matsen/litrev/internal/bib"
	"github.com/matsen/litrev/internal/config"
	"github.com/matsen/litrev/internal/filter"
	"github.com/matsen/litrev/internal/record"
	"github.com/matsen/litrev/internal/storage"
	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func ieeeConfig(stages ...config.StageConfig) config.Pipeline {
	return config.Pipeline{
		Dialect: bib.DialectIEEE,
		Filters: map[string][]config.StageConfig{bib.DialectIEEE: stages},
	}
}

const exportA = "@article{A1,title={Deep learning in MRI},year={2020},journal={J1},abstract={about video},keywords={cancer}}" +
	"@article{A2,title={Histology grading},year={2021},journal={J2},abstract={slides},keywords={cancer}}"

const exportB = "@article{B1,title={Cell counting},year={2022},journal={J3},abstract={slides},keywords={tumours}}" +
	"@article{B2,title={No keywords},year={2022},journal={J3},abstract={slides}}"

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Pipeline
	}{
		{"unknown dialect", config.Pipeline{Dialect: "scopus"}},
		{"bad stage", ieeeConfig(config.StageConfig{Kind: "negative", Field: "author", Terms: []string{"x"}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, quietLogger()); !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.bib", exportA)
	b := writeFile(t, dir, "b.bib", exportB)

	d, err := New(ieeeConfig(
		config.StageConfig{Kind: "negative", Field: "title", Terms: []string{"deep"}},
	), quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := d.Run([]string{a, b})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var got []string
	for _, r := range res.Records {
		got = append(got, r.Title)
	}
	if want := []string{"Histology grading", "Cell counting"}; !reflect.DeepEqual(got, want) {
		t.Errorf("titles = %v, want %v", got, want)
	}
	if res.Table.Len() != 2 || !reflect.DeepEqual(res.Table.Columns, record.Columns) {
		t.Errorf("Table = %d rows, columns %v", res.Table.Len(), res.Table.Columns)
	}

	wantFiles := []FileSummary{
		{Path: a, Parsed: 2, Skipped: 0, Kept: 1},
		{Path: b, Parsed: 1, Skipped: 1, Kept: 1},
	}
	if !reflect.DeepEqual(res.Files, wantFiles) {
		t.Errorf("Files = %+v, want %+v", res.Files, wantFiles)
	}

	if len(res.Diagnostics) != 1 {
		t.Fatalf("Diagnostics = %+v, want 1", res.Diagnostics)
	}
	diag := res.Diagnostics[0]
	if diag.File != b || diag.Entry != 2 || diag.Title != "No keywords" {
		t.Errorf("Diagnostic = %+v", diag)
	}
}

func TestRun_MissingFileDoesNotAbortSiblings(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.bib", exportA)
	missing := filepath.Join(dir, "missing.bib")

	d, err := New(ieeeConfig(), quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := d.Run([]string{missing, a})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Records) != 2 {
		t.Errorf("Records = %d, want 2", len(res.Records))
	}
	if res.Files[0].Error == "" {
		t.Error("missing file should be reported in its summary")
	}
}

func TestRun_EmptyFieldAborts(t *testing.T) {
	dir := t.TempDir()
	// ACM entries may lack an abstract, which a negative abstract stage
	// cannot read.
	path := writeFile(t, dir, "acm.bib", "@article{x,\ntitle = {T},\nyear = {2020},\njournal = {J},\n}\n")

	cfg := config.Pipeline{
		Dialect: bib.DialectACM,
		Filters: map[string][]config.StageConfig{
			bib.DialectACM: {{Kind: "negative", Field: "abstract", Terms: []string{"video"}}},
		},
	}
	d, err := New(cfg, quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := d.Run([]string{path}); !errors.Is(err, filter.ErrEmptyField) {
		t.Errorf("Run() error = %v, want ErrEmptyField", err)
	}
}

func TestRun_NoFiles(t *testing.T) {
	d, err := New(ieeeConfig(), quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := d.Run(nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Table.Columns) != 0 || res.Table.Len() != 0 {
		t.Errorf("Table = %+v, want zero columns and rows", res.Table)
	}
}

func TestReadBlob_DropsInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.bib", "ti\xfftle")

	got, err := ReadBlob(path)
	if err != nil {
		t.Fatalf("ReadBlob() error = %v", err)
	}
	if got != "title" {
		t.Errorf("ReadBlob() = %q, want %q", got, "title")
	}
}

func TestReadBlob_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.bib.gz")
	w, err := storage.CreateWriter(path)
	if err != nil {
		t.Fatalf("CreateWriter() error = %v", err)
	}
	if _, err := io.WriteString(w, exportA); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := ReadBlob(path)
	if err != nil {
		t.Fatalf("ReadBlob() error = %v", err)
	}
	if got != exportA {
		t.Errorf("ReadBlob() = %q, want the decompressed export", got)
	}
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	b := writeFile(t, dir, "b.bib", "")
	a := writeFile(t, dir, "a.bib", "")
	writeFile(t, dir, "notes.txt", "")

	got, err := ExpandInputs([]string{filepath.Join(dir, "*.bib"), a})
	if err != nil {
		t.Fatalf("ExpandInputs() error = %v", err)
	}
	if want := []string{a, b}; !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandInputs() = %v, want %v", got, want)
	}

	if _, err := ExpandInputs([]string{filepath.Join(dir, "*.ris")}); !errors.Is(err, ErrNoInputs) {
		t.Errorf("ExpandInputs() error = %v, want ErrNoInputs", err)
	}
}
