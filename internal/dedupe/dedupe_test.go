package dedupe

import (
	"reflect"
	"testing"

	"github.com/matsen/litrev/internal/record"
)

func table(t *testing.T, columns []string, rows ...[]*string) record.Table {
	t.Helper()
	tbl := record.NewTable(columns...)
	for _, r := range rows {
		if err := tbl.AppendRow(r); err != nil {
			t.Fatalf("AppendRow() error = %v", err)
		}
	}
	return tbl
}

func s(v string) *string { return &v }

func values(col []*string) []string {
	out := []string{}
	for _, v := range col {
		if v == nil {
			out = append(out, "<nil>")
			continue
		}
		out = append(out, *v)
	}
	return out
}

func TestMerge(t *testing.T) {
	acm := table(t, []string{"title", "year", "doi", "journal"},
		[]*string{s("Cell Counting"), s("2022"), s("10.1/a"), s("J")},
		[]*string{s("Slide review"), s("2021"), nil, s("K")},
	)
	ieee := table(t, []string{"title", "year", "doi"},
		[]*string{s("cell counting"), s("2022"), s("10.1/z")}, // duplicate title
		[]*string{s("Other paper"), s("2020"), s("10.1/a")},   // duplicate DOI
		[]*string{s("Third"), s("2019"), nil},
	)
	pubmed := table(t, []string{"PMID", "title", "year", "doi", "abstract"},
		[]*string{s("1"), s("Fourth"), s("2018"), nil, s("abs")},
		[]*string{s("2"), s("Fifth"), s("2017"), s("10.1/e"), nil},
	)

	got, stats := Merge(acm, ieee, pubmed)

	if !reflect.DeepEqual(got.Columns, []string{"title", "year", "doi"}) {
		t.Errorf("Columns = %v", got.Columns)
	}
	wantTitles := []string{"cell counting", "slide review", "third", "fourth", "fifth"}
	if !reflect.DeepEqual(values(got.Column("title")), wantTitles) {
		t.Errorf("titles = %v, want %v", values(got.Column("title")), wantTitles)
	}
	wantDOIs := []string{"10.1/a", "<nil>", "<nil>", "<nil>", "10.1/e"}
	if !reflect.DeepEqual(values(got.Column("doi")), wantDOIs) {
		t.Errorf("dois = %v, want %v", values(got.Column("doi")), wantDOIs)
	}

	want := Stats{Inputs: []int{2, 3, 2}, Total: 7, DuplicateTitles: 1, DuplicateDOIs: 1, Unique: 5}
	if !reflect.DeepEqual(stats, want) {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestMerge_NullTitlesCompareEqual(t *testing.T) {
	a := table(t, Columns,
		[]*string{nil, s("2020"), nil},
		[]*string{nil, s("2021"), nil},
	)

	got, stats := Merge(a)
	if got.Len() != 1 {
		t.Errorf("Len() = %d, want 1", got.Len())
	}
	if stats.DuplicateTitles != 1 {
		t.Errorf("DuplicateTitles = %d, want 1", stats.DuplicateTitles)
	}
}

func TestMerge_TitleRuleRunsFirst(t *testing.T) {
	// The second row shares a DOI with the first but is already removed as a
	// title duplicate, so the third row's DOI clash is with the first row only.
	a := table(t, Columns,
		[]*string{s("A"), s("2020"), s("10.1/x")},
		[]*string{s("a"), s("2020"), s("10.1/y")},
		[]*string{s("B"), s("2020"), s("10.1/y")},
	)

	got, stats := Merge(a)
	if !reflect.DeepEqual(values(got.Column("title")), []string{"a", "b"}) {
		t.Errorf("titles = %v", values(got.Column("title")))
	}
	if stats.DuplicateTitles != 1 || stats.DuplicateDOIs != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestMerge_Empty(t *testing.T) {
	got, stats := Merge()
	if got.Len() != 0 || stats.Unique != 0 {
		t.Errorf("Merge() = %d rows, stats %+v", got.Len(), stats)
	}
}
