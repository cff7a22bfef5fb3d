package main

import (
	"reflect"
	"testing"

	"github.com/matsen/litrev/internal/pubmed"
	"github.com/matsen/litrev/internal/record"
)

func str(s string) *string { return &s }

func pubmedExport(t *testing.T) record.Table {
	t.Helper()
	tbl := record.NewTable("PMID", "Title", "Publication Year", "DOI")
	rows := [][]*string{
		{str("1"), str("One"), str("2020"), str("10.1/one")},
		{str("2"), str("Two"), str("2021"), nil},
		{str("3"), str("Three"), str("2022"), nil},
	}
	for _, r := range rows {
		if err := tbl.AppendRow(r); err != nil {
			t.Fatalf("AppendRow() error = %v", err)
		}
	}
	return tbl
}

func TestPMIDs(t *testing.T) {
	ids, err := pmids(pubmedExport(t))
	if err != nil {
		t.Fatalf("pmids() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"1", "2", "3"}) {
		t.Errorf("pmids() = %v", ids)
	}

	if _, err := pmids(record.NewTable("Title")); err == nil {
		t.Error("pmids() without PMID column should fail")
	}

	blank := record.NewTable("PMID")
	_ = blank.AppendRow([]*string{nil})
	if _, err := pmids(blank); err == nil {
		t.Error("pmids() with an empty PMID should fail")
	}
}

func TestFillDOIs(t *testing.T) {
	tbl := pubmedExport(t)
	records := []pubmed.Medline{
		{"PMID": {"1"}, "AID": {"10.1/other [doi]"}},
		{"PMID": {"2"}, "AID": {"S0 [pii]", "10.1/two [doi]"}},
		nil,
	}

	if n := fillDOIs(&tbl, records); n != 1 {
		t.Errorf("fillDOIs() = %d, want 1", n)
	}
	got := tbl.Column("DOI")
	if *got[0] != "10.1/one" {
		t.Errorf("existing DOI overwritten: %q", *got[0])
	}
	if got[1] == nil || *got[1] != "10.1/two" {
		t.Errorf("DOI[1] = %v, want 10.1/two", got[1])
	}
	if got[2] != nil {
		t.Errorf("DOI[2] = %q, want nil", *got[2])
	}
}

func TestFillDOIs_AddsColumn(t *testing.T) {
	tbl := record.NewTable("PMID")
	_ = tbl.AppendRow([]*string{str("9")})

	fillDOIs(&tbl, []pubmed.Medline{{"PMID": {"9"}, "AID": {"10.1/nine [doi]"}}})
	if !tbl.HasColumn("DOI") {
		t.Fatal("DOI column not added")
	}
	if v := tbl.Column("DOI")[0]; v == nil || *v != "10.1/nine" {
		t.Errorf("DOI = %v", v)
	}
}

func TestFetchTableShape(t *testing.T) {
	tbl := pubmedExport(t)
	abstracts := []*string{str("a1"), nil, str("a3")}
	if err := setColumn(&tbl, record.FieldAbstract, abstracts); err != nil {
		t.Fatalf("setColumn() error = %v", err)
	}
	tbl.Rename(pubmedRenames)

	want := []string{"PMID", "title", "year", "doi", "abstract"}
	if !reflect.DeepEqual(tbl.Columns, want) {
		t.Errorf("Columns = %v, want %v", tbl.Columns, want)
	}
	if err := setColumn(&tbl, record.FieldAbstract, abstracts[:1]); err == nil {
		t.Error("setColumn() with wrong length should fail")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "****"},
		{"0123456789", "****6789"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
