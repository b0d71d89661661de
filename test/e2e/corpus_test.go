package e2e

import (
	"strings"
	"testing"

	"github.com/hyperjump/florafind/internal/models"
)

func TestBuildCorpus_OneRecordPerSpeciesAndType(t *testing.T) {
	c := BuildCorpus()
	want := len(species) * len(entryTypes)
	if c.TotalRecords != want || len(c.Records) != want {
		t.Errorf("expected %d records, got %d (%d)", want, c.TotalRecords, len(c.Records))
	}
	seen := make(map[string]bool)
	for _, r := range c.Records {
		if seen[r.ID] {
			t.Errorf("duplicate id %s", r.ID)
		}
		seen[r.ID] = true
		if err := r.Validate(); err != nil {
			t.Errorf("record %s invalid: %v", r.ID, err)
		}
		if r.EntryType.IsMedia() != (r.MediaURL() != "") {
			t.Errorf("record %s: media type %s with url %q", r.ID, r.EntryType, r.MediaURL())
		}
	}
}

func TestBuildCorpus_QueryTestCasesExist(t *testing.T) {
	c := BuildCorpus()
	if c.TotalQueries == 0 {
		t.Fatal("expected at least one query test case")
	}
	for i, tc := range c.TestCases {
		if tc.Query == "" {
			t.Errorf("test case %d: empty query", i)
		}
		if len(tc.ExpectedIDs) == 0 {
			t.Errorf("test case %d: no expected ids", i)
		}
	}
}

func TestBuildCorpus_SignaturesAreUnique(t *testing.T) {
	c := BuildCorpus()
	for _, s := range species {
		owners := make(map[string]bool)
		for _, r := range c.Records {
			if strings.Contains(models.Deref(r.Description), s.Signature) {
				owners[r.Title] = true
			}
		}
		if len(owners) != 1 || !owners[s.Name] {
			t.Errorf("signature %q owned by %v, want only %s", s.Signature, owners, s.Name)
		}
	}
}

func TestContainsAny(t *testing.T) {
	if !ContainsAny([]string{"a", "b"}, []string{"c", "b"}) {
		t.Error("expected match")
	}
	if ContainsAny([]string{"a"}, []string{"b"}) {
		t.Error("unexpected match")
	}
	if ContainsAny(nil, []string{"a"}) {
		t.Error("nil results cannot match")
	}
}
