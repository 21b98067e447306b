package main

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"nothsreports/internal/catalog"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

func TestCompareSellers_FullMatchWithChanges(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "sellers.json", `[
		{"slug": "acme", "name": "Acme", "reviews": "1,200"},
		{"slug": "bolt", "name": "Bolt", "review_count": 50},
		{"slug": "cove", "name": "Cove", "reviews": "10"},
		{"slug": "dune", "name": "Dune", "reviews": "7"}
	]`)
	cand := writeFile(t, dir, "sellers_updated.json", `[
		{"slug": "acme", "name": "Acme", "reviews": "1,250"},
		{"slug": "bolt", "name": "Bolt", "review_count": 50, "reviews": "50"},
		{"slug": "cove", "name": "Cove", "reviews": "ERROR: status 503"},
		{"slug": "dune", "name": "Dune", "reviews": "--"}
	]`)

	report, err := compareSellerFiles(ref, cand, false)
	if err != nil {
		t.Fatalf("compareSellerFiles error: %v", err)
	}
	if report.Status != "ok" {
		t.Fatalf("expected status ok, got %q", report.Status)
	}
	if !almostEqual(report.RowAlignment.CoverageReference, 1.0) || !almostEqual(report.RowAlignment.CoverageCandidate, 1.0) {
		t.Fatalf("expected full coverage, got %v / %v", report.RowAlignment.CoverageReference, report.RowAlignment.CoverageCandidate)
	}
	s := report.Summary
	if s.Changed != 1 || s.Unchanged != 1 || s.Errors != 1 || s.NoReviews != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.NetDelta != 50 {
		t.Fatalf("expected net delta 50, got %d", s.NetDelta)
	}
	if len(report.Changes) != 3 {
		t.Fatalf("expected 3 changes without --all, got %d", len(report.Changes))
	}
	for _, c := range report.Changes {
		if c.Slug == "cove" && (c.Delta != 0 || c.After != 10 || c.Raw != "ERROR: status 503") {
			t.Fatalf("error row should keep the previous count: %+v", c)
		}
		if c.Slug == "acme" && (c.Before != 1200 || c.After != 1250) {
			t.Fatalf("unexpected acme change: %+v", c)
		}
	}
}

func TestCompareSellers_PartialMatchListsRemovedAndAdded(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "a.json", `[{"slug":"acme","reviews":"1"},{"slug":"bolt","reviews":"2"}]`)
	cand := writeFile(t, dir, "b.json", `[{"slug":"ACME","reviews":"1"},{"slug":"zinc","reviews":"3"}]`)

	report, err := compareSellerFiles(ref, cand, true)
	if err != nil {
		t.Fatalf("compareSellerFiles error: %v", err)
	}
	if report.Status != "partial_key_match" {
		t.Fatalf("expected partial_key_match, got %q", report.Status)
	}
	if !almostEqual(report.RowAlignment.CoverageReference, 0.5) {
		t.Fatalf("expected reference coverage 0.5, got %v", report.RowAlignment.CoverageReference)
	}
	if len(report.Removed) != 1 || report.Removed[0] != "bolt" {
		t.Fatalf("unexpected removed: %v", report.Removed)
	}
	if len(report.Added) != 1 || report.Added[0] != "zinc" {
		t.Fatalf("unexpected added: %v", report.Added)
	}
	if len(report.Changes) != 1 || report.Changes[0].State != stateUnchanged {
		t.Fatalf("--all should list the unchanged match: %+v", report.Changes)
	}
}

func TestCompareSellers_NoOverlap(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "a.json", `[{"slug":"acme","reviews":"1"}]`)
	cand := writeFile(t, dir, "b.json", `[{"slug":"bolt","reviews":"1"}]`)

	report, err := compareSellerFiles(ref, cand, false)
	if err != nil {
		t.Fatalf("compareSellerFiles error: %v", err)
	}
	if report.Status != "no_key_match" {
		t.Fatalf("expected no_key_match, got %q", report.Status)
	}
	if report.Summary.ChangeRate != 0 {
		t.Fatalf("expected zero change rate, got %v", report.Summary.ChangeRate)
	}
}

func TestCompareSellers_MissingInput(t *testing.T) {
	dir := t.TempDir()
	cand := writeFile(t, dir, "b.json", `[]`)
	_, err := compareSellerFiles(filepath.Join(dir, "nope.json"), cand, false)
	if !errors.Is(err, catalog.ErrInputMissing) {
		t.Fatalf("expected ErrInputMissing, got %v", err)
	}
}

func TestWriteChangesSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "changes.xlsx")
	changes := []changePayload{{Slug: "acme", Name: "Acme", Before: 1, After: 3, Delta: 2, State: stateChanged}}
	if err := writeChanges(path, changes); err != nil {
		t.Fatalf("writeChanges error: %v", err)
	}
	sheet, err := catalog.ReadSheet(path)
	if err != nil {
		t.Fatalf("ReadSheet error: %v", err)
	}
	if len(sheet.Rows) != 1 || sheet.Rows[0][0] != "acme" || sheet.Rows[0][4] != "2" {
		t.Fatalf("unexpected sheet rows: %v", sheet.Rows)
	}
}
