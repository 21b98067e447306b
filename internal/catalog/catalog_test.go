package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCount(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"12,345", 12345},
		{"1,234,567", 1234567},
		{" 42 ", 42},
		{"3.0", 3},
		{"N/A", 0},
		{"", 0},
		{"--", 0},
	}
	for _, tc := range cases {
		if got := ParseCount(tc.in); got != tc.want {
			t.Errorf("ParseCount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatCount(t *testing.T) {
	cases := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		12345:    "12,345",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for in, want := range cases {
		if got := FormatCount(in); got != want {
			t.Errorf("FormatCount(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestIndexLetter(t *testing.T) {
	cases := map[string]string{
		"apple":       "A",
		"Zebra Co":    "Z",
		"  bumble":    "B",
		"3 Wishes":    "#",
		"&Co":         "#",
		"":            "#",
		"émile & amp": "É",
	}
	for in, want := range cases {
		if got := IndexLetter(in); got != want {
			t.Errorf("IndexLetter(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestYearSuffix(t *testing.T) {
	cases := map[string]string{
		"March 2019":    "2019",
		"01/02/2021 ":   "2021",
		"2015":          "2015",
		"since forever": UnknownYear,
		"":              UnknownYear,
		"19":            UnknownYear,
	}
	for in, want := range cases {
		if got := YearSuffix(in); got != want {
			t.Errorf("YearSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadPartnersDefaultsAndLegacyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sellers.json")
	body := `[
	  {"slug": " ACME ", "name": "Acme", "reviews": "12,345", "product_count": "1,024", "since": "May 2018"},
	  {"slug": "bee", "name": "Bee", "review_count": 7, "product_count": 3.0, "active": false},
	  {"slug": "cat", "name": "Cat", "review_count": "N/A", "is_active": false},
	  {"slug": "", "name": "No slug"},
	  {"slug": "noname", "name": ""}
	]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	partners, err := LoadPartners(path)
	if err != nil {
		t.Fatalf("LoadPartners error: %v", err)
	}
	if len(partners) != 3 {
		t.Fatalf("expected 3 partners, got %d", len(partners))
	}
	acme := partners[0]
	if acme.Slug != "acme" || acme.ReviewCount != 12345 || acme.ProductCount != 1024 || !acme.Active {
		t.Fatalf("unexpected acme record: %+v", acme)
	}
	if acme.JoinYear() != "2018" || acme.Dir() != "a" {
		t.Fatalf("unexpected derived fields: year=%q dir=%q", acme.JoinYear(), acme.Dir())
	}
	if partners[1].Active || partners[1].ReviewCount != 7 || partners[1].ProductCount != 3 {
		t.Fatalf("unexpected bee record: %+v", partners[1])
	}
	if partners[2].Active || partners[2].ReviewCount != 0 {
		t.Fatalf("unexpected cat record: %+v", partners[2])
	}
}

func TestLoadProductsPartnerSlugFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	body := `[
	  {"sku": 123456, "name": "Mug", "partner_slug": "Acme", "review_count": "1,200", "price": 12.5},
	  {"sku": "X1", "name": "Card", "seller_slug": "bee", "available": false}
	]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	products, err := LoadProducts(path)
	if err != nil {
		t.Fatalf("LoadProducts error: %v", err)
	}
	if products[0].SKU != "123456" || products[0].SellerSlug != "acme" || products[0].ReviewCount != 1200 || products[0].Price != "12.5" {
		t.Fatalf("unexpected first product: %+v", products[0])
	}
	if !products[0].Available || products[1].Available {
		t.Fatalf("unexpected availability: %v %v", products[0].Available, products[1].Available)
	}
}

func TestLoadMissingFileIsInputMissing(t *testing.T) {
	_, err := LoadPartners(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrInputMissing) {
		t.Fatalf("expected ErrInputMissing, got %v", err)
	}
	_, err = LoadProducts(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrInputMissing) {
		t.Fatalf("expected ErrInputMissing, got %v", err)
	}
}

func TestLatestPicksLastDateStamp(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"feefo_product_ratings_week_20250101.xlsx",
		"feefo_product_ratings_week_20250315.xlsx",
		"feefo_product_ratings_week_20241231.xlsx",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Latest(filepath.Join(dir, "feefo_product_ratings_week_*.xlsx"))
	if err != nil {
		t.Fatalf("Latest error: %v", err)
	}
	if filepath.Base(got) != "feefo_product_ratings_week_20250315.xlsx" {
		t.Fatalf("unexpected latest file %q", got)
	}

	_, err = Latest(filepath.Join(dir, "missing_*.xlsx"))
	if !errors.Is(err, ErrInputMissing) {
		t.Fatalf("expected ErrInputMissing, got %v", err)
	}
}

func TestSheetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skus.xlsx")
	err := WriteSheet(path, []string{"SKU", "Name"}, [][]any{
		{"1001", "Mug"},
		{"1002"},
		{"1003", "Card"},
	})
	if err != nil {
		t.Fatalf("WriteSheet error: %v", err)
	}
	sheet, err := ReadSheet(path)
	if err != nil {
		t.Fatalf("ReadSheet error: %v", err)
	}
	if len(sheet.Header) != 2 || sheet.Header[0] != "SKU" {
		t.Fatalf("unexpected header %v", sheet.Header)
	}
	skus := sheet.Column(0)
	if len(skus) != 3 || skus[0] != "1001" || skus[2] != "1003" {
		t.Fatalf("unexpected sku column %v", skus)
	}
	if got := sheet.Column(sheet.Index("name")); got[1] != "" || got[2] != "Card" {
		t.Fatalf("unexpected name column %v", got)
	}
	if recs := sheet.Records(); recs[0]["Name"] != "Mug" {
		t.Fatalf("unexpected records %v", recs)
	}
}

func TestReadSheetMissing(t *testing.T) {
	_, err := ReadSheet(filepath.Join(t.TempDir(), "nope.xlsx"))
	if !errors.Is(err, ErrInputMissing) {
		t.Fatalf("expected ErrInputMissing, got %v", err)
	}
}

func TestReadPartnersSkipsUnsafeAndDuplicateSlugs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sellers.json")
	body := `[
	  {"slug": "../../escaped", "name": "Escaper"},
	  {"slug": "a/b", "name": "Slash"},
	  {"slug": "a\\b", "name": "Backslash"},
	  {"slug": "dup", "name": "First"},
	  {"slug": "DUP", "name": "Second"},
	  {"slug": "ok", "name": "Fine"}
	]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	partners, skipped, err := ReadPartners(path)
	if err != nil {
		t.Fatalf("ReadPartners error: %v", err)
	}
	if len(partners) != 2 || partners[0].Slug != "dup" || partners[0].Name != "First" || partners[1].Slug != "ok" {
		t.Fatalf("unexpected partners: %+v", partners)
	}
	wantReasons := []string{SkipUnsafeSlug, SkipUnsafeSlug, SkipUnsafeSlug, SkipDuplicate}
	if len(skipped) != len(wantReasons) {
		t.Fatalf("expected %d skipped records, got %+v", len(wantReasons), skipped)
	}
	for i, want := range wantReasons {
		if skipped[i].Reason != want {
			t.Errorf("skipped[%d] = %+v, want reason %q", i, skipped[i], want)
		}
	}
	if skipped[3].Index != 4 || skipped[3].Slug != "dup" {
		t.Errorf("duplicate should point at the second record: %+v", skipped[3])
	}

	loaded, err := LoadPartners(path)
	if err != nil || len(loaded) != 2 {
		t.Fatalf("LoadPartners = %d partners, %v", len(loaded), err)
	}
}

func TestValidSlug(t *testing.T) {
	cases := map[string]bool{
		"acme":          true,
		"acme-and-sons": true,
		"a.b":           true,
		"":              false,
		".":             false,
		"..":            false,
		"../x":          false,
		"x..y":          false,
		"a/b":           false,
		`a\b`:           false,
		"a\x00b":        false,
	}
	for in, want := range cases {
		if got := ValidSlug(in); got != want {
			t.Errorf("ValidSlug(%q) = %v, want %v", in, got, want)
		}
	}
}
