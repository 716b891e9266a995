package records_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"packshot/internal/records"
	"packshot/internal/retailer"
	"packshot/internal/services"
)

func writeSheet(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sheet: %v", err)
	}
	return path
}

func policies(t *testing.T, names ...string) []retailer.Policy {
	t.Helper()
	registry, err := retailer.NewRegistry(nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	out, err := registry.PoliciesFor(names)
	if err != nil {
		t.Fatalf("PoliciesFor: %v", err)
	}
	return out
}

func TestReadCSVMatchesHeadersLoosely(t *testing.T) {
	path := writeSheet(t, "Product BMN,UPC Code,Article #\n10023456,68100084245,774422\n\n,,\n10023457,,\n")

	items, err := records.ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (blank rows skipped)", len(items))
	}
	first := items[0]
	if first.BMN != "10023456" || first.GTIN != "68100084245" || first.ArticleID != "774422" {
		t.Fatalf("unexpected first item %+v", first)
	}
	if first.Row != 2 {
		t.Fatalf("first item Row = %d, want 2", first.Row)
	}
}

func TestReadCSVRequiresBMNColumn(t *testing.T) {
	path := writeSheet(t, "GTIN,Article\n68100084245,774422\n")
	_, err := records.ReadCSV(path)
	if !errors.Is(err, services.ErrMissingField) {
		t.Fatalf("error = %v, want ErrMissingField", err)
	}
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := records.ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
}

func TestNormalizeCanonicalizesAndChecksRequiredFields(t *testing.T) {
	items := []records.Item{
		{Row: 2, BMN: " 10-023-456 ", GTIN: "0-68100-08424-5", ArticleID: "774422"},
	}

	normalized, rejects, dups := records.Normalize(items, policies(t, "all"))
	if len(rejects) != 0 {
		t.Fatalf("unexpected rejects %+v", rejects)
	}
	if !dups.Empty() {
		t.Fatalf("unexpected duplicates %+v", dups)
	}
	got := normalized[0]
	if got.BMN != "10023456" {
		t.Fatalf("BMN = %q", got.BMN)
	}
	if got.GTIN != "068100084245" {
		t.Fatalf("GTIN = %q", got.GTIN)
	}
}

func TestNormalizeRejectsRowsMissingRequiredFields(t *testing.T) {
	items := []records.Item{
		{Row: 2, BMN: "10023456", GTIN: "68100084245", ArticleID: "774422"},
		{Row: 3, BMN: "10023457", GTIN: "68100084246"},
	}

	normalized, rejects, _ := records.Normalize(items, policies(t, "sobeys"))
	if len(normalized) != 1 || normalized[0].BMN != "10023456" {
		t.Fatalf("normalized = %+v, want the complete row to survive", normalized)
	}
	if len(rejects) != 1 {
		t.Fatalf("rejects = %+v, want the row missing the article ID", rejects)
	}
	if !errors.Is(rejects[0].Err, services.ErrMissingField) {
		t.Fatalf("reject error = %v, want ErrMissingField", rejects[0].Err)
	}
	if rejects[0].Item.Row != 3 {
		t.Fatalf("reject Row = %d, want 3", rejects[0].Item.Row)
	}
}

func TestNormalizeSkipsRequirementsOtherPoliciesDoNotShare(t *testing.T) {
	items := []records.Item{
		{Row: 2, BMN: "10023456", GTIN: "68100084245"},
	}
	if _, rejects, _ := records.Normalize(items, policies(t, "amazon")); len(rejects) != 0 {
		t.Fatalf("rejects = %+v", rejects)
	}
}

func TestNormalizeDropsDuplicateRows(t *testing.T) {
	items := []records.Item{
		{Row: 2, BMN: "10023456", GTIN: "68100084245"},
		{Row: 3, BMN: "10023456", GTIN: "68100084246"},
		{Row: 4, BMN: "10023458", GTIN: "68100084245"},
	}

	normalized, _, dups := records.Normalize(items, policies(t, "amazon"))
	if len(normalized) != 1 {
		t.Fatalf("got %d rows, want 1 after duplicate drops", len(normalized))
	}
	if len(dups.BMNs) != 1 || dups.BMNs[0] != "10023456" {
		t.Fatalf("duplicate BMNs = %v", dups.BMNs)
	}
	if len(dups.GTINs) != 1 || dups.GTINs[0] != "68100084245" {
		t.Fatalf("duplicate GTINs = %v", dups.GTINs)
	}
}

func TestNormalizeRejectsDigitlessBMN(t *testing.T) {
	items := []records.Item{{Row: 2, BMN: "n/a", GTIN: "68100084245"}}
	normalized, rejects, _ := records.Normalize(items, policies(t, "amazon"))
	if len(normalized) != 0 {
		t.Fatalf("normalized = %+v, want none", normalized)
	}
	if len(rejects) != 1 || !errors.Is(rejects[0].Err, services.ErrInvalidIdentifier) {
		t.Fatalf("rejects = %+v, want one ErrInvalidIdentifier reject", rejects)
	}
}
