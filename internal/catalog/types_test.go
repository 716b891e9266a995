package catalog_test

import (
	"testing"

	"packshot/internal/catalog"
)

func TestLangCode(t *testing.T) {
	cases := []struct {
		name  string
		langs []string
		want  string
	}{
		{"english display name", []string{"English"}, "en"},
		{"french display name", []string{"French"}, "fr"},
		{"french canadian", []string{"French-Canadian"}, "fr"},
		{"bcp47 code", []string{"fr-CA"}, "fr"},
		{"bilingual", []string{"English", "French"}, "ml"},
		{"untagged", nil, ""},
		{"unknown label", []string{"Klingon"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := catalog.Asset{Languages: tc.langs}
			if got := a.LangCode(); got != tc.want {
				t.Fatalf("LangCode(%v) = %q, want %q", tc.langs, got, tc.want)
			}
		})
	}
}

func TestLanguagePredicates(t *testing.T) {
	en := catalog.Asset{Languages: []string{"English"}}
	fr := catalog.Asset{Languages: []string{"French"}}
	ml := catalog.Asset{Languages: []string{"English", "French-Canadian"}}

	if !en.EnglishOnly() || en.FrenchOnly() || en.Multilingual() {
		t.Fatal("english asset predicates wrong")
	}
	if !fr.FrenchOnly() || fr.EnglishOnly() {
		t.Fatal("french asset predicates wrong")
	}
	if !ml.Multilingual() || ml.EnglishOnly() || ml.FrenchOnly() {
		t.Fatal("bilingual asset predicates wrong")
	}
}

func TestEligibleFor(t *testing.T) {
	untagged := catalog.Asset{}
	if !catalog.EligibleFor(untagged, "amazon") {
		t.Fatal("untagged assets should be eligible everywhere")
	}

	tagged := catalog.Asset{RetailerTags: []string{"Amazon.com", "Amazon.ca"}}
	if !catalog.EligibleFor(tagged, "Amazon") {
		t.Fatal("substring match should accept Amazon")
	}
	if catalog.EligibleFor(tagged, "Sobeys") {
		t.Fatal("Sobeys should not match Amazon tags")
	}
	if catalog.EligibleFor(tagged, "") {
		t.Fatal("empty retailer never matches tagged assets")
	}
}

func TestStatePredicates(t *testing.T) {
	if !(catalog.Asset{State: "Current"}).Current() {
		t.Fatal("Current() should accept the portal state")
	}
	if !(catalog.Asset{State: " restricted "}).Restricted() {
		t.Fatal("Restricted() should be case and space insensitive")
	}
	if (catalog.Asset{State: "Superseded"}).Current() {
		t.Fatal("Superseded is not current")
	}
}
