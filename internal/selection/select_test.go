package selection_test

import (
	"testing"

	"packshot/internal/catalog"
	"packshot/internal/retailer"
	"packshot/internal/selection"
)

func policyFor(t *testing.T, name string) retailer.Policy {
	t.Helper()
	registry, err := retailer.NewRegistry(nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	policy, err := registry.PolicyFor(name)
	if err != nil {
		t.Fatalf("PolicyFor(%s): %v", name, err)
	}
	return policy
}

func asset(id, assetType, state string, langs []string, tags ...string) catalog.Asset {
	return catalog.Asset{
		ID:           id,
		Type:         assetType,
		State:        state,
		Languages:    langs,
		RetailerTags: tags,
	}
}

func selectedIDs(result selection.Result) []string {
	ids := make([]string, 0, len(result.Selected))
	for _, pick := range result.Selected {
		ids = append(ids, pick.Asset.ID)
	}
	return ids
}

func TestSelectDropsRestrictedAndForeignTags(t *testing.T) {
	policy := policyFor(t, "amazon")
	candidates := []catalog.Asset{
		asset("hero-restricted", catalog.TypeMobileHero, catalog.StateRestricted, []string{"English"}),
		asset("hero-sobeys", catalog.TypeMobileHero, catalog.StateCurrent, []string{"English"}, "Sobeys Inc."),
		asset("hero-ok", catalog.TypeMobileHero, catalog.StateCurrent, []string{"English"}, "Amazon.com"),
		asset("ing-superseded", catalog.TypeIngredient, catalog.StateSuperseded, []string{"English"}),
	}

	result := selection.Select(candidates, policy)

	if got := selectedIDs(result); len(got) != 1 || got[0] != "hero-ok" {
		t.Fatalf("Selected = %v, want [hero-ok]", got)
	}
	if len(result.Restricted) != 1 || result.Restricted[0].ID != "hero-restricted" {
		t.Fatalf("Restricted = %+v", result.Restricted)
	}
	// The superseded panel leaves Ingredients with no candidate; carousel and
	// nutrition had none to begin with.
	if len(result.MissingTypes) != 3 {
		t.Fatalf("MissingTypes = %v", result.MissingTypes)
	}
}

func TestSelectUntaggedAssetsAreEligibleEverywhere(t *testing.T) {
	policy := policyFor(t, "instacart")
	candidates := []catalog.Asset{
		asset("hero", catalog.TypeMobileHero, catalog.StateCurrent, []string{"English"}),
	}
	result := selection.Select(candidates, policy)
	if got := selectedIDs(result); len(got) != 1 || got[0] != "hero" {
		t.Fatalf("Selected = %v, want [hero]", got)
	}
}

func TestSelectSingleInstanceRoutesDuplicates(t *testing.T) {
	policy := policyFor(t, "amazon")
	candidates := []catalog.Asset{
		asset("hero-1", catalog.TypeMobileHero, catalog.StateCurrent, []string{"English"}),
		asset("hero-2", catalog.TypeMobileHero, catalog.StateCurrent, []string{"English"}),
	}

	result := selection.Select(candidates, policy)

	if got := selectedIDs(result); len(got) != 1 || got[0] != "hero-1" {
		t.Fatalf("Selected = %v, want first hero", got)
	}
	if len(result.SkippedDuplicates) != 1 || result.SkippedDuplicates[0].ID != "hero-2" {
		t.Fatalf("SkippedDuplicates = %+v", result.SkippedDuplicates)
	}
}

func TestSelectEnglishPreferredFallsBackToBilingual(t *testing.T) {
	policy := policyFor(t, "amazon")
	candidates := []catalog.Asset{
		asset("hero-fr", catalog.TypeMobileHero, catalog.StateCurrent, []string{"French"}),
		asset("hero-ml", catalog.TypeMobileHero, catalog.StateCurrent, []string{"English", "French"}),
	}

	result := selection.Select(candidates, policy)

	if got := selectedIDs(result); len(got) != 1 || got[0] != "hero-ml" {
		t.Fatalf("Selected = %v, want bilingual hero", got)
	}
}

func TestSelectEnglishPreferredNeverPicksFrenchOnly(t *testing.T) {
	policy := policyFor(t, "amazon")
	candidates := []catalog.Asset{
		asset("hero-fr", catalog.TypeMobileHero, catalog.StateCurrent, []string{"French"}),
	}

	result := selection.Select(candidates, policy)

	if len(result.Selected) != 0 {
		t.Fatalf("Selected = %v, want none", selectedIDs(result))
	}
	if len(result.MissingTypes) == 0 || result.MissingTypes[0] != catalog.TypeMobileHero {
		t.Fatalf("MissingTypes = %v, want hero first", result.MissingTypes)
	}
}

func TestSelectCarouselSequencesInSourceOrder(t *testing.T) {
	policy := policyFor(t, "amazon")
	candidates := []catalog.Asset{
		asset("car-a", catalog.TypeCarousel, catalog.StateCurrent, []string{"English"}),
		asset("car-b", catalog.TypeCarousel, catalog.StateCurrent, []string{"English"}),
		asset("car-c", catalog.TypeCarousel, catalog.StateCurrent, []string{"English"}),
	}

	result := selection.Select(candidates, policy)

	if len(result.Selected) != 3 {
		t.Fatalf("Selected = %v, want 3 carousel picks", selectedIDs(result))
	}
	for i, pick := range result.Selected {
		if pick.Sequence != i+1 {
			t.Fatalf("pick %s Sequence = %d, want %d", pick.Asset.ID, pick.Sequence, i+1)
		}
	}
}

func TestSelectSplitHeroTakesBothLanguages(t *testing.T) {
	policy := policyFor(t, "sobeys")
	candidates := []catalog.Asset{
		asset("hero-en-1", catalog.TypeMobileHero, catalog.StateCurrent, []string{"English"}),
		asset("hero-en-2", catalog.TypeMobileHero, catalog.StateCurrent, []string{"English"}),
		asset("hero-fr", catalog.TypeMobileHero, catalog.StateCurrent, []string{"French-Canadian"}),
	}

	result := selection.Select(candidates, policy)

	if got := selectedIDs(result); len(got) != 2 || got[0] != "hero-en-1" || got[1] != "hero-fr" {
		t.Fatalf("Selected = %v, want [hero-en-1 hero-fr]", got)
	}
	if len(result.SkippedDuplicates) != 1 || result.SkippedDuplicates[0].ID != "hero-en-2" {
		t.Fatalf("SkippedDuplicates = %+v", result.SkippedDuplicates)
	}
}

func TestSelectSplitHeroPrefersBilingualPanels(t *testing.T) {
	policy := policyFor(t, "sobeys")
	candidates := []catalog.Asset{
		asset("nfp-en", catalog.TypeNutrition, catalog.StateCurrent, []string{"English"}),
		asset("nfp-ml", catalog.TypeNutrition, catalog.StateCurrent, []string{"English", "French"}),
	}

	result := selection.Select(candidates, policy)

	var nutrition []string
	for _, pick := range result.Selected {
		if pick.Asset.Type == catalog.TypeNutrition {
			nutrition = append(nutrition, pick.Asset.ID)
		}
	}
	if len(nutrition) != 1 || nutrition[0] != "nfp-ml" {
		t.Fatalf("nutrition picks = %v, want bilingual", nutrition)
	}
}

func TestSelectFollowsPolicyTypeOrder(t *testing.T) {
	policy := policyFor(t, "amazon")
	candidates := []catalog.Asset{
		asset("nfp", catalog.TypeNutrition, catalog.StateCurrent, []string{"English"}),
		asset("hero", catalog.TypeMobileHero, catalog.StateCurrent, []string{"English"}),
	}

	result := selection.Select(candidates, policy)

	if got := selectedIDs(result); len(got) != 2 || got[0] != "hero" || got[1] != "nfp" {
		t.Fatalf("Selected = %v, want hero before nutrition", got)
	}
}
