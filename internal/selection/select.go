// Package selection decides which candidate assets qualify for a retailer:
// eligibility partition, restriction handling, language preference, duplicate
// detection, and carousel sequencing.
package selection

import (
	"packshot/internal/catalog"
	"packshot/internal/retailer"
)

// Pick is one selected asset together with its sequence number for
// multi-instance types. Sequence is zero for single-instance types.
type Pick struct {
	Asset    catalog.Asset
	Sequence int
}

// Result partitions the candidate set for one policy.
type Result struct {
	Selected          []Pick
	Restricted        []catalog.Asset
	SkippedDuplicates []catalog.Asset
	MissingTypes      []string
}

// Select filters candidates against a retailer policy.
//
// Candidates tagged for another retailer are dropped silently; they belong to
// a different policy's pass, not to the error log. Restricted candidates are
// reported but never selected. Within a type, source order is authoritative:
// carousel sequence numbers follow the order the portal returned, and
// single-instance types keep the first qualifying candidate per language
// variant, routing later ones to SkippedDuplicates. Selected output follows
// the policy's declared type priority order, not discovery order.
func Select(candidates []catalog.Asset, policy retailer.Policy) Result {
	var result Result

	byType := make(map[string][]catalog.Asset)
	for _, asset := range candidates {
		if !catalog.EligibleFor(asset, policy.Name) {
			continue
		}
		if _, ok := policy.Rule(asset.Type); !ok {
			continue
		}
		if asset.Restricted() {
			result.Restricted = append(result.Restricted, asset)
			continue
		}
		if !asset.Current() {
			continue
		}
		byType[asset.Type] = append(byType[asset.Type], asset)
	}

	for _, rule := range policy.Rules {
		group := byType[rule.Type]
		picked, duplicates := pickForRule(group, rule, policy.Languages)
		if len(picked) == 0 {
			result.MissingTypes = append(result.MissingTypes, rule.Type)
			continue
		}
		result.Selected = append(result.Selected, picked...)
		result.SkippedDuplicates = append(result.SkippedDuplicates, duplicates...)
	}
	return result
}

func pickForRule(group []catalog.Asset, rule retailer.AssetRule, langRule retailer.LanguageRule) ([]Pick, []catalog.Asset) {
	if len(group) == 0 {
		return nil, nil
	}

	if rule.Multi {
		pool := englishPreferredPool(group)
		picks := make([]Pick, 0, len(pool))
		for i, asset := range pool {
			picks = append(picks, Pick{Asset: asset, Sequence: i + 1})
		}
		return picks, nil
	}

	switch langRule {
	case retailer.LanguagesSplitHero:
		if rule.Type == catalog.TypeMobileHero {
			return pickPerLanguage(group)
		}
		if pool := filterAssets(group, catalog.Asset.Multilingual); len(pool) > 0 {
			return firstOf(pool)
		}
		if picks, dups := pickPerLanguage(group); len(picks) > 0 {
			return picks, dups
		}
		return firstOf(untagged(group))
	default:
		return firstOf(englishPreferredPool(group))
	}
}

// englishPreferredPool orders the language fallback: English-only first, then
// bilingual, then assets the portal did not tag with a language at all.
// French-only assets are never chosen under this rule.
func englishPreferredPool(group []catalog.Asset) []catalog.Asset {
	if pool := filterAssets(group, catalog.Asset.EnglishOnly); len(pool) > 0 {
		return pool
	}
	if pool := filterAssets(group, catalog.Asset.Multilingual); len(pool) > 0 {
		return pool
	}
	return untagged(group)
}

// pickPerLanguage keeps the first English-only and the first French-only
// candidate, so bilingual markets get one file per language.
func pickPerLanguage(group []catalog.Asset) ([]Pick, []catalog.Asset) {
	var picks []Pick
	var duplicates []catalog.Asset

	english := filterAssets(group, catalog.Asset.EnglishOnly)
	french := filterAssets(group, catalog.Asset.FrenchOnly)
	for _, pool := range [][]catalog.Asset{english, french} {
		if len(pool) == 0 {
			continue
		}
		picks = append(picks, Pick{Asset: pool[0]})
		duplicates = append(duplicates, pool[1:]...)
	}
	if len(picks) > 0 {
		return picks, duplicates
	}
	return firstOf(untagged(group))
}

func firstOf(pool []catalog.Asset) ([]Pick, []catalog.Asset) {
	if len(pool) == 0 {
		return nil, nil
	}
	return []Pick{{Asset: pool[0]}}, append([]catalog.Asset(nil), pool[1:]...)
}

func filterAssets(group []catalog.Asset, keep func(catalog.Asset) bool) []catalog.Asset {
	var out []catalog.Asset
	for _, asset := range group {
		if keep(asset) {
			out = append(out, asset)
		}
	}
	return out
}

func untagged(group []catalog.Asset) []catalog.Asset {
	return filterAssets(group, func(a catalog.Asset) bool { return a.LangCode() == "" })
}
