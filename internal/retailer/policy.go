// Package retailer holds the per-retailer policy table: which asset types a
// retailer takes, how files are named, which identifier fields are required,
// and how destination folders are laid out. Retailer behavior is data here;
// adding a retailer is adding a table entry.
package retailer

import "strings"

// Identifier field keys used by policies and input records.
const (
	FieldBMN       = "bmn"
	FieldGTIN      = "gtin"
	FieldArticleID = "article_id"
	FieldASIN      = "asin"
)

// AssetRule names one asset type a retailer requires. Multi marks
// sequence-numbered types (carousel images); single-instance types keep only
// the first eligible candidate per language.
type AssetRule struct {
	Type  string
	Multi bool
}

// LanguageRule selects how a policy picks among language variants.
type LanguageRule int

const (
	// LanguagesEnglishPreferred takes English-only assets, falling back to
	// bilingual ones when no English-only variant exists.
	LanguagesEnglishPreferred LanguageRule = iota
	// LanguagesSplitHero takes English and French variants separately for
	// the hero type and prefers bilingual assets for everything else.
	LanguagesSplitHero
)

// NameInput carries everything a filename template may depend on.
type NameInput struct {
	SaveID    string
	LangCode  string
	AssetType string
	Sequence  int
}

// NameFunc is a pure filename template: (save id, language, type, sequence)
// to on-disk filename.
type NameFunc func(NameInput) (string, error)

// Policy is the static configuration for one retailer.
type Policy struct {
	Name           string
	FolderRoot     string
	Rules          []AssetRule
	SearchIDField  string
	SaveIDField    string
	RequiredFields []string
	GTINDigits     int
	Languages      LanguageRule
	Filename       NameFunc
}

// Rule returns the policy's rule for an asset type, if any.
func (p Policy) Rule(assetType string) (AssetRule, bool) {
	for _, rule := range p.Rules {
		if strings.EqualFold(rule.Type, assetType) {
			return rule, true
		}
	}
	return AssetRule{}, false
}

// ResolvesASINs reports whether the policy's save identifier comes from the
// GTIN-to-ASIN resolution step rather than the input record.
func (p Policy) ResolvesASINs() bool {
	return p.SaveIDField == FieldASIN
}

// RequiredTypes returns the asset type keywords in priority order.
func (p Policy) RequiredTypes() []string {
	types := make([]string, 0, len(p.Rules))
	for _, rule := range p.Rules {
		types = append(types, rule.Type)
	}
	return types
}
