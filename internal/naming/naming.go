// Package naming turns a selected asset into its on-disk destination: one
// filename rendered from the retailer's template plus the set of folders the
// file fans out to, one folder per secondary identifier.
package naming

import (
	"path/filepath"

	"packshot/internal/catalog"
	"packshot/internal/identifier"
	"packshot/internal/records"
	"packshot/internal/retailer"
	"packshot/internal/selection"
	"packshot/internal/services"
)

// Target is where one asset lands. The filename is rendered once from the
// first save identifier and written unchanged into every folder, so products
// that resolve to several secondary identifiers get identical copies.
type Target struct {
	Filename string
	Folders  []string
}

// SaveIDs returns the secondary identifiers for an item under a policy.
// ASIN-keyed policies take the resolver output; the others draw a single
// identifier from the input row, normalized to the policy's GTIN width where
// that applies.
func SaveIDs(item records.Item, asins []string, policy retailer.Policy) ([]string, error) {
	switch policy.SaveIDField {
	case retailer.FieldASIN:
		if len(asins) == 0 {
			return nil, services.Wrap(services.ErrMissingField, "naming", "save ids", "no ASINs resolved for GTIN "+item.GTIN, nil)
		}
		return asins, nil
	case retailer.FieldGTIN:
		gtin, err := identifier.Normalize(item.GTIN, policy.GTINDigits)
		if err != nil {
			return nil, err
		}
		return []string{gtin}, nil
	case retailer.FieldArticleID:
		if item.ArticleID == "" {
			return nil, services.Wrap(services.ErrMissingField, "naming", "save ids", "row has no article ID", nil)
		}
		return []string{item.ArticleID}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "naming", "save ids", "policy has no save identifier field", nil)
	}
}

// Resolve renders the target for one pick. Template failures surface as
// ErrTemplate from the policy's name function.
func Resolve(pick selection.Pick, saveIDs []string, policy retailer.Policy) (Target, error) {
	if len(saveIDs) == 0 {
		return Target{}, services.Wrap(services.ErrMissingField, "naming", "resolve", "no save identifiers", nil)
	}

	filename, err := policy.Filename(retailer.NameInput{
		SaveID:    saveIDs[0],
		LangCode:  langCode(pick.Asset, policy),
		AssetType: pick.Asset.Type,
		Sequence:  pick.Sequence,
	})
	if err != nil {
		return Target{}, err
	}

	folders := make([]string, 0, len(saveIDs))
	for _, id := range saveIDs {
		folders = append(folders, filepath.Join(policy.FolderRoot, id))
	}
	return Target{Filename: filename, Folders: folders}, nil
}

// langCode picks the language token for templates that embed one. Bilingual
// assets render as English under the split-hero rule because the French copy
// arrives as its own pick.
func langCode(asset catalog.Asset, policy retailer.Policy) string {
	code := asset.LangCode()
	if policy.Languages == retailer.LanguagesSplitHero && code == "ml" {
		return "en"
	}
	return code
}
