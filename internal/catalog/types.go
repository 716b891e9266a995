// Package catalog models the digital assets the vendor portal returns for a
// product identifier and provides the REST-backed asset source.
package catalog

import (
	"strings"

	"golang.org/x/text/language"
)

// Asset lifecycle states as reported by the portal.
const (
	StateCurrent    = "Current"
	StateRestricted = "Restricted"
	StateSuperseded = "Superseded"
)

// Package-facing indicator keywords used by the portal and referenced by
// retailer policies.
const (
	TypeMobileHero = "Mobile Hero"
	TypeFront3D    = "Front - 3D"
	TypeLeftFront  = "Left Front - 3D"
	TypeRightFront = "Right Front - 3D"
	TypeCarousel   = "Carousel"
	TypeIngredient = "Ingredients"
	TypeNutrition  = "Nutrition"
)

// Asset is one candidate returned by the portal for an identifier.
// Immutable once fetched.
type Asset struct {
	ID           string
	Title        string
	Type         string
	Sequence     int
	RetailerTags []string
	State        string
	Languages    []string
	DownloadURL  string
}

// Restricted reports whether the portal flagged the asset as restricted.
// Restricted assets are never written to disk.
func (a Asset) Restricted() bool {
	return strings.EqualFold(strings.TrimSpace(a.State), StateRestricted)
}

// Current reports whether the asset is in the downloadable lifecycle state.
func (a Asset) Current() bool {
	return strings.EqualFold(strings.TrimSpace(a.State), StateCurrent)
}

var (
	frenchCanadian = language.MustParse("fr-CA")
	langMatcher    = language.NewMatcher([]language.Tag{language.English, frenchCanadian})
)

// parseLanguage maps the portal's language labels onto BCP-47 tags. The
// portal mixes display names ("English", "French-Canadian") with the odd
// raw code, so unknown values go through the x/text matcher.
func parseLanguage(name string) language.Tag {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case "":
		return language.Und
	case "english":
		return language.English
	case "french", "french-canadian", "canadian french":
		return frenchCanadian
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return language.Und
	}
	matched, _, conf := langMatcher.Match(tag)
	if conf == language.No {
		return language.Und
	}
	return matched
}

// HasEnglish reports whether any of the asset's languages resolves to English.
func (a Asset) HasEnglish() bool { return a.hasLanguage(language.English) }

// HasFrench reports whether any of the asset's languages resolves to Canadian French.
func (a Asset) HasFrench() bool { return a.hasLanguage(frenchCanadian) }

// Multilingual reports whether the asset carries both English and French text.
func (a Asset) Multilingual() bool { return a.HasEnglish() && a.HasFrench() }

// EnglishOnly reports whether the asset is English without French.
func (a Asset) EnglishOnly() bool { return a.HasEnglish() && !a.HasFrench() }

// FrenchOnly reports whether the asset is French without English.
func (a Asset) FrenchOnly() bool { return a.HasFrench() && !a.HasEnglish() }

// LangCode returns the filename language code used by retailer templates:
// "en", "fr", or "ml" for bilingual assets. Empty when the portal reported
// no language.
func (a Asset) LangCode() string {
	switch {
	case a.Multilingual():
		return "ml"
	case a.HasEnglish():
		return "en"
	case a.HasFrench():
		return "fr"
	default:
		return ""
	}
}

func (a Asset) hasLanguage(want language.Tag) bool {
	for _, name := range a.Languages {
		if parseLanguage(name) == want {
			return true
		}
	}
	return false
}

// EligibleFor reports whether the asset is tagged for the named retailer.
// The match is a case-insensitive substring check against each tag,
// preserving the portal's loose tagging convention; untagged assets are
// eligible everywhere.
func EligibleFor(a Asset, retailer string) bool {
	if len(a.RetailerTags) == 0 {
		return true
	}
	needle := strings.ToLower(strings.TrimSpace(retailer))
	if needle == "" {
		return false
	}
	for _, tag := range a.RetailerTags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
