package retailer

import (
	"fmt"
	"strings"

	"packshot/internal/catalog"
	"packshot/internal/services"
)

// AmazonName renders Vendor Central bulk-upload filenames:
// {asin}.MAIN.jpeg for the hero shot, {asin}.PT{nn}.jpeg for carousel
// positions, {asin}.INGR.jpeg / {asin}.NFP.jpeg for the panels.
func AmazonName(in NameInput) (string, error) {
	if strings.TrimSpace(in.SaveID) == "" {
		return "", services.Wrap(services.ErrTemplate, "naming", "amazon", "ASIN is required", nil)
	}
	switch in.AssetType {
	case catalog.TypeMobileHero:
		return fmt.Sprintf("%s.MAIN.jpeg", in.SaveID), nil
	case catalog.TypeCarousel:
		if in.Sequence < 1 {
			return "", services.Wrap(services.ErrTemplate, "naming", "amazon", "carousel sequence must be positive", nil)
		}
		return fmt.Sprintf("%s.PT%02d.jpeg", in.SaveID, in.Sequence), nil
	case catalog.TypeIngredient:
		return fmt.Sprintf("%s.INGR.jpeg", in.SaveID), nil
	case catalog.TypeNutrition:
		return fmt.Sprintf("%s.NFP.jpeg", in.SaveID), nil
	default:
		return "", services.Wrap(services.ErrTemplate, "naming", "amazon", "no naming rule for asset type "+in.AssetType, nil)
	}
}

var sobeysCodes = map[string]string{
	catalog.TypeMobileHero: "left",
	catalog.TypeFront3D:    "front",
	catalog.TypeIngredient: "ing",
	catalog.TypeNutrition:  "nfp",
}

// SobeysName renders the underscore-delimited Sobeys convention keyed on
// article ID and language code.
func SobeysName(in NameInput) (string, error) {
	if strings.TrimSpace(in.SaveID) == "" {
		return "", services.Wrap(services.ErrTemplate, "naming", "sobeys", "article ID is required", nil)
	}
	if strings.TrimSpace(in.LangCode) == "" {
		return "", services.Wrap(services.ErrTemplate, "naming", "sobeys", "language code is required for "+in.AssetType, nil)
	}
	code, ok := sobeysCodes[in.AssetType]
	if !ok {
		return "", services.Wrap(services.ErrTemplate, "naming", "sobeys", "no naming rule for asset type "+in.AssetType, nil)
	}
	switch in.AssetType {
	case catalog.TypeMobileHero:
		return fmt.Sprintf("%s_EA_%s_na_%s_na.jpg", in.SaveID, in.LangCode, code), nil
	case catalog.TypeFront3D:
		return fmt.Sprintf("%s_EA_%s_primary_%s_na.jpg", in.SaveID, in.LangCode, code), nil
	default:
		return fmt.Sprintf("%s_EA_%s_na_na_%s.jpg", in.SaveID, in.LangCode, code), nil
	}
}

var instacartSuffixes = map[string]string{
	catalog.TypeMobileHero: "main",
	catalog.TypeLeftFront:  "sideleft",
	catalog.TypeRightFront: "sideright",
	catalog.TypeIngredient: "ing",
	catalog.TypeNutrition:  "nut",
}

// InstacartName renders the hyphenated Instacart convention keyed on GTIN.
func InstacartName(in NameInput) (string, error) {
	if strings.TrimSpace(in.SaveID) == "" {
		return "", services.Wrap(services.ErrTemplate, "naming", "instacart", "GTIN is required", nil)
	}
	suffix, ok := instacartSuffixes[in.AssetType]
	if !ok {
		return "", services.Wrap(services.ErrTemplate, "naming", "instacart", "no naming rule for asset type "+in.AssetType, nil)
	}
	return fmt.Sprintf("%s-%s.jpg", in.SaveID, suffix), nil
}
