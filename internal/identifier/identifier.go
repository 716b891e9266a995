// Package identifier canonicalizes raw product identifiers from
// heterogeneous spreadsheet formats into the digit strings the portal and
// the retailer conventions expect.
package identifier

import (
	"strings"

	"packshot/internal/services"
)

// Normalize strips non-digit characters from a raw GTIN/UPC value and fits
// the result to the requested digit length. Shorter values are zero-padded on
// the left; longer values first shed leading zeros and then a leading
// indicator-digit prefix, which is how GTIN-14 values collapse to the 12- or
// 13-digit forms retailers key on. The length is table-driven per retailer
// policy, never fixed at the call site.
func Normalize(raw string, digits int) (string, error) {
	cleaned := Digits(raw)
	if cleaned == "" {
		return "", services.Wrap(services.ErrInvalidIdentifier, "normalize", "", "identifier contains no digits: "+strings.TrimSpace(raw), nil)
	}
	if digits <= 0 {
		return cleaned, nil
	}

	for len(cleaned) > digits && cleaned[0] == '0' {
		cleaned = cleaned[1:]
	}
	if len(cleaned) > digits {
		// Remaining excess is the GTIN indicator/check prefix.
		cleaned = cleaned[len(cleaned)-digits:]
	}
	if len(cleaned) < digits {
		cleaned = strings.Repeat("0", digits-len(cleaned)) + cleaned
	}
	return cleaned, nil
}

// NormalizeBMN canonicalizes a business material number: digits only, no
// length adjustment. BMNs are portal search keys, not GTINs.
func NormalizeBMN(raw string) (string, error) {
	cleaned := Digits(raw)
	if cleaned == "" {
		return "", services.Wrap(services.ErrInvalidIdentifier, "normalize", "", "BMN contains no digits: "+strings.TrimSpace(raw), nil)
	}
	return cleaned, nil
}

// Digits returns only the decimal digit characters of raw, in order.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
