// Package records loads and normalizes the identifier spreadsheet that seeds
// a run: one row per product, columns for BMN, GTIN, and article ID.
package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"packshot/internal/identifier"
	"packshot/internal/retailer"
	"packshot/internal/services"
)

// Item is one normalized input row.
type Item struct {
	Row       int
	BMN       string
	GTIN      string
	ArticleID string
}

// Duplicates lists input values that appeared on more than one row. Dropped
// rows are reported, not silently eaten, so the uploader can fix the sheet.
type Duplicates struct {
	BMNs       []string
	GTINs      []string
	ArticleIDs []string
}

// Empty reports whether no duplicate values were found.
func (d Duplicates) Empty() bool {
	return len(d.BMNs) == 0 && len(d.GTINs) == 0 && len(d.ArticleIDs) == 0
}

// ReadCSV loads the input sheet. The header row is matched loosely and
// case-insensitively so exports from different tools all parse: a column
// counts as BMN if its header contains "bmn", as GTIN if it contains "gtin"
// or "upc", and as article ID if it contains "article".
func ReadCSV(path string) ([]Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "records", "read", "open input file", err)
	}
	defer file.Close()
	return parseCSV(file)
}

func parseCSV(r io.Reader) ([]Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "records", "read", "read header row", err)
	}
	columns := mapColumns(header)
	if _, ok := columns[retailer.FieldBMN]; !ok {
		return nil, services.Wrap(services.ErrMissingField, "records", "read", "input has no BMN column", nil)
	}

	var items []Item
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "records", "read", fmt.Sprintf("parse row %d", row+1), err)
		}
		row++
		item := Item{
			Row:       row,
			BMN:       cell(record, columns, retailer.FieldBMN),
			GTIN:      cell(record, columns, retailer.FieldGTIN),
			ArticleID: cell(record, columns, retailer.FieldArticleID),
		}
		if item.BMN == "" && item.GTIN == "" && item.ArticleID == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		switch {
		case strings.Contains(key, "bmn"):
			columns[retailer.FieldBMN] = i
		case strings.Contains(key, "gtin"), strings.Contains(key, "upc"):
			columns[retailer.FieldGTIN] = i
		case strings.Contains(key, "article"):
			columns[retailer.FieldArticleID] = i
		}
	}
	return columns
}

func cell(record []string, columns map[string]int, field string) string {
	i, ok := columns[field]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// Reject is an input row dropped during normalization: an unusable
// identifier, or a field a selected retailer requires that the row lacks.
type Reject struct {
	Item Item
	Err  error
}

// Normalize canonicalizes identifiers and deduplicates rows. Every policy's
// required fields are checked up front; a row that fails the check is
// returned as a Reject rather than aborting the load, so one bad row never
// stops the rest of the sheet from running.
func Normalize(items []Item, policies []retailer.Policy) ([]Item, []Reject, Duplicates) {
	required := requiredFields(policies)

	var out []Item
	var rejects []Reject
	var duplicates Duplicates
	seenBMN := make(map[string]bool)
	seenGTIN := make(map[string]bool)
	seenArticle := make(map[string]bool)

	for _, item := range items {
		normalized, err := normalizeItem(item, required)
		if err != nil {
			rejects = append(rejects, Reject{Item: item, Err: err})
			continue
		}

		dup := false
		if normalized.BMN != "" {
			if seenBMN[normalized.BMN] {
				duplicates.BMNs = append(duplicates.BMNs, normalized.BMN)
				dup = true
			}
			seenBMN[normalized.BMN] = true
		}
		if normalized.GTIN != "" {
			if seenGTIN[normalized.GTIN] {
				duplicates.GTINs = append(duplicates.GTINs, normalized.GTIN)
				dup = true
			}
			seenGTIN[normalized.GTIN] = true
		}
		if normalized.ArticleID != "" {
			if seenArticle[normalized.ArticleID] {
				duplicates.ArticleIDs = append(duplicates.ArticleIDs, normalized.ArticleID)
				dup = true
			}
			seenArticle[normalized.ArticleID] = true
		}
		if dup {
			continue
		}
		out = append(out, normalized)
	}
	return out, rejects, duplicates
}

func normalizeItem(item Item, required map[string]bool) (Item, error) {
	normalized := item

	if item.BMN != "" {
		bmn, err := identifier.NormalizeBMN(item.BMN)
		if err != nil {
			return Item{}, services.Wrap(services.ErrInvalidIdentifier, "records", "normalize", fmt.Sprintf("row %d BMN %q", item.Row, item.BMN), err)
		}
		normalized.BMN = bmn
	}
	if item.GTIN != "" {
		gtin := identifier.Digits(item.GTIN)
		if gtin == "" {
			return Item{}, services.Wrap(services.ErrInvalidIdentifier, "records", "normalize", fmt.Sprintf("row %d GTIN %q", item.Row, item.GTIN), nil)
		}
		normalized.GTIN = gtin
	}
	if item.ArticleID != "" {
		normalized.ArticleID = identifier.Digits(item.ArticleID)
	}

	for field := range required {
		if fieldValue(normalized, field) == "" {
			return Item{}, services.Wrap(services.ErrMissingField, "records", "normalize", fmt.Sprintf("row %d is missing %s", item.Row, field), nil)
		}
	}
	return normalized, nil
}

func requiredFields(policies []retailer.Policy) map[string]bool {
	required := make(map[string]bool)
	for _, policy := range policies {
		for _, field := range policy.RequiredFields {
			required[field] = true
		}
	}
	return required
}

func fieldValue(item Item, field string) string {
	switch field {
	case retailer.FieldBMN:
		return item.BMN
	case retailer.FieldGTIN:
		return item.GTIN
	case retailer.FieldArticleID:
		return item.ArticleID
	default:
		return ""
	}
}
