package identifier_test

import (
	"errors"
	"testing"

	"packshot/internal/identifier"
	"packshot/internal/services"
)

func TestNormalizeFitsDigitWidth(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		digits int
		want   string
	}{
		{"already right width", "068100084245", 12, "068100084245"},
		{"pads short upc", "68100084245", 12, "068100084245"},
		{"strips leading zeros from gtin14", "00068100084245", 12, "068100084245"},
		{"sheds indicator prefix", "10681000842456", 13, "0681000842456"},
		{"strips punctuation", "0-68100-08424-5", 12, "068100084245"},
		{"scientific notation artifacts", " 68100084245 ", 12, "068100084245"},
		{"width thirteen pads", "68100084245", 13, "0068100084245"},
		{"zero width keeps digits", "0068100084245", 0, "0068100084245"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := identifier.Normalize(tc.raw, tc.digits)
			if err != nil {
				t.Fatalf("Normalize(%q, %d): %v", tc.raw, tc.digits, err)
			}
			if got != tc.want {
				t.Fatalf("Normalize(%q, %d) = %q, want %q", tc.raw, tc.digits, got, tc.want)
			}
		})
	}
}

func TestNormalizeRejectsDigitlessInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "n/a", "---"} {
		if _, err := identifier.Normalize(raw, 12); !errors.Is(err, services.ErrInvalidIdentifier) {
			t.Fatalf("Normalize(%q) error = %v, want ErrInvalidIdentifier", raw, err)
		}
	}
}

func TestNormalizeBMNKeepsLength(t *testing.T) {
	got, err := identifier.NormalizeBMN(" 10023456 ")
	if err != nil {
		t.Fatalf("NormalizeBMN: %v", err)
	}
	if got != "10023456" {
		t.Fatalf("NormalizeBMN = %q, want 10023456", got)
	}
	if _, err := identifier.NormalizeBMN("abc"); !errors.Is(err, services.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestDigits(t *testing.T) {
	if got := identifier.Digits("a1b2c3"); got != "123" {
		t.Fatalf("Digits = %q, want 123", got)
	}
	if got := identifier.Digits("no digits"); got != "" {
		t.Fatalf("Digits = %q, want empty", got)
	}
}
