package codes

import (
	"testing"

	"tindahan/backend/internal/domain"
)

func TestParse(t *testing.T) {
	parts, err := Parse("GM-TP-AC-BK-01")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parts.Category != "G" || parts.Gender != "M" {
		t.Fatalf("unexpected category/gender: %q %q", parts.Category, parts.Gender)
	}
	if parts.Type != "TP" || parts.Brand != "AC" || parts.Color != "BK" || parts.Serial != "01" {
		t.Fatalf("unexpected parts: %+v", parts)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"GM-TP-AC-BK",
		"GM-TP-AC-BK-01-02",
		"G-TP-AC-BK-01",
		"GMX-TP-AC-BK-01",
	}
	for _, code := range bad {
		if _, err := Parse(code); err == nil {
			t.Errorf("expected parse of %q to fail", code)
		}
		if IsValid(code) {
			t.Errorf("expected %q to be invalid", code)
		}
	}
}

func TestNextSerial(t *testing.T) {
	tests := []struct {
		name   string
		codes  []string
		want   string
		prefix string
	}{
		{
			name:   "empty catalog starts at 01",
			codes:  nil,
			prefix: "GM-TP-AC-BK",
			want:   "01",
		},
		{
			name:   "continues after existing serials",
			codes:  []string{"GM-TP-AC-BK-01", "GM-TP-AC-BK-02"},
			prefix: "GM-TP-AC-BK",
			want:   "03",
		},
		{
			name:   "other prefixes do not count",
			codes:  []string{"GM-TP-AC-WH-07", "GW-HD-AC-BK-04"},
			prefix: "GM-TP-AC-BK",
			want:   "01",
		},
		{
			name:   "malformed trailing serials are ignored",
			codes:  []string{"GM-TP-AC-BK-01", "GM-TP-AC-BK-XX", "GM-TP-AC-BK-"},
			prefix: "GM-TP-AC-BK",
			want:   "02",
		},
		{
			name:   "gaps jump to max plus one",
			codes:  []string{"GM-TP-AC-BK-01", "GM-TP-AC-BK-09"},
			prefix: "GM-TP-AC-BK",
			want:   "10",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NextSerial(tc.prefix, tc.codes)
			if got != tc.want {
				t.Fatalf("NextSerial = %q, want %q", got, tc.want)
			}
		})
	}
}

func testLexicon() *Lexicon {
	return NewLexicon([]domain.CodePart{
		{Group: domain.GroupCategory, Code: "G", Label: "garment"},
		{Group: domain.GroupGender, Code: "M", Label: "men"},
		{Group: domain.GroupType, Code: "TP", Label: "t-shirt"},
		{Group: domain.GroupBrand, Code: "AC", Label: "acme"},
		{Group: domain.GroupColor, Code: "BK", Label: "black"},
	})
}

func TestLexiconLabel(t *testing.T) {
	lex := testLexicon()
	if got := lex.Label(domain.GroupColor, "BK"); got != "black" {
		t.Fatalf("label = %q, want black", got)
	}
	if got := lex.Label(domain.GroupColor, "ZZ"); got != "" {
		t.Fatalf("unmapped label should be empty, got %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	lex := testLexicon()
	if got := lex.DisplayName("GM-TP-AC-BK-01"); got != "acme black t-shirt" {
		t.Fatalf("display name = %q", got)
	}
	// A code that cannot be parsed falls back to itself.
	if got := lex.DisplayName("whatever"); got != "whatever" {
		t.Fatalf("fallback display name = %q", got)
	}
}

func TestFillProduct(t *testing.T) {
	lex := testLexicon()
	product := domain.Product{Code: "GM-TP-AC-BK-01"}
	FillProduct(&product, lex)

	if product.Category != "G" || product.Gender != "M" {
		t.Fatalf("category/gender not filled: %+v", product)
	}
	if product.Type != "TP" || product.Brand != "AC" || product.Color != "BK" {
		t.Fatalf("type/brand/color not filled: %+v", product)
	}
	if product.Serial != "01" {
		t.Fatalf("serial = %q", product.Serial)
	}
	if product.Name != "acme black t-shirt" {
		t.Fatalf("derived name = %q", product.Name)
	}
}

func TestFillProductKeepsExistingFields(t *testing.T) {
	lex := testLexicon()
	product := domain.Product{Code: "GM-TP-AC-BK-01", Name: "Crew Tee", Color: "custom"}
	FillProduct(&product, lex)

	if product.Name != "Crew Tee" {
		t.Fatalf("name overwritten: %q", product.Name)
	}
	if product.Color != "custom" {
		t.Fatalf("color overwritten: %q", product.Color)
	}
}
