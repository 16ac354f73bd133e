// Package codes parses the structured product code format
// {categoryChar}{genderChar}-{type}-{brand}-{color}-{serial} and renders
// human-readable labels through the code-parts lexicon.
package codes

import (
	"fmt"
	"strconv"
	"strings"

	"tindahan/backend/internal/domain"
)

// Parts are the positional segments of a product code.
type Parts struct {
	Category string
	Gender   string
	Type     string
	Brand    string
	Color    string
	Serial   string
}

// Parse splits a product code into its positional segments. The first
// segment carries two single-character codes (category then gender).
func Parse(code string) (Parts, error) {
	segments := strings.Split(strings.TrimSpace(code), "-")
	if len(segments) != 5 {
		return Parts{}, fmt.Errorf("malformed product code %q: want 5 segments", code)
	}
	head := segments[0]
	if len(head) != 2 {
		return Parts{}, fmt.Errorf("malformed product code %q: want 2-char category/gender segment", code)
	}
	return Parts{
		Category: head[:1],
		Gender:   head[1:],
		Type:     segments[1],
		Brand:    segments[2],
		Color:    segments[3],
		Serial:   segments[4],
	}, nil
}

// IsValid reports whether code parses as a structured product code.
func IsValid(code string) bool {
	_, err := Parse(code)
	return err == nil
}

// Lexicon is the read-only group→code→label dictionary.
type Lexicon struct {
	labels map[string]map[string]string
}

func NewLexicon(parts []domain.CodePart) *Lexicon {
	labels := make(map[string]map[string]string, 5)
	for _, part := range parts {
		group := labels[part.Group]
		if group == nil {
			group = make(map[string]string)
			labels[part.Group] = group
		}
		group[part.Code] = part.Label
	}
	return &Lexicon{labels: labels}
}

// Label resolves a segment code to its display label. Unmapped segments
// degrade to an empty label rather than failing.
func (l *Lexicon) Label(group string, code string) string {
	if l == nil || code == "" {
		return ""
	}
	return l.labels[group][code]
}

// DisplayName derives a human-readable name from a product code when no
// explicit name is stored: "<brand> <color> <type>" from the lexicon, with
// unmapped segments dropped.
func (l *Lexicon) DisplayName(code string) string {
	parts, err := Parse(code)
	if err != nil {
		return code
	}
	words := make([]string, 0, 3)
	for _, word := range []string{
		l.Label(domain.GroupBrand, parts.Brand),
		l.Label(domain.GroupColor, parts.Color),
		l.Label(domain.GroupType, parts.Type),
	} {
		if word != "" {
			words = append(words, word)
		}
	}
	if len(words) == 0 {
		return code
	}
	return strings.Join(words, " ")
}

// NextSerial scans codes sharing prefix, extracts the trailing numeric
// serial of each, and returns max+1 zero-padded to two digits. Codes with a
// non-numeric trailing segment are ignored. No matching codes yields "01".
func NextSerial(prefix string, allCodes []string) string {
	prefix = strings.TrimSpace(prefix)
	maxSerial := 0
	for _, code := range allCodes {
		if prefix != "" && !strings.HasPrefix(code, prefix) {
			continue
		}
		idx := strings.LastIndex(code, "-")
		if idx < 0 || idx == len(code)-1 {
			continue
		}
		serial, err := strconv.Atoi(code[idx+1:])
		if err != nil {
			continue
		}
		if serial > maxSerial {
			maxSerial = serial
		}
	}
	return fmt.Sprintf("%02d", maxSerial+1)
}

// FillProduct back-fills the code-derived metadata fields of a product when
// they were not explicitly supplied.
func FillProduct(p *domain.Product, lex *Lexicon) {
	parts, err := Parse(p.Code)
	if err != nil {
		return
	}
	if p.Category == "" {
		p.Category = parts.Category
	}
	if p.Gender == "" {
		p.Gender = parts.Gender
	}
	if p.Type == "" {
		p.Type = parts.Type
	}
	if p.Brand == "" {
		p.Brand = parts.Brand
	}
	if p.Color == "" {
		p.Color = parts.Color
	}
	if p.Serial == "" {
		p.Serial = parts.Serial
	}
	if p.Name == "" {
		p.Name = lex.DisplayName(p.Code)
	}
}
