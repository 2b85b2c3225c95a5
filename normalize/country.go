package normalize

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// COUNTRY TABLE - Synonym data, not code
// =============================================================================

// CountryTable maps a cleaned country spelling to its canonical key.
type CountryTable map[string]string

// defaultSynonyms lists canonical key -> accepted spellings.
// Spellings are written already cleaned (lowercase, no punctuation).
var defaultSynonyms = map[string][]string{
	"us":          {"usa", "united states", "united states of america", "america", "u s", "u s a"},
	"uk":          {"united kingdom", "great britain", "britain", "gb", "england", "scotland", "wales", "northern ireland"},
	"canada":      {"ca", "can"},
	"australia":   {"au", "aus"},
	"ireland":     {"ie", "republic of ireland", "eire"},
	"germany":     {"de", "deutschland"},
	"russia":      {"ru", "russian federation"},
	"mexico":      {"mx", "mexique"},
	"netherlands": {"nl", "holland", "the netherlands"},
	"france":      {"fr"},
	"argentina":   {"ar"},
	"new zealand": {"nz"},
	"india":       {"in", "bharat"},
	"china":       {"cn", "prc", "peoples republic of china"},
	"japan":       {"jp", "nippon"},
	"brazil":      {"br", "brasil"},
}

// DefaultCountryTable returns a fresh copy of the built-in synonym table.
func DefaultCountryTable() CountryTable {
	return NewCountryTable(defaultSynonyms)
}

// NewCountryTable builds a table from canonical -> synonyms. Every canonical
// key also maps to itself.
func NewCountryTable(synonyms map[string][]string) CountryTable {
	t := make(CountryTable)
	t.Add(synonyms)
	return t
}

// Add merges extra synonyms into the table. Later entries win.
func (t CountryTable) Add(synonyms map[string][]string) {
	for canonical, aliases := range synonyms {
		key := clean(canonical)
		if key == "" {
			continue
		}
		t[key] = key
		for _, alias := range aliases {
			if a := clean(alias); a != "" {
				t[a] = key
			}
		}
	}
}

// LoadCountryTable reads a YAML document of the form
//
//	us: [usa, united states]
//	uk: [england, scotland]
//
// and merges it over the default table.
func LoadCountryTable(r io.Reader) (CountryTable, error) {
	var synonyms map[string][]string
	if err := yaml.NewDecoder(r).Decode(&synonyms); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode country table: %w", err)
	}
	t := DefaultCountryTable()
	t.Add(synonyms)
	return t, nil
}

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer resolves countries against a CountryTable. The zero value uses
// the default table.
type Normalizer struct {
	countries CountryTable
}

// New returns a Normalizer backed by the given table.
func New(countries CountryTable) Normalizer {
	return Normalizer{countries: countries}
}

// Default returns a Normalizer backed by the built-in table.
func Default() Normalizer {
	return New(DefaultCountryTable())
}

// builtin backs the zero Normalizer. It is never handed out.
var builtin = DefaultCountryTable()

func (n Normalizer) table() CountryTable {
	if n.countries == nil {
		return builtin
	}
	return n.countries
}

// LeadType is a convenience wrapper over the package-level LeadType.
func (n Normalizer) LeadType(text string) string { return LeadType(text) }

// Industry is a convenience wrapper over the package-level Industry.
func (n Normalizer) Industry(text string) string { return Industry(text) }

// Country returns the comparison key for a country name.
//
// The whole cleaned string is looked up first. If the input carries
// separators (comma, slash, parentheses or the word "and") each token is
// tried in order, and the first known one wins. Otherwise the cleaned
// string itself is the key. Empty input yields "".
func (n Normalizer) Country(text string) string {
	table := n.table()
	raw := separatorsKept(text)
	whole := clean(text)
	if whole == "" {
		return ""
	}
	if key, ok := table[whole]; ok {
		return key
	}

	for _, token := range tokens(raw) {
		if key, ok := table[token]; ok {
			return key
		}
	}
	return whole
}

// tokens splits on punctuation separators and on the word "and".
func tokens(raw string) []string {
	parts := strings.FieldsFunc(raw, isSeparator)
	var out []string
	for _, p := range parts {
		words := strings.Fields(p)
		start := 0
		for i, w := range words {
			if w == "and" {
				if i > start {
					out = append(out, strings.Join(words[start:i], " "))
				}
				start = i + 1
			}
		}
		if start < len(words) {
			out = append(out, strings.Join(words[start:], " "))
		}
	}
	return out
}

func isSeparator(r rune) bool {
	return r == ',' || r == '/' || r == '(' || r == ')'
}

// separatorsKept lowercases and drops punctuation except the separators.
// Hyphens and underscores become spaces.
func separatorsKept(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			return ' '
		case isSeparator(r):
			return r
		default:
			return -1
		}
	}, text)
}

// clean is the separator-free form used for table keys.
func clean(text string) string {
	return collapse(strings.Map(func(r rune) rune {
		if isSeparator(r) {
			return ' '
		}
		return r
	}, separatorsKept(text)))
}
