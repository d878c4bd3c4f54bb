package normalizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// RulesVersion participates in cache fingerprints; bump on any change to the
// synonym table or pipeline steps.
const RulesVersion = "1.2.0"

// SynonymRule maps one street-type spelling to its canonical abbreviation.
// The table is ordered: longer spellings come before the abbreviations that
// could partially shadow them.
type SynonymRule struct {
	From string
	To   string
}

// DefaultSynonymRules is the canonical street-type table. Dots are already
// stripped by the time rules apply, so dotted spellings are not listed.
func DefaultSynonymRules() []SynonymRule {
	return []SynonymRule{
		{"проспект", "пр"},
		{"просп", "пр"},
		{"пр-кт", "пр"},
		{"пр-т", "пр"},
		{"улица", "ул"},
		{"набережная", "наб"},
		{"переулок", "пер"},
		{"шоссе", "ш"},
		{"корпус", "к"},
		{"корп", "к"},
		{"строение", "стр"},
	}
}

// Normalizer canonicalizes raw address text. Safe for concurrent use after
// construction; all state is immutable.
type Normalizer struct {
	rules         map[string]string
	punctRe       *regexp.Regexp
	commaRe       *regexp.Regexp
	spaceRe       *regexp.Regexp
	dashRe        *regexp.Regexp
	cityPrefixRes []*regexp.Regexp
}

// New builds a Normalizer with the given ordered synonym table. For exact
// single-token spellings order only matters for documentation, but the map is
// built first-wins so the contract of the ordered table holds.
func New(rules []SynonymRule) *Normalizer {
	m := make(map[string]string, len(rules))
	for _, r := range rules {
		if _, dup := m[r.From]; !dup {
			m[r.From] = r.To
		}
	}
	return &Normalizer{
		rules:   m,
		punctRe: regexp.MustCompile(`[.;:()\[\]{}]`),
		commaRe: regexp.MustCompile(`\s*,\s*`),
		spaceRe: regexp.MustCompile(`\s+`),
		dashRe:  regexp.MustCompile(`[‐‑‒–—−﹘﹣－]`),
		cityPrefixRes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^\s*(?:россия,\s*)?(?:г\.?\s*)?санкт(?:-|\s)?петербург(?:\s*г\.?)?\s*,\s*`),
			regexp.MustCompile(`(?i)^\s*(?:россия,\s*)?спб\s*,\s*`),
		},
	}
}

// NewDefault builds a Normalizer with DefaultSynonymRules.
func NewDefault() *Normalizer {
	return New(DefaultSynonymRules())
}

// Normalize canonicalizes an address string. Idempotent:
// Normalize(Normalize(x)) == Normalize(x).
//
// Commas survive because they separate street from house; every other listed
// punctuation mark becomes a space.
func (n *Normalizer) Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "ё", "е")
	s = strings.ReplaceAll(s, "№", "")
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, " ", " ")
	s = n.punctRe.ReplaceAllString(s, " ")
	s = n.commaRe.ReplaceAllString(s, ", ")
	s = strings.TrimSpace(n.spaceRe.ReplaceAllString(s, " "))
	return n.applySynonyms(s)
}

// applySynonyms rewrites street-type tokens to their canonical short form.
// Token-based on purpose: regexp word boundaries are ASCII-only in Go and
// never fire around Cyrillic words.
func (n *Normalizer) applySynonyms(s string) string {
	if s == "" {
		return s
	}
	fields := strings.Fields(s)
	for i, f := range fields {
		word, comma := strings.CutSuffix(f, ",")
		if to, ok := n.rules[word]; ok {
			if comma {
				fields[i] = to + ","
			} else {
				fields[i] = to
			}
		}
	}
	return strings.Join(fields, " ")
}

// CleanCityPrefix strips a leading city label ("Санкт-Петербург,", "СПб,"
// and variants) from a raw address. Some feeds double the prefix, hence the
// bounded repeat.
func (n *Normalizer) CleanCityPrefix(address string) string {
	s := strings.TrimSpace(strings.ReplaceAll(address, " ", " "))
	if s == "" {
		return s
	}
	s = n.dashRe.ReplaceAllString(s, "-")
	for i := 0; i < 3; i++ {
		prev := s
		for _, re := range n.cityPrefixRes {
			s = re.ReplaceAllString(s, "")
		}
		if s == prev {
			break
		}
	}
	return strings.TrimSpace(s)
}

// NormalizeDistrict canonicalizes a district label for grouping.
func (n *Normalizer) NormalizeDistrict(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return ""
	}
	s = n.Normalize(s)
	s = strings.ReplaceAll(s, "муниципальный", "")
	s = strings.ReplaceAll(s, "район", "")
	return strings.TrimSpace(n.spaceRe.ReplaceAllString(s, " "))
}

// IsUnknownDistrict reports whether a normalized district label carries no
// information.
func IsUnknownDistrict(normValue string) bool {
	s := strings.ToLower(strings.TrimSpace(normValue))
	return s == "" || strings.HasPrefix(s, "не определ")
}
