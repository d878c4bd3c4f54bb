package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/normalizer"
)

// MatchPolicy selects which house-like block wins when a segment contains
// several. Comma-separated inputs want the first block of the last segment;
// single-line inputs want the last block of the whole string. Swapping the
// two silently breaks one of the formats, so the policy is an explicit
// argument rather than a scanner default.
type MatchPolicy int

const (
	PreferFirst MatchPolicy = iota
	PreferLast
)

var (
	streetTypeTokens = map[string]bool{
		"ул": true, "пр": true, "наб": true, "пер": true, "ш": true,
	}

	streetDropTokens = map[string]bool{
		"д": true, "дом": true,
		"пом": true, "помещение": true,
		"оф": true, "офис": true,
		"лит": true, "литера": true,
		"к": true, "корпус": true, "корп": true,
		"стр": true, "строение": true,
	}

	markerWordTokens = map[string]bool{
		"д": true, "дом": true,
		"к": true, "корп": true, "корпус": true,
		"с": true, "стр": true, "строение": true,
		"пом": true, "помещение": true,
		"оф": true, "офис": true,
		"лит": true, "литера": true,
	}

	corpMarkers     = []string{"к", "корпус", "корп"}
	buildingMarkers = []string{"с", "стр", "строение"}
)

// Extractor splits a normalized address into a street zone and a house
// descriptor. Pure and deterministic; safe for concurrent use.
type Extractor struct {
	norm *normalizer.Normalizer

	compactCorpRe     *regexp.Regexp
	compactBuildingRe *regexp.Regexp
	techTokenRe       *regexp.Regexp
	numTokenRe        *regexp.Regexp
	nonAlnumRe        *regexp.Regexp
	spaceRe           *regexp.Regexp
}

// NewExtractor builds an Extractor on top of the given normalizer.
func NewExtractor(n *normalizer.Normalizer) *Extractor {
	return &Extractor{
		norm:              n,
		compactCorpRe:     regexp.MustCompile(`(\d)\s*к\s*(\d)`),
		compactBuildingRe: regexp.MustCompile(`(\d)\s*с\s*(\d)`),
		techTokenRe:       regexp.MustCompile(`^(?:к|стр)\d+[a-zа-я]?$`),
		numTokenRe:        regexp.MustCompile(`\d+[a-zа-я]?`),
		nonAlnumRe:        regexp.MustCompile(`[^a-zа-я0-9]+`),
		spaceRe:           regexp.MustCompile(`\s+`),
	}
}

// houseBlock is one scanned house descriptor. Span is in runes relative to
// the scanned segment.
type houseBlock struct {
	from      int
	to        int
	letter    string
	corp      string
	building  string
	spanStart int
	spanEnd   int
}

// Extract parses one address. Returns nil only for empty input; an address
// without a recognizable house number still yields street keys.
func (e *Extractor) Extract(address string) *models.AddressComponents {
	if strings.TrimSpace(address) == "" {
		return nil
	}

	a := e.norm.Normalize(address)
	// Split compact notation: 70к1с1 -> 70 к1 с1.
	a = e.compactCorpRe.ReplaceAllString(a, "$1 к$2")
	a = e.compactBuildingRe.ReplaceAllString(a, "$1 с$2")

	var parts []string
	for _, p := range strings.Split(a, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	var hb *houseBlock
	streetZone := a

	if len(parts) >= 2 {
		// The house usually sits in the last comma segment.
		last := parts[len(parts)-1]
		hb = parseHouseFromSegment(last, PreferFirst)
		if hb != nil {
			// A remainder like "октябрьская" keeps the street in the last
			// segment; a bare room number or stray house letter means the
			// street lives in the previous one.
			stripped := removeSpan(last, hb.spanStart, hb.spanEnd)
			if e.hasRealStreetWords(stripped) {
				streetZone = stripped
			} else {
				streetZone = parts[len(parts)-2]
			}
		} else {
			hb = parseHouseFromSegment(a, PreferLast)
			if hb != nil {
				streetZone = removeSpan(a, hb.spanStart, hb.spanEnd)
			}
		}
	} else {
		// No commas: realistic single-line formats end with the house, so
		// the last block wins ("невский пр 126", "25 октября пр 37а").
		hb = parseHouseFromSegment(a, PreferLast)
		if hb != nil {
			streetZone = removeSpan(a, hb.spanStart, hb.spanEnd)
		}
	}

	comp := &models.AddressComponents{
		Raw:  address,
		Norm: a,
	}
	if hb != nil {
		from, to := hb.from, hb.to
		comp.HouseFrom = &from
		comp.HouseTo = &to
		comp.HouseLetter = hb.letter
		comp.Corp = hb.corp
		comp.Building = hb.building
	}
	comp.StreetKey, comp.StreetKeyBag = e.buildStreetKeys(streetZone)
	return comp
}

// parseHouseFromSegment scans a segment for house blocks and picks one by
// policy. Returns nil when the segment has none.
func parseHouseFromSegment(segment string, policy MatchPolicy) *houseBlock {
	blocks := scanHouseBlocks([]rune(segment))
	if len(blocks) == 0 {
		return nil
	}
	if policy == PreferFirst {
		return &blocks[0]
	}
	return &blocks[len(blocks)-1]
}

// scanHouseBlocks walks the rune stream and collects every house-like block:
// 1-4 digit number, optional range, optional letter glued to the digits,
// optional corpus and building qualifiers.
func scanHouseBlocks(rs []rune) []houseBlock {
	var out []houseBlock
	i := 0
	for i < len(rs) {
		if !isDigit(rs[i]) || (i > 0 && isDigit(rs[i-1])) {
			i++
			continue
		}

		start := i
		numFrom, j := takeNumber(rs, i)

		// Optional range: "-" or en dash, then a second number.
		numTo := numFrom
		if k, ok := skipSpaces(rs, j); ok && (rs[k] == '-' || rs[k] == '–') {
			if k2, ok2 := skipSpaces(rs, k+1); ok2 && isDigit(rs[k2]) {
				numTo, j = takeNumber(rs, k2)
			}
		}

		// Optional house letter, glued to the digits: "30а" carries a
		// letter, "10 б" does not. A letter directly followed by a digit is
		// a qualifier marker, not a house letter.
		letter := ""
		if j < len(rs) && isHouseLetter(rs[j]) && (j+1 >= len(rs) || !isDigit(rs[j+1])) {
			letter = string(rs[j])
			j++
		}

		corp, j2 := takeQualifier(rs, j, corpMarkers)
		j = j2
		building, j3 := takeQualifier(rs, j, buildingMarkers)
		j = j3

		out = append(out, houseBlock{
			from:      numFrom,
			to:        numTo,
			letter:    letter,
			corp:      corp,
			building:  building,
			spanStart: start,
			spanEnd:   j,
		})
		i = j
		if i == start {
			i++
		}
	}
	return out
}

// takeNumber consumes up to four digits starting at i.
func takeNumber(rs []rune, i int) (int, int) {
	j := i
	for j < len(rs) && j-i < 4 && isDigit(rs[j]) {
		j++
	}
	n, _ := strconv.Atoi(string(rs[i:j]))
	return n, j
}

// takeQualifier consumes "<marker><digits><optional letter>" with optional
// spaces around the marker. Markers are tried in order; a marker only counts
// when digits follow, so a dangling "к" is left alone.
func takeQualifier(rs []rune, i int, markers []string) (string, int) {
	k, ok := skipSpaces(rs, i)
	if !ok {
		return "", i
	}
	for _, m := range markers {
		mr := []rune(m)
		if !hasPrefixRunes(rs[k:], mr) {
			continue
		}
		v, ok2 := skipSpaces(rs, k+len(mr))
		if !ok2 || !isDigit(rs[v]) {
			continue
		}
		d := v
		for d < len(rs) && isDigit(rs[d]) {
			d++
		}
		end := d
		if d < len(rs) && isHouseLetter(rs[d]) {
			end = d + 1
		}
		return string(rs[v:end]), end
	}
	return "", i
}

func skipSpaces(rs []rune, i int) (int, bool) {
	for i < len(rs) && rs[i] == ' ' {
		i++
	}
	if i >= len(rs) {
		return i, false
	}
	return i, true
}

func hasPrefixRunes(rs, prefix []rune) bool {
	if len(rs) < len(prefix) {
		return false
	}
	for i := range prefix {
		if rs[i] != prefix[i] {
			return false
		}
	}
	return true
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHouseLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'а' && r <= 'я')
}

// removeSpan cuts [start, end) runes out of a segment and rejoins the sides.
func removeSpan(segment string, start, end int) string {
	rs := []rune(segment)
	left := strings.TrimSpace(string(rs[:start]))
	right := strings.TrimSpace(string(rs[end:]))
	if left != "" && right != "" {
		return left + " " + right
	}
	if left != "" {
		return left
	}
	return right
}

// hasRealStreetWords reports whether text still names a street after the
// house block is cut out. Marker words, numbers, and a single stray house
// letter do not count.
func (e *Extractor) hasRealStreetWords(text string) bool {
	if text == "" {
		return false
	}
	var kept []string
	for _, tok := range strings.Fields(text) {
		if !markerWordTokens[tok] {
			kept = append(kept, tok)
		}
	}
	tmp := strings.Join(kept, " ")
	tmp = e.numTokenRe.ReplaceAllString(tmp, " ")
	tmp = e.nonAlnumRe.ReplaceAllString(tmp, " ")
	tmp = strings.TrimSpace(e.spaceRe.ReplaceAllString(tmp, " "))
	if tmp == "" {
		return false
	}
	var tokens []string
	for _, tok := range strings.Fields(tmp) {
		if len([]rune(tok)) == 1 && isHouseLetter([]rune(tok)[0]) {
			continue
		}
		tokens = append(tokens, tok)
	}
	joined := strings.Join(tokens, "")
	if joined == "" {
		return false
	}
	for _, r := range joined {
		if isHouseLetter(r) {
			return true
		}
	}
	return false
}

// buildStreetKeys filters the street zone down to name tokens and produces
// the ordered key and the sorted bag key. The bag catches permutations like
// "маршала казакова ул" vs "ул маршала казакова".
func (e *Extractor) buildStreetKeys(streetZone string) (string, string) {
	var tokens []string
	for _, t := range strings.Fields(streetZone) {
		t = strings.TrimSuffix(t, ",")
		if t == "" || streetTypeTokens[t] || streetDropTokens[t] {
			continue
		}
		if e.techTokenRe.MatchString(t) {
			continue
		}
		tokens = append(tokens, t)
	}
	streetKey := strings.Join(tokens, " ")
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	return streetKey, strings.Join(sorted, " ")
}
