package geocode

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/listing-radar/internal/normalizer"
)

// spbSubareaToDistrict maps municipal okrug and settlement names inside the
// city to the administrative district the reports group by.
var spbSubareaToDistrict = map[string]string{
	"рыбацкое":               "Невский",
	"новая деревня":          "Приморский",
	"пески":                  "Центральный",
	"округ новоизмайловское": "Московский",
	"округ измайловское":     "Адмиралтейский",
	"екатерингофский округ":  "Адмиралтейский",
	"округ чкаловское":       "Петроградский",
	"округ академическое":    "Калининский",
	"финляндский округ":      "Калининский",
	"округ смольнинское":     "Центральный",
	"округ коломна":          "Адмиралтейский",
	"округ семеновский":      "Адмиралтейский",
	"округ васильевский":     "Василеостровский",
	"парголово":              "Выборгский",
	"шушары":                 "Пушкинский",
	"горелово":               "Красносельский",
}

// lenSettlementToRaion maps Leningrad oblast settlements to their raion.
// Keys are substring-matched against normalized address text.
var lenSettlementToRaion = map[string]string{
	"кудрово":        "Всеволожский район",
	"всеволожск":     "Всеволожский район",
	"бугры":          "Всеволожский район",
	"мурино":         "Всеволожский район",
	"девяткино":      "Всеволожский район",
	"колтуш":         "Всеволожский район",
	"янино":          "Всеволожский район",
	"разметелево":    "Всеволожский район",
	"кальтино":       "Всеволожский район",
	"мяглово":        "Всеволожский район",
	"порошкино":      "Всеволожский район",
	"кузьмолов":      "Всеволожский район",
	"куйвози":        "Всеволожский район",
	"имени морозова": "Всеволожский район",
	"токсово":        "Всеволожский район",
	"мистолово":      "Всеволожский район",
	"лупполово":      "Всеволожский район",
	"скотное":        "Всеволожский район",
	"хиттолово":      "Всеволожский район",
	"нижние осельки": "Всеволожский район",
	"новосаратовка":  "Всеволожский район",
	"сертолово":      "Всеволожский район",
	"щеглово":        "Всеволожский район",
	"проба":          "Всеволожский район",
	"аннино":         "Ломоносовский район",
	"новоселье":      "Ломоносовский район",
	"виллози":        "Ломоносовский район",
	"горбунки":       "Ломоносовский район",
	"коваш":          "Ломоносовский район",
	"порзолово":      "Ломоносовский район",
	"пигелево":       "Ломоносовский район",
	"новогорелово":   "Ломоносовский район",
	"узигонты":       "Ломоносовский район",
	"яльгелево":      "Ломоносовский район",
	"санино":         "Ломоносовский район",
	"гатчина":        "Гатчинский район",
	"федоровск":      "Тосненский район",
	"любан":          "Тосненский район",
	"нурма":          "Тосненский район",
	"тосно":          "Тосненский район",
	"рябово":         "Тосненский район",
	"волхов":         "Волховский район",
	"войсковицы":     "Гатчинский район",
	"елизаветино":    "Гатчинский район",
	"малое верево":   "Гатчинский район",
	"куровицы":       "Гатчинский район",
	"рождествено":    "Гатчинский район",
	"шпаньково":      "Гатчинский район",
	"мины":           "Гатчинский район",
	"волосово":       "Волосовский район",
	"сланцы":         "Сланцевский район",
	"шлиссельбург":   "Кировский район",
	"мга":            "Кировский район",
	"раздолье":       "Приозерский район",
	"первомайское":   "Выборгский район",
	"луга":           "Лужский район",
}

// Commas survive normalization, so they count as word boundaries here.
var raionRe = regexp.MustCompile(`(^|[\s,])([а-я\-]+)\s*(?:муниципальный\s*)?район($|[\s,])`)

var titleCaser = cases.Title(language.Russian)

// inferLenoblastRaion returns the oblast raion whose settlement name occurs
// in the normalized text, or "".
func inferLenoblastRaion(n *normalizer.Normalizer, text string) string {
	s := n.Normalize(text)
	if s == "" {
		return ""
	}
	// Deterministic order; Go map iteration is randomized.
	keys := make([]string, 0, len(lenSettlementToRaion))
	for k := range lenSettlementToRaion {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(s, k) {
			return lenSettlementToRaion[k]
		}
	}
	return ""
}

// InferRegionFromAddress guesses the region or raion directly from address
// text, before any network lookup is attempted.
func InferRegionFromAddress(n *normalizer.Normalizer, address string) string {
	s := n.Normalize(address)
	if s == "" {
		return ""
	}

	if strings.Contains(s, "новгородск") {
		return "Новгородская область"
	}

	if strings.Contains(s, "ленинградск") || strings.Contains(s, "лен обл") {
		if guessed := inferLenoblastRaion(n, s); guessed != "" {
			return "Ленинградская область, " + guessed
		}
		if part := raionFromText(s); part != "" {
			return "Ленинградская область, " + titleCaser.String(part) + " район"
		}
		return "Ленинградская область"
	}

	if part := raionFromText(s); part != "" && !strings.Contains(s, "санкт") {
		return titleCaser.String(part) + " район"
	}
	return ""
}

func raionFromText(s string) string {
	m := raionRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[2])
}

// chooseTop picks the most frequent value; ties break lexicographically so
// the result is stable across runs.
func chooseTop(counts map[string]int) string {
	best, bestCnt := "", -1
	for k, c := range counts {
		if c > bestCnt || (c == bestCnt && k < best) {
			best, bestCnt = k, c
		}
	}
	return best
}
