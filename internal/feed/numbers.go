package feed

import (
	"regexp"
	"strconv"
	"strings"
)

var numberRe = regexp.MustCompile(`\d[\d\s]*[.,]?\d*`)

func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " ", " "))
}

// ExtractFirstNumber pulls the first number out of free text: "160,5 м²"
// yields 160.5. Spaces inside the number are thousands separators.
func ExtractFirstNumber(text string) *float64 {
	nums := ExtractAllNumbers(text)
	if len(nums) == 0 {
		return nil
	}
	return &nums[0]
}

// ExtractAllNumbers pulls every number out of free text, in order.
func ExtractAllNumbers(text string) []float64 {
	t := cleanText(text)
	if t == "" {
		return nil
	}
	var out []float64
	for _, m := range numberRe.FindAllString(t, -1) {
		num := strings.ReplaceAll(m, " ", "")
		num = strings.ReplaceAll(num, "\t", "")
		num = strings.ReplaceAll(num, ",", ".")
		num = strings.TrimSuffix(num, ".")
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ParseAreaAndPrice reads a details line like "160 м², 250 000 руб.". Area is
// the first number; price the last, unless the line quotes a per-meter rate.
func ParseAreaAndPrice(text string) (area, price *float64) {
	t := strings.ToLower(cleanText(text))
	nums := ExtractAllNumbers(t)
	if len(nums) == 0 {
		return nil, nil
	}

	area = &nums[0]
	perM2 := strings.Contains(t, "руб./м2") || strings.Contains(t, "руб/м2") || strings.Contains(t, "р/м2")
	if !perM2 && len(nums) >= 2 {
		price = &nums[len(nums)-1]
	}
	return area, price
}
