package report

import (
	"fmt"
	"math"
	"strings"
)

// FormatMoney renders 112000000 as "112 000 000". Empty for absent values.
func FormatMoney(v *float64) string {
	if v == nil {
		return ""
	}
	n := int64(math.Round(*v))
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatArea renders an area with one decimal at most: 160, 57.5.
func FormatArea(v *float64) string {
	if v == nil {
		return ""
	}
	s := fmt.Sprintf("%.1f", *v)
	s = strings.TrimSuffix(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}

// FormatPct renders a percentage with one decimal: "12.5%".
func FormatPct(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.1f%%", *v)
}

// Hyperlink builds the spreadsheet formula Google Sheets and Excel both
// understand as a clickable link.
func Hyperlink(url, text string) string {
	if url == "" {
		return ""
	}
	if text == "" {
		text = "ссылка"
	}
	return fmt.Sprintf(`=HYPERLINK("%s","%s")`, url, text)
}
