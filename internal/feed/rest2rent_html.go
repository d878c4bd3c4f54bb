package feed

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/listing-radar/app/models"
)

var rest2rentIDRe = regexp.MustCompile(`/s/([^/?#]+)`)

// Rest2RentParser reads the single-page rest2rent catalog. The page carries
// two anchored sections, rental and sale, each holding widget cards.
type Rest2RentParser struct {
	baseURL string
	logger  *zap.Logger
}

// NewRest2RentParser builds a parser resolving relative links against baseURL.
func NewRest2RentParser(baseURL string, logger *zap.Logger) *Rest2RentParser {
	return &Rest2RentParser{baseURL: baseURL, logger: logger}
}

// Parse extracts listings from page HTML. Cards without an offer link are
// skipped; position_global is the card's rank over both sections.
func (p *Rest2RentParser) Parse(html string) ([]*models.ListingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rest2rent html: %w", err)
	}

	sections := []struct {
		id   string
		deal models.DealType
	}{
		{"аренда", models.DealRent},
		{"продажа", models.DealSale},
	}

	var out []*models.ListingRecord
	rank := 0
	for _, sec := range sections {
		root := doc.Find("#" + sec.id)
		if root.Length() == 0 {
			continue
		}
		root.Find("div.widget-element").Each(func(_ int, card *goquery.Selection) {
			href := ""
			card.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
				h, _ := a.Attr("href")
				if strings.Contains(h, "rest2rent.yucrm.ru/s/") {
					href = h
					return false
				}
				return true
			})
			if href == "" {
				return
			}
			link := p.absoluteURL(href)

			var texts []string
			card.Find("div.widget-text").Each(func(_ int, n *goquery.Selection) {
				if t := cleanText(n.Text()); t != "" {
					texts = append(texts, collapseSpaces(t))
				}
			})
			if len(texts) == 0 {
				return
			}

			address := texts[0]
			details := ""
			if len(texts) > 1 {
				details = texts[1]
			}
			area, price := ParseAreaAndPrice(details)

			rank++
			out = append(out, &models.ListingRecord{
				Source:         "rest2rent",
				ListingID:      listingIDFromTail(link),
				URL:            link,
				Title:          address,
				DealType:       sec.deal,
				Address:        address,
				AreaM2:         area,
				PriceRub:       price,
				PageNum:        1,
				PagePos:        rank,
				PositionGlobal: rank,
				ProMark:        "no",
			})
		})
	}

	p.logger.Info("rest2rent parsed", zap.Int("listings", len(out)))
	return out, nil
}

func (p *Rest2RentParser) absoluteURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	base, err := url.Parse(p.baseURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(u).String()
}

func listingIDFromTail(link string) string {
	m := rest2rentIDRe.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return m[1]
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
