package matcher

import (
	"math"
	"sort"
	"strings"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/parser"
	"github.com/listing-radar/internal/report"
)

// Engine classifies one competitor listing against the catalog index. Pure:
// no I/O, deterministic for identical inputs and configuration.
type Engine struct {
	extractor *parser.Extractor
	areaTol   float64
	maxDiag   int
}

// NewEngine builds an Engine. Tolerances come from configuration, not
// constants, so direct comparison and aggregation callers can differ.
func NewEngine(ex *parser.Extractor, cfg config.MatcherCfg) *Engine {
	return &Engine{
		extractor: ex,
		areaTol:   cfg.DirectAreaTol,
		maxDiag:   cfg.MaxDiagnostics,
	}
}

// CompareOne runs the verdict state machine for one competitor listing.
// Malformed addresses degrade to NotFound, never an error.
func (e *Engine) CompareOne(comp *models.ListingRecord, idx *Index) models.ComparisonVerdict {
	compComp := e.extractor.Extract(comp.Address)
	if !compComp.HasStreetKey() {
		return models.ComparisonVerdict{
			Result: models.VerdictNotFound,
			Reason: "Адрес не разобран",
		}
	}
	comp.Components = compComp

	candidates := idx.Lookup(compComp)

	// Street match alone is not enough; the house ranges must intersect.
	var overlapped []*models.ListingRecord
	for _, c := range candidates {
		if compComp.Overlap(c.Components) {
			overlapped = append(overlapped, c)
		}
	}
	if len(overlapped) == 0 {
		return models.ComparisonVerdict{
			Result: models.VerdictNotFound,
			Reason: "Совпадений по улице+дому не найдено",
		}
	}

	var sameHouse, partMismatch []*models.ListingRecord
	for _, c := range overlapped {
		corpRel := compComp.CorpRelation(c.Components)
		bldRel := compComp.BuildingRelation(c.Components)
		if corpRel == models.PartMismatch || bldRel == models.PartMismatch {
			partMismatch = append(partMismatch, c)
		} else {
			sameHouse = append(sameHouse, c)
		}
	}

	compDeal := comp.DealType
	compArea := comp.AreaM2
	compPrice := comp.PriceRub

	if len(sameHouse) == 0 && len(partMismatch) > 0 {
		pool := sortByAreaDistance(partMismatch, compArea)
		return e.verdictOver(models.VerdictPartMismatch, pool, compDeal, compPrice)
	}

	sorted := sortByAreaDistance(sameHouse, compArea)
	var closeSet []*models.ListingRecord
	for _, c := range sorted {
		if areaDistance(compArea, c.AreaM2) <= e.areaTol {
			closeSet = append(closeSet, c)
		}
	}

	if len(closeSet) == 0 {
		return e.verdictOver(models.VerdictAreaMismatch, sorted, compDeal, compPrice)
	}

	hasSale, hasRent := false, false
	for _, c := range closeSet {
		switch c.DealType {
		case models.DealSale:
			hasSale = true
		case models.DealRent:
			hasRent = true
		}
	}
	if compDeal == models.DealSale && !hasSale && hasRent {
		return e.verdictOver(models.VerdictDealTypeMismatch, closeSet, compDeal, compPrice)
	}
	return e.verdictOver(models.VerdictMatched, closeSet, compDeal, compPrice)
}

// verdictOver assembles a verdict whose diagnostics and reference price come
// from the given candidate pool.
func (e *Engine) verdictOver(result models.VerdictResult, pool []*models.ListingRecord, compDeal models.DealType, compPrice *float64) models.ComparisonVerdict {
	shown := pool
	if len(shown) > e.maxDiag {
		shown = shown[:e.maxDiag]
	}
	refPrice, refItem, scope := PickReferencePrice(pool, compDeal)
	return models.ComparisonVerdict{
		Result:           result,
		Reason:           describeCandidates(shown),
		ReferenceListing: refItem,
		ReferencePrice:   refPrice,
		PriceScope:       scope,
		Alert:            BuildPriceAlert(compPrice, refPrice),
		CandidatesShown:  shown,
		MatchedCount:     len(pool),
	}
}

// PickReferencePrice chooses the reference catalog price: same deal type
// first, then the sale/rent pool matching the query, then anything priced.
// Within the pool the minimum wins; we compare against the cheapest
// internally competing unit, not an average.
func PickReferencePrice(items []*models.ListingRecord, compDeal models.DealType) (*float64, *models.ListingRecord, models.PriceScope) {
	if len(items) == 0 {
		return nil, nil, models.ScopeNone
	}

	priced := func(dt models.DealType, any bool) []*models.ListingRecord {
		var out []*models.ListingRecord
		for _, x := range items {
			if x.PriceRub == nil {
				continue
			}
			if any || x.DealType == dt {
				out = append(out, x)
			}
		}
		return out
	}

	var pool []*models.ListingRecord
	var scope models.PriceScope
	switch {
	case len(priced(compDeal, false)) > 0:
		pool, scope = priced(compDeal, false), models.ScopeSameDeal
	case compDeal == models.DealSale && len(priced(models.DealSale, false)) > 0:
		pool, scope = priced(models.DealSale, false), models.ScopeSaleOnly
	case compDeal == models.DealRent && len(priced(models.DealRent, false)) > 0:
		pool, scope = priced(models.DealRent, false), models.ScopeRentOnly
	default:
		pool, scope = priced("", true), models.ScopeAnyType
	}
	if len(pool) == 0 {
		return nil, nil, models.ScopeNone
	}

	best := pool[0]
	for _, x := range pool[1:] {
		if *x.PriceRub < *best.PriceRub {
			best = x
		}
	}
	p := *best.PriceRub
	return &p, best, scope
}

// BuildPriceAlert describes our reference price against the competitor's.
// Delta is ours minus theirs.
func BuildPriceAlert(compPrice, myPrice *float64) models.PriceAlert {
	if compPrice == nil || myPrice == nil || *compPrice <= 0 {
		return models.PriceAlert{}
	}
	delta := *myPrice - *compPrice
	pct := delta / *compPrice * 100.0

	var text string
	switch {
	case delta > 0:
		text = "У нас дороже на " + report.FormatMoney(&delta) + " (" + report.FormatPct(&pct) + ")"
	case delta < 0:
		absDelta := -delta
		absPct := -pct
		text = "У нас дешевле на " + report.FormatMoney(&absDelta) + " (" + report.FormatPct(&absPct) + ")"
	default:
		text = "Цена равна"
	}
	return models.PriceAlert{Text: text, DeltaRub: &delta, DeltaPct: &pct}
}

// areaDistance returns |a-b| or +inf when either side is unknown, so unknown
// areas sort last and never count as close.
func areaDistance(a, b *float64) float64 {
	if a == nil || b == nil {
		return math.Inf(1)
	}
	return math.Abs(*a - *b)
}

// sortByAreaDistance orders candidates by area proximity, stable so equal
// distances keep catalog order.
func sortByAreaDistance(items []*models.ListingRecord, area *float64) []*models.ListingRecord {
	out := append([]*models.ListingRecord(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return areaDistance(area, out[i].AreaM2) < areaDistance(area, out[j].AreaM2)
	})
	return out
}

// describeCandidates renders the diagnostic listing line:
// "Архив sale 160 м² 112 000 000 ссылка | ..."
func describeCandidates(items []*models.ListingRecord) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, describeCatalogItem(it))
	}
	return strings.Join(parts, " | ")
}

func describeCatalogItem(it *models.ListingRecord) string {
	var parts []string
	if it.Status != "" {
		parts = append(parts, it.Status)
	}
	if it.DealType != models.DealUnknown {
		parts = append(parts, string(it.DealType))
	}
	if s := report.FormatArea(it.AreaM2); s != "" {
		parts = append(parts, s+" м²")
	}
	if s := report.FormatMoney(it.PriceRub); s != "" {
		parts = append(parts, s)
	}
	if link := report.Hyperlink(it.URL, "ссылка"); link != "" {
		parts = append(parts, link)
	}
	return strings.Join(parts, " ")
}
