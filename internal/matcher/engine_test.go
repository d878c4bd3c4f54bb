package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/normalizer"
	"github.com/listing-radar/internal/parser"
)

func testMatcherCfg() config.MatcherCfg {
	return config.MatcherCfg{
		DirectAreaTol:  5.0,
		UnionAreaTol:   3.0,
		SoftSingleTol:  15.0,
		MaxDiagnostics: 12,
	}
}

func catalogItem(address string, deal models.DealType, area, price float64, url string) *models.ListingRecord {
	return &models.ListingRecord{
		Source:   "catalog",
		Address:  address,
		DealType: deal,
		AreaM2:   models.Float(area),
		PriceRub: models.Float(price),
		URL:      url,
	}
}

func competitor(address string, deal models.DealType, area, price float64) *models.ListingRecord {
	return &models.ListingRecord{
		Source:   "knru",
		Address:  address,
		DealType: deal,
		AreaM2:   models.Float(area),
		PriceRub: models.Float(price),
	}
}

func newTestEngine() (*Engine, *parser.Extractor) {
	ex := parser.NewExtractor(normalizer.NewDefault())
	return NewEngine(ex, testMatcherCfg()), ex
}

func TestCompareOneMatched(t *testing.T) {
	engine, ex := newTestEngine()
	idx := BuildIndex([]*models.ListingRecord{
		catalogItem("Невский пр, 126", models.DealSale, 160, 112000000, "https://crm/1"),
	}, ex)

	v := engine.CompareOne(competitor("Невский проспект, 126", models.DealSale, 158, 120000000), idx)
	assert.Equal(t, models.VerdictMatched, v.Result)
	assert.Equal(t, 1, v.MatchedCount)
	require.NotNil(t, v.ReferencePrice)
	assert.Equal(t, 112000000.0, *v.ReferencePrice)
	assert.Equal(t, models.ScopeSameDeal, v.PriceScope)
}

func TestCompareOneUnparsedAddress(t *testing.T) {
	engine, ex := newTestEngine()
	idx := BuildIndex(nil, ex)

	v := engine.CompareOne(competitor("", models.DealSale, 100, 1000), idx)
	assert.Equal(t, models.VerdictNotFound, v.Result)
	assert.Equal(t, "Адрес не разобран", v.Reason)
}

func TestCompareOneNoStreetHouseMatch(t *testing.T) {
	engine, ex := newTestEngine()
	idx := BuildIndex([]*models.ListingRecord{
		catalogItem("Невский пр, 126", models.DealSale, 160, 112000000, ""),
	}, ex)

	v := engine.CompareOne(competitor("Литейный пр, 24", models.DealSale, 160, 100), idx)
	assert.Equal(t, models.VerdictNotFound, v.Result)
	assert.Equal(t, "Совпадений по улице+дому не найдено", v.Reason)
}

func TestCompareOneHouseRangeOverlaps(t *testing.T) {
	engine, ex := newTestEngine()
	idx := BuildIndex([]*models.ListingRecord{
		catalogItem("Жуковского ул, 7-9", models.DealSale, 100, 50000000, ""),
	}, ex)

	v := engine.CompareOne(competitor("Жуковского ул, 7", models.DealSale, 101, 49000000), idx)
	assert.Equal(t, models.VerdictMatched, v.Result)
}

func TestCompareOnePartMismatch(t *testing.T) {
	engine, ex := newTestEngine()
	idx := BuildIndex([]*models.ListingRecord{
		catalogItem("Маршала Казакова, 70к2", models.DealSale, 90, 30000000, ""),
	}, ex)

	v := engine.CompareOne(competitor("Маршала Казакова, 70к1", models.DealSale, 90, 31000000), idx)
	assert.Equal(t, models.VerdictPartMismatch, v.Result)
	// The mismatched corpus still supplies a reference price for context.
	require.NotNil(t, v.ReferencePrice)
	assert.Equal(t, 30000000.0, *v.ReferencePrice)
}

func TestCompareOneMissingCorpDoesNotBlock(t *testing.T) {
	engine, ex := newTestEngine()
	idx := BuildIndex([]*models.ListingRecord{
		catalogItem("Маршала Казакова, 70", models.DealSale, 90, 30000000, ""),
	}, ex)

	v := engine.CompareOne(competitor("Маршала Казакова, 70к1", models.DealSale, 90, 31000000), idx)
	assert.Equal(t, models.VerdictMatched, v.Result)
}

func TestCompareOneAreaMismatch(t *testing.T) {
	engine, ex := newTestEngine()
	idx := BuildIndex([]*models.ListingRecord{
		catalogItem("Невский пр, 126", models.DealSale, 160, 112000000, ""),
	}, ex)

	v := engine.CompareOne(competitor("Невский пр, 126", models.DealSale, 80, 60000000), idx)
	assert.Equal(t, models.VerdictAreaMismatch, v.Result)
}

func TestCompareOneDealTypeMismatch(t *testing.T) {
	engine, ex := newTestEngine()
	idx := BuildIndex([]*models.ListingRecord{
		catalogItem("Невский пр, 126", models.DealRent, 160, 500000, ""),
	}, ex)

	// Competitor sells, we only rent at that address and area.
	v := engine.CompareOne(competitor("Невский пр, 126", models.DealSale, 160, 112000000), idx)
	assert.Equal(t, models.VerdictDealTypeMismatch, v.Result)
}

func TestCompareOneSaleAlongsideRentMatches(t *testing.T) {
	engine, ex := newTestEngine()
	idx := BuildIndex([]*models.ListingRecord{
		catalogItem("Невский пр, 126", models.DealRent, 160, 500000, ""),
		catalogItem("Невский пр, 126", models.DealSale, 161, 110000000, ""),
	}, ex)

	v := engine.CompareOne(competitor("Невский пр, 126", models.DealSale, 160, 112000000), idx)
	assert.Equal(t, models.VerdictMatched, v.Result)
	assert.Equal(t, models.ScopeSameDeal, v.PriceScope)
	require.NotNil(t, v.ReferencePrice)
	assert.Equal(t, 110000000.0, *v.ReferencePrice)
}

func TestPickReferencePricePools(t *testing.T) {
	sale1 := catalogItem("x", models.DealSale, 100, 200, "")
	sale2 := catalogItem("x", models.DealSale, 100, 150, "")
	rent := catalogItem("x", models.DealRent, 100, 90, "")
	unpriced := catalogItem("x", models.DealSale, 100, 0, "")
	unpriced.PriceRub = nil

	// Same deal type: the cheapest sale wins, not the cheaper rent.
	price, item, scope := PickReferencePrice([]*models.ListingRecord{sale1, sale2, rent}, models.DealSale)
	require.NotNil(t, price)
	assert.Equal(t, 150.0, *price)
	assert.Same(t, sale2, item)
	assert.Equal(t, models.ScopeSameDeal, scope)

	// No same-deal prices: rent query falls through to any type.
	price, _, scope = PickReferencePrice([]*models.ListingRecord{sale1}, models.DealRent)
	require.NotNil(t, price)
	assert.Equal(t, 200.0, *price)
	assert.Equal(t, models.ScopeAnyType, scope)

	// Nothing priced at all.
	price, item, scope = PickReferencePrice([]*models.ListingRecord{unpriced}, models.DealSale)
	assert.Nil(t, price)
	assert.Nil(t, item)
	assert.Equal(t, models.ScopeNone, scope)
}

func TestBuildPriceAlert(t *testing.T) {
	comp := models.Float(100000)

	alert := BuildPriceAlert(comp, models.Float(125000))
	assert.Equal(t, "У нас дороже на 25 000 (25.0%)", alert.Text)
	require.NotNil(t, alert.DeltaRub)
	assert.Equal(t, 25000.0, *alert.DeltaRub)

	alert = BuildPriceAlert(comp, models.Float(80000))
	assert.Equal(t, "У нас дешевле на 20 000 (20.0%)", alert.Text)

	alert = BuildPriceAlert(comp, models.Float(100000))
	assert.Equal(t, "Цена равна", alert.Text)

	alert = BuildPriceAlert(nil, models.Float(1))
	assert.Empty(t, alert.Text)
	assert.Nil(t, alert.DeltaRub)
}

func TestDiagnosticsCappedAndSorted(t *testing.T) {
	engine, ex := newTestEngine()

	items := make([]*models.ListingRecord, 0, 15)
	for i := 0; i < 15; i++ {
		items = append(items, catalogItem("Невский пр, 126", models.DealSale, 100+float64(i)*20, 1000, ""))
	}
	idx := BuildIndex(items, ex)

	v := engine.CompareOne(competitor("Невский пр, 126", models.DealSale, 500, 1000), idx)
	assert.Equal(t, models.VerdictAreaMismatch, v.Result)
	assert.Len(t, v.CandidatesShown, 12)
	assert.Equal(t, 15, v.MatchedCount)
	// Closest area first.
	require.NotNil(t, v.CandidatesShown[0].AreaM2)
	assert.Equal(t, 380.0, *v.CandidatesShown[0].AreaM2)
}

func TestIndexLookupUnionsBothKeys(t *testing.T) {
	_, ex := newTestEngine()
	idx := BuildIndex([]*models.ListingRecord{
		catalogItem("маршала казакова ул, 70", models.DealSale, 90, 100, ""),
	}, ex)

	comp := ex.Extract("ул казакова маршала, 70")
	require.NotNil(t, comp)
	found := idx.Lookup(comp)
	assert.Len(t, found, 1)
}
