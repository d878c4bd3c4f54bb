package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/matcher"
	"github.com/listing-radar/internal/normalizer"
	"github.com/listing-radar/internal/parser"
)

const testCatalogXML = `<?xml version="1.0" encoding="UTF-8"?>
<deals>
  <item>
    <deal_type>sale</deal_type>
    <status>active</status>
    <address>Невский пр, 126</address>
    <square>160</square>
    <price>112000000</price>
    <crm_url>https://crm.example/deal/1</crm_url>
  </item>
  <item>
    <deal_type>rent</deal_type>
    <status>active</status>
    <address>Лиговский пр, 74</address>
    <square>57.5</square>
    <price>450000</price>
    <crm_url>https://crm.example/deal/2</crm_url>
  </item>
  <item>
    <deal_type>sale</deal_type>
    <status>active</status>
    <address></address>
    <square>10</square>
    <price>1</price>
    <crm_url></crm_url>
  </item>
</deals>
`

func writeTestCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deals.xml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogXML), 0o644))
	return path
}

func newTestCatalogService() *CatalogService {
	norm := normalizer.NewDefault()
	ex := parser.NewExtractor(norm)
	return NewCatalogService(ex, zap.NewNop())
}

func TestCatalogLoad(t *testing.T) {
	cs := newTestCatalogService()

	_, err := cs.Index()
	assert.Error(t, err)

	n, err := cs.Load(writeTestCatalog(t))
	require.NoError(t, err)
	// The item without an address is dropped.
	assert.Equal(t, 2, n)

	idx, err := cs.Index()
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Size())

	records := cs.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Невский пр, 126", records[0].Address)
	require.NotNil(t, records[0].AreaM2)
	assert.Equal(t, 160.0, *records[0].AreaM2)
	require.NotNil(t, records[1].AreaM2)
	assert.Equal(t, 57.5, *records[1].AreaM2)

	stats := cs.Stats()
	assert.Equal(t, 2, stats["listings"])
	assert.Equal(t, true, stats["loaded"])
}

func TestCatalogLoadMissingFile(t *testing.T) {
	cs := newTestCatalogService()

	_, err := cs.Load(filepath.Join(t.TempDir(), "nope.xml"))
	assert.Error(t, err)
}

func newTestCompareService(t *testing.T) (*CompareService, *CatalogService) {
	t.Helper()
	cfg := config.Default()
	norm := normalizer.NewDefault()
	ex := parser.NewExtractor(norm)
	catalog := NewCatalogService(ex, zap.NewNop())
	engine := matcher.NewEngine(ex, cfg.Matcher)
	return NewCompareService(catalog, engine, cfg, zap.NewNop()), catalog
}

func TestCompareListings(t *testing.T) {
	svc, catalog := newTestCompareService(t)
	_, err := catalog.Load(writeTestCatalog(t))
	require.NoError(t, err)

	listings := []*models.ListingRecord{
		{
			Source:   "knru",
			Address:  "Невский проспект, 126",
			AreaM2:   models.Float(158),
			PriceRub: models.Float(120000000),
		},
		{
			Source:  "knru",
			Address: "Литейный пр, 24",
			AreaM2:  models.Float(100),
		},
	}

	entries, err := svc.CompareListings(listings, "knru")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// knru defaults to sale, which applies to listings without a deal type.
	assert.Equal(t, models.DealSale, entries[0].Listing.DealType)
	assert.Equal(t, models.VerdictMatched, entries[0].Verdict.Result)
	assert.Equal(t, models.VerdictNotFound, entries[1].Verdict.Result)
}

func TestCompareListingsUnknownSource(t *testing.T) {
	svc, catalog := newTestCompareService(t)
	_, err := catalog.Load(writeTestCatalog(t))
	require.NoError(t, err)

	_, err = svc.CompareListings(nil, "avito")
	assert.Error(t, err)
}

func TestCompareListingsCatalogNotLoaded(t *testing.T) {
	svc, _ := newTestCompareService(t)

	_, err := svc.CompareListings(nil, "knru")
	assert.Error(t, err)
}
