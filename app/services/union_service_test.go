package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/feed"
	"github.com/listing-radar/internal/normalizer"
	"github.com/listing-radar/internal/parser"
)

func newTestUnionService() *UnionService {
	cfg := config.Default()
	norm := normalizer.NewDefault()
	ex := parser.NewExtractor(norm)
	reader := feed.NewReportCSVReader(norm, ex, zap.NewNop())
	return NewUnionService(cfg, reader, nil, norm, zap.NewNop())
}

func sourceListing(source, key string, area float64, pos float64) *models.SourceListing {
	return &models.SourceListing{
		Source:         source,
		Address:        "невский пр, 126",
		DealType:       models.DealSale,
		AreaM2:         models.Float(area),
		PositionGlobal: models.Float(pos),
		AddressKey:     key,
	}
}

func TestAssembleRowPicksValuesInSourceOrder(t *testing.T) {
	us := newTestUnionService()

	obj := &models.UnifiedObject{AddressKey: "k1"}
	// nordwest added first, but knru comes first in configured source order
	// and must win the address slot.
	nw := sourceListing("nordwest", "k1", 160, 2)
	nw.Address = "Невский пр. 126"
	nw.District = "Центральный"
	nw.DistrictNorm = "центральный"
	nw.PriceRub = models.Float(112000000)
	nw.Result = "Совпало"
	obj.Add(nw)

	kn := sourceListing("knru", "k1", 160, 1)
	kn.Address = "Невский проспект, 126"
	kn.StreetKey = "невский"
	kn.CompetitorLink = "https://knru.ru/obj/1"
	obj.Add(kn)

	rows := us.AssembleRows([]*models.UnifiedObject{obj})
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, "Невский проспект, 126", row.Address)
	assert.Equal(t, "невский", row.StreetSort)
	assert.Equal(t, "sale", row.Deal)
	// knru has no district, so nordwest supplies it.
	assert.Equal(t, "Центральный", row.District)
	assert.Equal(t, "центральный", row.DistrictSort)
	assert.Equal(t, 2, row.PresenceCount)
	assert.Equal(t, 1.0, row.Pos)

	require.Contains(t, row.Cells, "knru")
	require.Contains(t, row.Cells, "nordwest")
	assert.True(t, row.Cells["knru"].Present)
	assert.Equal(t, "160", row.Cells["knru"].Area)
	assert.Equal(t, "https://knru.ru/obj/1", row.Cells["knru"].Link)
	assert.Equal(t, "112 000 000", row.Cells["nordwest"].Price)
	assert.Equal(t, "Совпало", row.Cells["nordwest"].Result)
}

func TestAssembleRowDistrictFallback(t *testing.T) {
	us := newTestUnionService()

	obj := &models.UnifiedObject{AddressKey: "k1"}
	obj.Add(sourceListing("knru", "k1", 100, 1))

	rows := us.AssembleRows([]*models.UnifiedObject{obj})
	require.Len(t, rows, 1)
	assert.Equal(t, "Не определен", rows[0].District)
	assert.Equal(t, "не определен", rows[0].DistrictSort)
}

func TestBuildObjectsClustersByKeyAndArea(t *testing.T) {
	us := newTestUnionService()

	listings := []*models.SourceListing{
		sourceListing("knru", "k1", 100, 1),
		sourceListing("nordwest", "k1", 101, 2),  // joins: area within tolerance
		sourceListing("rest2rent", "k1", 300, 3), // opens a second object
		sourceListing("knru", "k2", 100, 4),      // different key
	}

	objects := us.BuildObjects(context.Background(), listings)
	require.Len(t, objects, 3)

	counts := make(map[int]int)
	for _, obj := range objects {
		counts[len(obj.MembersBySource)]++
	}
	assert.Equal(t, 1, counts[2])
	assert.Equal(t, 2, counts[1])
}

func TestLoadSourcesSkipsAbsentReports(t *testing.T) {
	us := newTestUnionService()

	// Paths for sources we have no report for are simply not in the map;
	// a named but missing file reads as empty.
	listings, err := us.LoadSources(map[string]string{
		"knru": filepath.Join(t.TempDir(), "no_such_report.csv"),
	})
	require.NoError(t, err)
	assert.Empty(t, listings)
}
