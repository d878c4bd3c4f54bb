package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
)

func fl(v float64) *float64 { return &v }

func listing(source, key string, area, pos float64) *models.SourceListing {
	return &models.SourceListing{
		Source:         source,
		Address:        "невский пр, 100",
		AreaM2:         fl(area),
		PositionGlobal: fl(pos),
		AddressKey:     key,
		Result:         "Нет у нас",
	}
}

func TestBuilder_CollapsesSameObjectAcrossSources(t *testing.T) {
	b := NewBuilder(config.Default().Matcher)
	key := "невский|100-100||"

	objects := b.Build([]*models.SourceListing{
		listing("knru", key, 120.0, 1),
		listing("nordwest", key, 121.5, 2),
		listing("rest2rent", key, 119.0, 3),
	})

	require.Len(t, objects, 1)
	assert.Len(t, objects[0].MembersBySource, 3)
	assert.NotEmpty(t, objects[0].ClusterID)
	assert.Equal(t, key, objects[0].AddressKey)
}

func TestBuilder_SplitsOnAreaGap(t *testing.T) {
	b := NewBuilder(config.Default().Matcher)
	key := "невский|100-100||"

	objects := b.Build([]*models.SourceListing{
		listing("knru", key, 120.0, 1),
		listing("nordwest", key, 121.0, 2),
		listing("knru", key, 140.0, 3),
	})

	// 140 is 19 units off the reference, past both tolerances, and two
	// sources already agree, so it opens its own object.
	require.Len(t, objects, 2)
	assert.Len(t, objects[0].MembersBySource, 2)
	assert.Len(t, objects[1].MembersBySource, 1)
}

func TestBuilder_BestPositionWinsPerSource(t *testing.T) {
	b := NewBuilder(config.Default().Matcher)
	key := "невский|100-100||"

	objects := b.Build([]*models.SourceListing{
		listing("knru", key, 120.0, 7),
		listing("knru", key, 120.0, 2),
	})

	require.Len(t, objects, 1)
	m := objects[0].MembersBySource["knru"]
	require.NotNil(t, m)
	assert.Equal(t, 2.0, *m.PositionGlobal)
}

func TestBuilder_NoAreaAttachesToSingleObject(t *testing.T) {
	b := NewBuilder(config.Default().Matcher)
	key := "невский|100-100||"

	noArea := listing("rest2rent", key, 0, 3)
	noArea.AreaM2 = nil

	objects := b.Build([]*models.SourceListing{
		listing("knru", key, 120.0, 1),
		noArea,
	})

	require.Len(t, objects, 1)
	assert.Len(t, objects[0].MembersBySource, 2)
}

func TestBuilder_AreaListingOpensNewObjectWhenRefUnknown(t *testing.T) {
	b := NewBuilder(config.Default().Matcher)
	key := "невский|100-100||"

	noArea := listing("knru", key, 0, 1)
	noArea.AreaM2 = nil

	// The lone object has no reference area, so a listing that names one
	// cannot claim to match it.
	objects := b.Build([]*models.SourceListing{
		noArea,
		listing("nordwest", key, 100.0, 2),
	})

	require.Len(t, objects, 2)
	assert.Len(t, objects[0].MembersBySource, 1)
	assert.Len(t, objects[1].MembersBySource, 1)
	assert.Nil(t, objects[0].AreaRef)
	require.NotNil(t, objects[1].AreaRef)
	assert.Equal(t, 100.0, *objects[1].AreaRef)
}

func TestBuilder_SoftToleranceAttachesWhenAlone(t *testing.T) {
	b := NewBuilder(config.Default().Matcher)
	key := "невский|100-100||"

	objects := b.Build([]*models.SourceListing{
		listing("knru", key, 120.0, 1),
		listing("nordwest", key, 130.0, 2), // 10 > 3 but <= 15 and one object
	})

	require.Len(t, objects, 1)
	assert.Len(t, objects[0].MembersBySource, 2)
}

func TestBuilder_DistrictMismatchBlocksAttach(t *testing.T) {
	b := NewBuilder(config.Default().Matcher)
	key := "советская|10-10||"

	first := listing("knru", key, 80.0, 1)
	first.DistrictNorm = "центральный"
	second := listing("nordwest", key, 80.0, 2)
	second.DistrictNorm = "адмиралтейский"

	objects := b.Build([]*models.SourceListing{first, second})
	assert.Len(t, objects, 2)
}

func TestAddressKey_Fallback(t *testing.T) {
	assert.Equal(t, "fallback|какой-то адрес", AddressKey(nil, "какой-то адрес"))

	comp := &models.AddressComponents{StreetKeyBag: "казакова маршала"}
	hf, ht := 70, 70
	comp.HouseFrom, comp.HouseTo = &hf, &ht
	comp.Corp = "1"
	assert.Equal(t, "казакова маршала|70-70|1|", AddressKey(comp, "x"))
}

func TestCollectDiffs(t *testing.T) {
	obj := &models.UnifiedObject{MembersBySource: map[string]*models.SourceListing{
		"knru":     {Source: "knru", SourceLabel: "KNRU", DealType: models.DealSale, AreaM2: fl(100), PriceRub: fl(9000000)},
		"nordwest": {Source: "nordwest", SourceLabel: "Северо-Запад", DealType: models.DealRent, AreaM2: fl(110), PriceRub: fl(9500000)},
	}}

	got := CollectDiffs(obj, 3.0)
	assert.Equal(t,
		"Тип сделки отличается (KNRU: sale / Северо-Запад: rent) | "+
			"Площадь отличается (KNRU: 100 м2 / Северо-Запад: 110 м2) | "+
			"Цена отличается (KNRU: 9 000 000 / Северо-Запад: 9 500 000)",
		got)

	solo := &models.UnifiedObject{MembersBySource: map[string]*models.SourceListing{
		"knru": {Source: "knru", DealType: models.DealSale},
	}}
	assert.Empty(t, CollectDiffs(solo, 3.0))
}

func TestIsRedFlag(t *testing.T) {
	obj := &models.UnifiedObject{MembersBySource: map[string]*models.SourceListing{
		"knru":      {Source: "knru", Result: "Нет у нас"},
		"nordwest":  {Source: "nordwest", Result: "Нет у нас"},
		"rest2rent": {Source: "rest2rent", Result: "Нет у нас"},
	}}
	assert.True(t, IsRedFlag(obj))

	obj.MembersBySource["knru"].Result = "Совпало"
	assert.False(t, IsRedFlag(obj))

	two := &models.UnifiedObject{MembersBySource: map[string]*models.SourceListing{
		"knru":     {Source: "knru", Result: "Нет у нас"},
		"nordwest": {Source: "nordwest", Result: "Нет у нас"},
	}}
	assert.False(t, IsRedFlag(two))
}
