package geocode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/normalizer"
)

func TestInferRegionFromAddress(t *testing.T) {
	n := normalizer.NewDefault()

	cases := []struct {
		address string
		want    string
	}{
		{"Великий Новгород, Новгородская область, ул Ленина 1", "Новгородская область"},
		{"Ленинградская область, Мурино, бульвар Менделеева 3", "Ленинградская область, Всеволожский район"},
		{"Ленинградская область, Кировский район, г Отрадное", "Ленинградская область, Кировский район"},
		{"Гатчинский район, пос Войсковицы", "Гатчинский район"},
		{"Санкт-Петербург, Центральный район, Невский пр 1", ""},
		{"Невский пр, 126", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, InferRegionFromAddress(n, tc.address), tc.address)
	}
}

func TestInferLenoblastRaion(t *testing.T) {
	n := normalizer.NewDefault()
	assert.Equal(t, "Всеволожский район", inferLenoblastRaion(n, "деревня Кудрово, Строителей 5"))
	assert.Equal(t, "Гатчинский район", inferLenoblastRaion(n, "г. Гатчина"))
	assert.Equal(t, "", inferLenoblastRaion(n, "Невский пр 126"))
}

func TestChooseTop(t *testing.T) {
	assert.Equal(t, "", chooseTop(nil))
	assert.Equal(t, "б", chooseTop(map[string]int{"а": 1, "б": 3}))
	// Tie breaks lexicographically.
	assert.Equal(t, "а", chooseTop(map[string]int{"б": 2, "а": 2}))
}

func TestNominatimClient_Timeout(t *testing.T) {
	n := normalizer.NewDefault()

	cfg := config.Default().Geocode
	c := NewNominatimClient(cfg, n, zap.NewNop())
	assert.Equal(t, 8*time.Second, c.client.Timeout)

	// An unset timeout falls back to the shared request timeout.
	cfg.TimeoutSec = 0
	c = NewNominatimClient(cfg, n, zap.NewNop())
	assert.Equal(t, config.RequestTimeout(), c.client.Timeout)
}

func TestNominatimClient_PickCandidate(t *testing.T) {
	n := normalizer.NewDefault()
	c := NewNominatimClient(config.Default().Geocode, n, zap.NewNop())

	// City answer with a municipal okrug maps back to the district.
	got := c.pickCandidate(nominatimAddress{State: "Санкт-Петербург", Suburb: "округ Смольнинское"})
	assert.Equal(t, "Центральный", got)

	// City answer with a plain district passes through.
	got = c.pickCandidate(nominatimAddress{State: "Санкт-Петербург", CityDistrict: "Адмиралтейский район"})
	assert.Equal(t, "Адмиралтейский район", got)

	// Oblast answer narrows to the raion via the settlement table.
	got = c.pickCandidate(nominatimAddress{State: "Ленинградская область", Town: "Мурино"})
	assert.Equal(t, "Ленинградская область, Всеволожский район", got)

	// Unknown oblast settlement keeps the sub-unit verbatim.
	got = c.pickCandidate(nominatimAddress{State: "Ленинградская область", County: "Киришский район"})
	assert.Equal(t, "Ленинградская область, Киришский район", got)

	got = c.pickCandidate(nominatimAddress{State: "Новгородская область"})
	assert.Equal(t, "Новгородская область", got)

	got = c.pickCandidate(nominatimAddress{State: "Псковская область"})
	assert.Equal(t, "Псковская область", got)
}

type fixedLookup struct{ answer string }

func (f fixedLookup) DistrictFor(ctx context.Context, address string) (string, error) {
	return f.answer, nil
}

func TestEnricher_MajorityAndFallback(t *testing.T) {
	n := normalizer.NewDefault()
	cfg := config.Default().Geocode
	cfg.Enabled = false

	e := NewEnricher(cfg, nil, nil, n, zap.NewNop())

	known := &models.SourceListing{
		Address: "невский пр, 100", AddressKey: "k1", StreetKey: "невский",
		District: "Центральный", DistrictNorm: "центральный",
	}
	known2 := &models.SourceListing{
		Address: "невский пр, 102", AddressKey: "k2", StreetKey: "невский",
		District: "Центральный", DistrictNorm: "центральный",
	}
	sameAddr := &models.SourceListing{Address: "невский пр, 100", AddressKey: "k1", StreetKey: "невский"}
	sameStreet := &models.SourceListing{Address: "невский пр, 77", AddressKey: "k3", StreetKey: "невский"}
	stranger := &models.SourceListing{Address: "тихая ул, 5", AddressKey: "k4", StreetKey: "тихая"}

	e.Enrich(context.Background(), []*models.SourceListing{known, known2, sameAddr, sameStreet, stranger})

	assert.Equal(t, "Центральный", sameAddr.District)
	assert.Equal(t, "центральный", sameAddr.DistrictNorm)
	assert.Equal(t, "Центральный", sameStreet.District)
	assert.Equal(t, "Не определен", stranger.District)
	assert.True(t, normalizer.IsUnknownDistrict(stranger.DistrictNorm))
}

func TestEnricher_RegionFromText(t *testing.T) {
	n := normalizer.NewDefault()
	cfg := config.Default().Geocode
	cfg.Enabled = false
	e := NewEnricher(cfg, nil, nil, n, zap.NewNop())

	x := &models.SourceListing{Address: "Ленинградская область, Мурино, Охтинская аллея 4", AddressKey: "k1"}
	e.Enrich(context.Background(), []*models.SourceListing{x})

	assert.Equal(t, "Ленинградская область, Всеволожский район", x.District)
}

func TestEnricher_GeocodeStageUsesCache(t *testing.T) {
	n := normalizer.NewDefault()
	cfg := config.Default().Geocode
	cfg.DelaySec = 0
	cache := LoadFileCache(t.TempDir() + "/cache.json")
	cache.Put("загадочная ул, 1", "Курортный район")

	e := NewEnricher(cfg, fixedLookup{answer: "should not be used"}, cache, n, zap.NewNop())

	x := &models.SourceListing{Address: "загадочная ул, 1", AddressKey: "k1"}
	e.Enrich(context.Background(), []*models.SourceListing{x})

	require.Equal(t, "Курортный район", x.District)
}
