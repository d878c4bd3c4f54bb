package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "", FormatMoney(nil))
	assert.Equal(t, "112 000 000", FormatMoney(models.Float(112000000)))
	assert.Equal(t, "950", FormatMoney(models.Float(950)))
	assert.Equal(t, "1 000", FormatMoney(models.Float(1000)))
	assert.Equal(t, "-12 500", FormatMoney(models.Float(-12500)))
}

func TestFormatArea(t *testing.T) {
	assert.Equal(t, "", FormatArea(nil))
	assert.Equal(t, "160", FormatArea(models.Float(160)))
	assert.Equal(t, "57.5", FormatArea(models.Float(57.5)))
}

func TestFormatPct(t *testing.T) {
	assert.Equal(t, "", FormatPct(nil))
	assert.Equal(t, "12.5%", FormatPct(models.Float(12.5)))
	assert.Equal(t, "-3.0%", FormatPct(models.Float(-3.0)))
}

func TestHyperlink(t *testing.T) {
	assert.Equal(t, "", Hyperlink("", "x"))
	assert.Equal(t, `=HYPERLINK("https://x.ru/1","ссылка")`, Hyperlink("https://x.ru/1", ""))
	assert.Equal(t, `=HYPERLINK("https://x.ru/1","объект")`, Hyperlink("https://x.ru/1", "объект"))
}

func TestWriteVerdictCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")

	delta, pct := 2000000.0, 1.8
	entries := []VerdictEntry{
		{
			Listing: &models.ListingRecord{
				PositionGlobal: 1,
				PageNum:        1,
				PagePos:        1,
				ListingID:      "123",
				DealType:       models.DealSale,
				District:       "Центральный",
				Address:        "Невский пр, 126",
				AreaM2:         models.Float(160),
				PriceRub:       models.Float(110000000),
				URL:            "https://comp.ru/1",
			},
			Verdict: models.ComparisonVerdict{
				Result:           models.VerdictMatched,
				Reason:           "Активен sale 160 м² 112 000 000",
				ReferenceListing: &models.ListingRecord{URL: "https://crm.example/1"},
				ReferencePrice:   models.Float(112000000),
				PriceScope:       models.ScopeSameDeal,
				Alert:            models.PriceAlert{Text: "У нас дороже на 2 000 000 (1.8%)", DeltaRub: &delta, DeltaPct: &pct},
				MatchedCount:     1,
			},
		},
	}

	require.NoError(t, WriteVerdictCSV(path, entries, zap.NewNop()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	header, row := rows[0], rows[1]
	byName := map[string]string{}
	for i, h := range header {
		byName[h] = row[i]
	}

	assert.Equal(t, "1", byName["position_global"])
	assert.Equal(t, "sale", byName["deal_type"])
	assert.Equal(t, "160", byName["area_m2"])
	assert.Equal(t, "110 000 000", byName["price_rub"])
	assert.Equal(t, "112 000 000", byName["our_best_price_rub"])
	assert.Equal(t, "2 000 000", byName["price_diff_rub"])
	assert.Equal(t, "1.8%", byName["price_diff_pct"])
	assert.Equal(t, "same_deal", byName["price_scope"])
	assert.Equal(t, `=HYPERLINK("https://comp.ru/1","ссылка")`, byName["competitor_link"])
	assert.Equal(t, `=HYPERLINK("https://crm.example/1","ссылка")`, byName["our_best_link"])
	assert.Equal(t, "Совпало", byName["result"])
	assert.Equal(t, "1", byName["matched_count"])
}

func TestWriteUnionXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "union.xlsx")
	sources := config.Default().Sources[:3]

	rows := []UnionRow{
		{
			District: "Центральный",
			Address:  "Невский пр, 126",
			Deal:     "sale",
			Cells: map[string]UnionCell{
				"knru":      {Present: true, Area: "160", Price: "110 000 000", Result: "Нет у нас", Link: "https://comp.ru/1"},
				"nordwest":  {Present: true, Area: "160", Price: "111 000 000", Result: "Нет у нас", Link: "https://comp.ru/2"},
				"rest2rent": {Present: true, Area: "161", Price: "112 000 000", Result: "Нет у нас", Link: "https://comp.ru/3"},
			},
			RedFlag:       true,
			PresenceCount: 3,
			DistrictSort:  "центральный",
			StreetSort:    "невский пр, 126",
			Pos:           1,
		},
		{
			District: "Адмиралтейский",
			Address:  "Садовая ул, 12",
			Deal:     "rent",
			Cells: map[string]UnionCell{
				"knru": {Present: true, Area: "85", Result: "Совпало"},
			},
			PresenceCount: 1,
			DistrictSort:  "адмиралтейский",
			StreetSort:    "садовая ул, 12",
			Pos:           2,
		},
	}

	require.NoError(t, WriteUnionXLSX(path, rows, sources, zap.NewNop()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Сводный")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Район", got[0][0])

	// Presence 3 sorts above presence 1.
	assert.Equal(t, "Невский пр, 126", got[1][1])
	assert.Equal(t, "Садовая ул, 12", got[2][1])
	assert.Equal(t, "Да", got[1][3])

	stats, err := f.GetRows("Статистика")
	require.NoError(t, err)
	require.NotEmpty(t, stats)
	assert.Equal(t, []string{"Показатель", "Значение"}, stats[0][:2])
	assert.Equal(t, "Уникальных объединённых объектов", stats[1][0])
	assert.Equal(t, "2", stats[1][1])
}
