package main

import (
	"encoding/csv"
	"flag"
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
	"github.com/listing-radar/app/services"
	"github.com/listing-radar/internal/feed"
	"github.com/listing-radar/internal/matcher"
	"github.com/listing-radar/internal/normalizer"
	"github.com/listing-radar/internal/parser"
)

// Compares one competitor crawl against the internal catalog and writes the
// verdict report for that source.
func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "configuration file")
		catalogPath = flag.String("catalog", "deals.xml", "internal catalog feed")
		sourceID    = flag.String("source", "", "competitor source id")
		htmlPath    = flag.String("html", "", "saved rest2rent page to parse")
		csvPath     = flag.String("csv", "", "competitor listings csv")
		outPath     = flag.String("out", "", "verdict report path")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	src := cfg.SourceByID(*sourceID)
	if src == nil {
		logger.Fatal("unknown source", zap.String("source", *sourceID))
	}
	if *outPath == "" {
		logger.Fatal("missing -out")
	}

	norm := normalizer.NewDefault()
	extractor := parser.NewExtractor(norm)
	engine := matcher.NewEngine(extractor, cfg.Matcher)

	catalog := services.NewCatalogService(extractor, logger)
	if _, err := catalog.Load(*catalogPath); err != nil {
		logger.Fatal("catalog load failed", zap.Error(err))
	}

	listings, err := loadCompetitor(*sourceID, *htmlPath, *csvPath, src, logger)
	if err != nil {
		logger.Fatal("competitor load failed", zap.Error(err))
	}
	if len(listings) == 0 {
		logger.Fatal("no competitor listings loaded")
	}

	compare := services.NewCompareService(catalog, engine, cfg, logger)
	entries, err := compare.CompareListings(listings, *sourceID)
	if err != nil {
		logger.Fatal("comparison failed", zap.Error(err))
	}

	if err := compare.WriteReport(*outPath, entries); err != nil {
		logger.Fatal("report write failed", zap.Error(err))
	}
	logger.Info("verdict report written",
		zap.String("path", *outPath),
		zap.Int("rows", len(entries)))
}

func loadCompetitor(sourceID, htmlPath, csvPath string, src *config.SourceCfg, logger *zap.Logger) ([]*models.ListingRecord, error) {
	if htmlPath != "" {
		data, err := os.ReadFile(htmlPath)
		if err != nil {
			return nil, err
		}
		p := feed.NewRest2RentParser(src.BaseURL, logger)
		return p.Parse(string(data))
	}
	return readCompetitorCSV(sourceID, csvPath)
}

// readCompetitorCSV reads a raw crawl dump: a header row naming at least
// address, plus optional deal_type, area_m2, price_rub, url and listing_id.
func readCompetitorCSV(sourceID, path string) ([]*models.ListingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil || len(rows) == 0 {
		return nil, err
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	num := func(row []string, name string) *float64 {
		if v, err := strconv.ParseFloat(cell(row, name), 64); err == nil {
			return &v
		}
		return nil
	}

	var out []*models.ListingRecord
	for pos, row := range rows[1:] {
		address := cell(row, "address")
		if address == "" {
			continue
		}
		out = append(out, &models.ListingRecord{
			Source:         sourceID,
			ListingID:      cell(row, "listing_id"),
			URL:            cell(row, "url"),
			DealType:       models.ParseDealType(cell(row, "deal_type")),
			Address:        address,
			AreaM2:         num(row, "area_m2"),
			PriceRub:       num(row, "price_rub"),
			PositionGlobal: pos + 1,
		})
	}
	return out, nil
}
