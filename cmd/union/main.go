package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/services"
	"github.com/listing-radar/internal/feed"
	"github.com/listing-radar/internal/geocode"
	"github.com/listing-radar/internal/normalizer"
	"github.com/listing-radar/internal/parser"
)

// Builds the cross-source union board from per-source verdict reports.
//
//	union -reports knru=knru.csv,nordwest=nw.csv -out union.xlsx
func main() {
	var (
		configPath = flag.String("config", "config.yaml", "configuration file")
		reports    = flag.String("reports", "", "comma-separated source=path pairs")
		outPath    = flag.String("out", "union.xlsx", "board workbook path")
		noGeocode  = flag.Bool("no-geocode", false, "skip the network district lookup")
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

	csvPaths := parseReportPairs(*reports)
	if len(csvPaths) == 0 {
		logger.Fatal("no -reports given")
	}

	norm := normalizer.NewDefault()
	extractor := parser.NewExtractor(norm)
	reader := feed.NewReportCSVReader(norm, extractor, logger)

	fileCache := geocode.LoadFileCache(cfg.Geocode.CachePath)
	var lookup geocode.DistrictLookup
	if cfg.Geocode.Enabled && !*noGeocode {
		lookup = geocode.NewNominatimClient(cfg.Geocode, norm, logger)
	}
	enricher := geocode.NewEnricher(cfg.Geocode, lookup, fileCache, norm, logger)

	union := services.NewUnionService(cfg, reader, enricher, norm, logger)

	listings, err := union.LoadSources(csvPaths)
	if err != nil {
		logger.Fatal("report load failed", zap.Error(err))
	}

	objects := union.BuildObjects(context.Background(), listings)
	rows := union.AssembleRows(objects)

	if err := union.WriteBoard(*outPath, rows); err != nil {
		logger.Fatal("board write failed", zap.Error(err))
	}
	logger.Info("union board written",
		zap.String("path", *outPath),
		zap.Int("objects", len(rows)))
}

func parseReportPairs(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
