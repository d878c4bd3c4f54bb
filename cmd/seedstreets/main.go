package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/services"
	"github.com/listing-radar/internal/normalizer"
	"github.com/listing-radar/internal/parser"
	"github.com/listing-radar/internal/search"
)

// Seeds the canonical street catalog in Meilisearch from the internal feed.
func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "configuration file")
		catalogPath = flag.String("catalog", "deals.xml", "internal catalog feed")
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

	norm := normalizer.NewDefault()
	extractor := parser.NewExtractor(norm)

	catalog := services.NewCatalogService(extractor, logger)
	if _, err := catalog.Load(*catalogPath); err != nil {
		logger.Fatal("catalog load failed", zap.Error(err))
	}

	index, err := search.NewStreetIndex(cfg.Search.Host, cfg.Search.APIKey, cfg.Search.IndexName, logger)
	if err != nil {
		logger.Fatal("meilisearch connection failed", zap.Error(err))
	}

	admin := services.NewAdminService(catalog, nil, index, nil, logger)
	result, err := admin.SeedStreets(context.Background())
	if err != nil {
		logger.Fatal("street seed failed", zap.Error(err))
	}

	logger.Info("street catalog seeded",
		zap.Int("streets", result.Streets),
		zap.Int64("duration_ms", result.DurationMs))
}
