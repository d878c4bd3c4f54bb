package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/services"
	"github.com/listing-radar/internal/normalizer"
	"github.com/listing-radar/internal/parser"
	"github.com/listing-radar/internal/search"
)

// Classifies every street in the internal feed against the canonical street
// catalog and writes the review list: confirmed streets, suspected typos and
// candidates for new catalog entries.
func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "configuration file")
		catalogPath = flag.String("catalog", "deals.xml", "internal catalog feed")
		outPath     = flag.String("out", "street_review.csv", "review list path")
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
	searcher := search.NewStreetSearcher(index, cfg.Search, logger)

	canonical := services.NewCanonicalService(searcher, logger)
	reviews := canonical.ReviewStreets(catalog.Records())

	if err := writeReviews(*outPath, reviews); err != nil {
		logger.Fatal("review write failed", zap.Error(err))
	}
	logger.Info("street review written",
		zap.String("path", *outPath),
		zap.Int("streets", len(reviews)))
}

func writeReviews(path string, reviews []*services.StreetReview) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"street", "status", "canonical", "district", "score", "count"}); err != nil {
		return err
	}
	for _, r := range reviews {
		row := []string{
			r.Query,
			string(r.Status),
			r.Canonical,
			r.District,
			fmt.Sprintf("%.1f", r.Score),
			strconv.Itoa(r.Count),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
