package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/matcher"
	"github.com/listing-radar/internal/report"
)

// CompareService runs competitor listings against the catalog index and
// produces the per-source verdict report.
type CompareService struct {
	catalog *CatalogService
	engine  *matcher.Engine
	cfg     *config.Config
	logger  *zap.Logger
}

// NewCompareService wires the comparison pipeline.
func NewCompareService(catalog *CatalogService, engine *matcher.Engine, cfg *config.Config, logger *zap.Logger) *CompareService {
	return &CompareService{
		catalog: catalog,
		engine:  engine,
		cfg:     cfg,
		logger:  logger,
	}
}

// CompareListings resolves each listing's deal type against the source
// default and compares it against the catalog.
func (s *CompareService) CompareListings(listings []*models.ListingRecord, sourceID string) ([]report.VerdictEntry, error) {
	idx, err := s.catalog.Index()
	if err != nil {
		return nil, err
	}

	src := s.cfg.SourceByID(sourceID)
	if src == nil {
		return nil, fmt.Errorf("unknown source %q", sourceID)
	}
	defaultDeal := models.ParseDealType(src.DefaultDeal)

	entries := make([]report.VerdictEntry, 0, len(listings))
	counts := make(map[models.VerdictResult]int)

	for _, lst := range listings {
		lst.DealType = lst.EffectiveDealType(defaultDeal)
		verdict := s.engine.CompareOne(lst, idx)
		counts[verdict.Result]++
		entries = append(entries, report.VerdictEntry{Listing: lst, Verdict: verdict})
	}

	s.logger.Info("comparison finished",
		zap.String("source", sourceID),
		zap.Int("listings", len(listings)),
		zap.Int("matched", counts[models.VerdictMatched]),
		zap.Int("area_mismatch", counts[models.VerdictAreaMismatch]),
		zap.Int("part_mismatch", counts[models.VerdictPartMismatch]),
		zap.Int("deal_type_mismatch", counts[models.VerdictDealTypeMismatch]),
		zap.Int("not_found", counts[models.VerdictNotFound]))

	return entries, nil
}

// WriteReport writes the verdict CSV for one source.
func (s *CompareService) WriteReport(path string, entries []report.VerdictEntry) error {
	return report.WriteVerdictCSV(path, entries, s.logger)
}
