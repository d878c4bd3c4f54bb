package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/cluster"
	"github.com/listing-radar/internal/feed"
	"github.com/listing-radar/internal/geocode"
	"github.com/listing-radar/internal/normalizer"
	"github.com/listing-radar/internal/report"
)

// UnionService builds the cross-source board: it reads every source's verdict
// report, fills missing districts, clusters listings into unified objects and
// renders them as board rows.
type UnionService struct {
	cfg      *config.Config
	reader   *feed.ReportCSVReader
	enricher *geocode.Enricher
	builder  *cluster.Builder
	norm     *normalizer.Normalizer
	logger   *zap.Logger
}

// NewUnionService wires the union pipeline. enricher may be nil to skip
// district enrichment entirely.
func NewUnionService(cfg *config.Config, reader *feed.ReportCSVReader, enricher *geocode.Enricher, norm *normalizer.Normalizer, logger *zap.Logger) *UnionService {
	return &UnionService{
		cfg:      cfg,
		reader:   reader,
		enricher: enricher,
		builder:  cluster.NewBuilder(cfg.Matcher),
		norm:     norm,
		logger:   logger,
	}
}

// LoadSources reads the verdict CSV of every configured source. Missing
// files are skipped; a run with fewer sources is still a run.
func (us *UnionService) LoadSources(csvPaths map[string]string) ([]*models.SourceListing, error) {
	var all []*models.SourceListing
	for _, src := range us.cfg.Sources {
		path, ok := csvPaths[src.ID]
		if !ok {
			continue
		}
		listings, err := us.reader.Read(path, src)
		if err != nil {
			return nil, fmt.Errorf("read %s report: %w", src.ID, err)
		}
		us.logger.Info("source report loaded",
			zap.String("source", src.ID),
			zap.Int("listings", len(listings)))
		all = append(all, listings...)
	}
	return all, nil
}

// BuildObjects enriches districts and clusters the listings.
func (us *UnionService) BuildObjects(ctx context.Context, listings []*models.SourceListing) []*models.UnifiedObject {
	if us.enricher != nil {
		us.enricher.Enrich(ctx, listings)
	}
	objects := us.builder.Build(listings)
	us.logger.Info("unified objects built",
		zap.Int("listings", len(listings)),
		zap.Int("objects", len(objects)))
	return objects
}

// AssembleRows turns unified objects into board rows, one per object.
func (us *UnionService) AssembleRows(objects []*models.UnifiedObject) []report.UnionRow {
	rows := make([]report.UnionRow, 0, len(objects))
	for _, obj := range objects {
		rows = append(rows, us.assembleRow(obj))
	}
	return rows
}

// assembleRow picks display values in configured source order so the board
// stays stable run to run.
func (us *UnionService) assembleRow(obj *models.UnifiedObject) report.UnionRow {
	row := report.UnionRow{
		Cells:         make(map[string]report.UnionCell, len(obj.MembersBySource)),
		Diffs:         cluster.CollectDiffs(obj, us.cfg.Matcher.UnionAreaTol),
		RedFlag:       cluster.IsRedFlag(obj),
		PresenceCount: cluster.PresenceCount(obj),
		Pos:           cluster.BestPosition(obj),
	}

	for _, src := range us.cfg.Sources {
		m, ok := obj.MembersBySource[src.ID]
		if !ok {
			continue
		}

		row.Cells[src.ID] = report.UnionCell{
			Present: true,
			Area:    report.FormatArea(m.AreaM2),
			Price:   report.FormatMoney(m.PriceRub),
			Result:  m.Result,
			Link:    m.CompetitorLink,
		}

		if row.Address == "" {
			row.Address = m.Address
			row.Deal = string(m.DealType)
			row.StreetSort = m.StreetKey
		}
		if row.District == "" && !normalizer.IsUnknownDistrict(m.DistrictNorm) {
			row.District = m.District
			row.DistrictSort = m.DistrictNorm
		}
	}

	if row.District == "" {
		row.District = "Не определен"
		row.DistrictSort = us.norm.NormalizeDistrict(row.District)
	}
	return row
}

// WriteBoard writes the board workbook.
func (us *UnionService) WriteBoard(path string, rows []report.UnionRow) error {
	return report.WriteUnionXLSX(path, rows, us.cfg.Sources, us.logger)
}
