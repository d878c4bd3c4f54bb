package feed

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/cluster"
	"github.com/listing-radar/internal/normalizer"
	"github.com/listing-radar/internal/parser"
)

var hyperlinkRe = regexp.MustCompile(`=HYPERLINK\("([^"]+)"`)

// LinkFromCell unwraps a spreadsheet HYPERLINK formula; plain URLs pass
// through.
func LinkFromCell(cell string) string {
	s := strings.TrimSpace(cell)
	if m := hyperlinkRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// ReportCSVReader turns per-source verdict reports back into listings the
// union builder can cluster.
type ReportCSVReader struct {
	norm   *normalizer.Normalizer
	ex     *parser.Extractor
	logger *zap.Logger
}

// NewReportCSVReader builds a reader sharing the pipeline's normalizer and
// extractor so keys agree with the comparison stage.
func NewReportCSVReader(n *normalizer.Normalizer, ex *parser.Extractor, logger *zap.Logger) *ReportCSVReader {
	return &ReportCSVReader{norm: n, ex: ex, logger: logger}
}

// Read loads one source's verdict CSV. A missing file is an empty slice, not
// an error: sources come and go between runs.
func (r *ReportCSVReader) Read(path string, src config.SourceCfg) ([]*models.SourceListing, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Warn("report csv missing", zap.String("path", path), zap.String("source", src.ID))
			return nil, nil
		}
		return nil, fmt.Errorf("open report csv: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read report csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []*models.SourceListing
	for _, row := range rows[1:] {
		address := r.norm.CleanCityPrefix(cell(row, "address"))
		if address == "" {
			continue
		}

		district := cell(row, "district")
		deal := strings.ToLower(cell(row, "deal_type"))
		if deal == "" {
			deal = src.DefaultDeal
		}

		comp := r.ex.Extract(address)
		streetKey := ""
		if comp != nil {
			streetKey = comp.StreetKeyBag
			if streetKey == "" {
				streetKey = comp.StreetKey
			}
		}

		out = append(out, &models.SourceListing{
			Source:         src.ID,
			SourceLabel:    src.Label,
			DealType:       models.ParseDealType(deal),
			Address:        address,
			AreaM2:         ExtractFirstNumber(cell(row, "area_m2")),
			PriceRub:       ExtractFirstNumber(cell(row, "price_rub")),
			Result:         cell(row, "result"),
			PriceAlert:     cell(row, "price_alert"),
			PositionGlobal: ExtractFirstNumber(cell(row, "position_global")),
			CompetitorLink: LinkFromCell(cell(row, "competitor_link")),
			OurLink:        LinkFromCell(cell(row, "our_best_link")),
			OurBestPrice:   ExtractFirstNumber(cell(row, "our_best_price_rub")),
			District:       district,
			DistrictNorm:   r.norm.NormalizeDistrict(district),
			StreetKey:      streetKey,
			AddressKey:     cluster.AddressKey(comp, r.norm.Normalize(address)),
		})
	}
	return out, nil
}
