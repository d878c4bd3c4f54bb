package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/listing-radar/app/models"
)

// VerdictEntry pairs one competitor listing with its comparison outcome.
type VerdictEntry struct {
	Listing *models.ListingRecord
	Verdict models.ComparisonVerdict
}

// verdictColumns is the per-source report schema. The union builder reads
// these files back by header name, so the names are load-bearing.
var verdictColumns = []string{
	"position_global",
	"page_num",
	"page_pos",
	"competitor_listing_id",
	"deal_type",
	"district",
	"address",
	"area_m2",
	"price_rub",
	"our_best_price_rub",
	"price_alert",
	"price_diff_rub",
	"price_diff_pct",
	"price_scope",
	"pro_mark",
	"pro_note",
	"competitor_link",
	"our_best_link",
	"result",
	"matched_count",
	"reason",
}

// WriteVerdictCSV writes the per-source comparison report.
func WriteVerdictCSV(path string, entries []VerdictEntry, logger *zap.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create verdict csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(verdictColumns); err != nil {
		return fmt.Errorf("write verdict header: %w", err)
	}
	for _, e := range entries {
		if err := w.Write(verdictRow(e)); err != nil {
			return fmt.Errorf("write verdict row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush verdict csv: %w", err)
	}

	logger.Info("verdict report written", zap.String("path", path), zap.Int("rows", len(entries)))
	return nil
}

func verdictRow(e VerdictEntry) []string {
	l, v := e.Listing, e.Verdict

	refLink := ""
	if v.ReferenceListing != nil {
		refLink = Hyperlink(v.ReferenceListing.URL, "ссылка")
	}

	return []string{
		intOrEmpty(l.PositionGlobal),
		intOrEmpty(l.PageNum),
		intOrEmpty(l.PagePos),
		l.ListingID,
		string(l.DealType),
		l.District,
		l.Address,
		FormatArea(l.AreaM2),
		FormatMoney(l.PriceRub),
		FormatMoney(v.ReferencePrice),
		v.Alert.Text,
		FormatMoney(v.Alert.DeltaRub),
		FormatPct(v.Alert.DeltaPct),
		string(v.PriceScope),
		l.ProMark,
		l.ProNote,
		Hyperlink(l.URL, "ссылка"),
		refLink,
		models.DisplayRU[v.Result],
		strconv.Itoa(v.MatchedCount),
		v.Reason,
	}
}

func intOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
