package report

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
)

const (
	unionSheet = "Сводный"
	statsSheet = "Статистика"

	redFillColor = "FFC7CE"
)

// UnionCell is one source's slice of a unified object row.
type UnionCell struct {
	Present bool
	Area    string
	Price   string
	Result  string
	Link    string
}

// UnionRow is one unified object prepared for the board: display values plus
// the sort keys the sheet is ordered by.
type UnionRow struct {
	District string
	Address  string
	Deal     string
	Cells    map[string]UnionCell // keyed by source ID
	Diffs    string
	RedFlag  bool

	PresenceCount int
	DistrictSort  string
	StreetSort    string
	Pos           float64
}

// WriteUnionXLSX writes the cross-source board: the summary sheet ordered by
// presence, district, street, and crawl position, plus a statistics sheet.
// Rows present at more than two sources with nothing on our side are
// highlighted red.
func WriteUnionXLSX(path string, rows []UnionRow, sources []config.SourceCfg, logger *zap.Logger) error {
	sorted := append([]UnionRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.PresenceCount != b.PresenceCount {
			return a.PresenceCount > b.PresenceCount
		}
		if a.DistrictSort != b.DistrictSort {
			return a.DistrictSort < b.DistrictSort
		}
		if a.StreetSort != b.StreetSort {
			return a.StreetSort < b.StreetSort
		}
		return a.Pos < b.Pos
	})

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", unionSheet)
	if _, err := f.NewSheet(statsSheet); err != nil {
		return fmt.Errorf("create stats sheet: %w", err)
	}

	headers := unionHeaders(sources)
	if err := writeRow(f, unionSheet, 1, headers); err != nil {
		return err
	}
	for i, r := range sorted {
		if err := writeRow(f, unionSheet, i+2, unionRowValues(r, sources)); err != nil {
			return err
		}
	}

	if err := paintRedFlags(f, sorted, len(headers)); err != nil {
		return err
	}
	if err := writeStats(f, sorted, sources); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save union xlsx: %w", err)
	}
	logger.Info("union board written", zap.String("path", path), zap.Int("objects", len(sorted)))
	return nil
}

func unionHeaders(sources []config.SourceCfg) []interface{} {
	headers := []interface{}{"Район", "Адрес", "Сделка"}
	for _, s := range sources {
		headers = append(headers, s.Label)
	}
	for _, s := range sources {
		headers = append(headers, "Площадь "+s.Label)
	}
	for _, s := range sources {
		headers = append(headers, "Цена "+s.Label)
	}
	for _, s := range sources {
		headers = append(headers, "Вывод "+s.Label)
	}
	headers = append(headers, "Расхождения")
	for _, s := range sources {
		headers = append(headers, "Ссылка "+s.Label)
	}
	return headers
}

func unionRowValues(r UnionRow, sources []config.SourceCfg) []interface{} {
	vals := []interface{}{r.District, r.Address, r.Deal}
	for _, s := range sources {
		if r.Cells[s.ID].Present {
			vals = append(vals, "Да")
		} else {
			vals = append(vals, "")
		}
	}
	for _, s := range sources {
		vals = append(vals, r.Cells[s.ID].Area)
	}
	for _, s := range sources {
		vals = append(vals, r.Cells[s.ID].Price)
	}
	for _, s := range sources {
		vals = append(vals, r.Cells[s.ID].Result)
	}
	vals = append(vals, r.Diffs)
	for _, s := range sources {
		vals = append(vals, r.Cells[s.ID].Link)
	}
	return vals
}

func writeRow(f *excelize.File, sheet string, rowNum int, vals []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

func paintRedFlags(f *excelize.File, rows []UnionRow, width int) error {
	styleID, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{redFillColor}},
	})
	if err != nil {
		return fmt.Errorf("red fill style: %w", err)
	}

	for i, r := range rows {
		if !r.RedFlag {
			continue
		}
		rowNum := i + 2
		first, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(width, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(unionSheet, first, last, styleID); err != nil {
			return fmt.Errorf("paint row %d: %w", rowNum, err)
		}
	}
	return nil
}

func writeStats(f *excelize.File, rows []UnionRow, sources []config.SourceCfg) error {
	type stat struct {
		name  string
		value int
	}

	present := func(r UnionRow, id string) bool { return r.Cells[id].Present }

	stats := []stat{{"Уникальных объединённых объектов", len(rows)}}

	all := 0
	for _, r := range rows {
		n := 0
		for _, s := range sources {
			if present(r, s.ID) {
				n++
			}
		}
		if n == len(sources) {
			all++
		}
	}
	stats = append(stats, stat{fmt.Sprintf("Есть у всех %d конкурентов", len(sources)), all})

	for _, s := range sources {
		only := 0
		for _, r := range rows {
			if r.PresenceCount == 1 && present(r, s.ID) {
				only++
			}
		}
		stats = append(stats, stat{"Только " + s.Label, only})
	}

	for i := 0; i < len(sources); i++ {
		for j := i + 1; j < len(sources); j++ {
			pair := 0
			for _, r := range rows {
				if r.PresenceCount == 2 && present(r, sources[i].ID) && present(r, sources[j].ID) {
					pair++
				}
			}
			stats = append(stats, stat{sources[i].Label + " + " + sources[j].Label, pair})
		}
	}

	diffs, red := 0, 0
	for _, r := range rows {
		if r.Diffs != "" {
			diffs++
		}
		if r.RedFlag {
			red++
		}
	}
	stats = append(stats,
		stat{"Объекты с расхождениями значений", diffs},
		stat{"Есть у 3 и более конкурентов, у нас нет (красные)", red},
	)

	if err := writeRow(f, statsSheet, 1, []interface{}{"Показатель", "Значение"}); err != nil {
		return err
	}
	for i, s := range stats {
		if err := writeRow(f, statsSheet, i+2, []interface{}{s.name, s.value}); err != nil {
			return err
		}
	}
	return nil
}
