package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jmylchreest/ocrmerge/internal/summary"
)

const (
	itemsSheet  = "Items"
	totalsSheet = "Totals"
)

var itemHeaders = []string{"ID", "Engine", "Outcome", "Changes", "Attempts", "Artifacts", "Error"}

// WriteSummaryWorkbook saves s as an XLSX workbook with an item sheet and a
// totals sheet.
func WriteSummaryWorkbook(path string, s *summary.Summary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// Rename the default sheet rather than leaving an empty "Sheet1".
	if err := f.SetSheetName("Sheet1", itemsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(totalsSheet); err != nil {
		return fmt.Errorf("create totals sheet: %w", err)
	}
	if index, err := f.GetSheetIndex(itemsSheet); err == nil {
		f.SetActiveSheet(index)
	}

	if err := writeRow(f, itemsSheet, 1, toRow(itemHeaders)); err != nil {
		return err
	}
	for r, it := range s.Items {
		values := []any{it.ID, it.Engine, string(it.Outcome), it.Changes, it.Attempts,
			strings.Join(it.Artifacts, "\n"), it.Error}
		if err := writeRow(f, itemsSheet, r+2, values); err != nil {
			return err
		}
	}
	if err := setWidths(f, itemsSheet, []colWidth{
		{"A", "A", 24}, // id
		{"B", "B", 22}, // engine
		{"C", "C", 22}, // outcome
		{"D", "E", 10},
		{"F", "F", 60}, // artifacts
		{"G", "G", 60}, // error
	}); err != nil {
		return err
	}

	totals := [][]any{
		{"Run ID", s.RunID},
		{"Mode", string(s.Mode)},
		{"Started", s.StartedAt.Format(time.RFC3339)},
		{"Finished", s.FinishedAt.Format(time.RFC3339)},
		{"Items", len(s.Items)},
		{"Succeeded", s.Succeeded()},
		{"Failed", s.Failed()},
	}
	counts := s.Counts()
	for _, o := range s.SortedOutcomes() {
		totals = append(totals, []any{string(o), counts[o]})
	}
	for r, pair := range totals {
		if err := writeRow(f, totalsSheet, r+1, pair); err != nil {
			return err
		}
	}
	if err := setWidths(f, totalsSheet, []colWidth{{"A", "A", 24}, {"B", "B", 40}}); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

type colWidth struct {
	from, to string
	width    float64
}

// writeRow fills row (1-based) of sheet from column A onwards.
func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, row, err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("%s %s: %w", sheet, cell, err)
		}
	}
	return nil
}

func setWidths(f *excelize.File, sheet string, widths []colWidth) error {
	for _, w := range widths {
		if err := f.SetColWidth(sheet, w.from, w.to, w.width); err != nil {
			return fmt.Errorf("%s column width %s:%s: %w", sheet, w.from, w.to, err)
		}
	}
	return nil
}

func toRow(values []string) []any {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
