package admin

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"
)

// ExportStatistics writes the dashboard snapshot as a two-sheet workbook,
// one sheet of headline numbers and one with the full status breakdown.
func ExportStatistics(w io.Writer, stats *Statistics) error {
	file := excelize.NewFile()
	defer file.Close()

	const summary = "Summary"
	file.SetSheetName("Sheet1", summary)

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	rows := [][]any{
		{"Metric", "Value"},
		{"Total users", stats.TotalUsers},
		{"Total documents", stats.TotalDocuments},
		{"Drafts", stats.Drafts},
		{"In review", stats.InReview},
		{"Approved", stats.Approved},
		{"Rejected", stats.Rejected},
	}
	for _, role := range sortedKeys(stats.UsersPerRole) {
		rows = append(rows, []any{"Users with role " + role, stats.UsersPerRole[role]})
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := file.SetSheetRow(summary, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	file.SetCellStyle(summary, "A1", "B1", headerStyle)
	file.SetColWidth(summary, "A", "A", 32)
	file.SetColWidth(summary, "B", "B", 14)

	const byStatus = "By Status"
	if _, err := file.NewSheet(byStatus); err != nil {
		return fmt.Errorf("create status sheet: %w", err)
	}
	header := []any{"Status", "Documents"}
	if err := file.SetSheetRow(byStatus, "A1", &header); err != nil {
		return err
	}
	for i, sc := range stats.PerStatus {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{string(sc.Status), sc.Count}
		if err := file.SetSheetRow(byStatus, cell, &row); err != nil {
			return fmt.Errorf("write status row: %w", err)
		}
	}
	file.SetCellStyle(byStatus, "A1", "B1", headerStyle)
	file.SetColWidth(byStatus, "A", "A", 36)
	file.SetColWidth(byStatus, "B", "B", 14)

	return file.Write(w)
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
