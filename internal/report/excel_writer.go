package report

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/radszy/gerritstats/internal/models"
)

// WorkbookFileName is the optional XLSX export mirroring both CSV reports.
const WorkbookFileName = "stats.xlsx"

// Sheet names inside the workbook
const (
	statsSheet    = "Stats"
	detailedSheet = "Detailed"
)

// ExcelWriter renders the aggregated statistics into a single XLSX
// workbook with one sheet per CSV report.
type ExcelWriter struct {
	outputDir string
	names     map[string]string
}

// NewExcelWriter creates a writer emitting into outputDir.
func NewExcelWriter(outputDir string, names map[string]string) *ExcelWriter {
	return &ExcelWriter{
		outputDir: outputDir,
		names:     names,
	}
}

// WriteWorkbook writes stats.xlsx with a Stats sheet (average row plus
// per-user "All" rows) and a Detailed sheet (every user x repository
// cell). Ratio cells are kept as strings so degenerate NaN/+Inf values
// survive serialization.
func (w *ExcelWriter) WriteWorkbook(stats models.UserStatistics, avg *models.Stats) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", statsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := file.NewSheet(detailedSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	simple := [][]string{header, record("Average", models.AllRepositories, avg)}
	for _, username := range stats.Usernames() {
		all, ok := stats[username][models.AllRepositories]
		if !ok {
			return fmt.Errorf("user %q has no %q row", username, models.AllRepositories)
		}
		simple = append(simple, record(displayName(w.names, username), models.AllRepositories, all))
	}
	if err := writeSheet(file, statsSheet, simple); err != nil {
		return err
	}

	detailed := [][]string{header}
	for _, username := range stats.Usernames() {
		for _, repo := range stats.Repositories(username) {
			detailed = append(detailed, record(displayName(w.names, username), repo, stats[username][repo]))
		}
	}
	if err := writeSheet(file, detailedSheet, detailed); err != nil {
		return err
	}

	path := filepath.Join(w.outputDir, WorkbookFileName)
	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", WorkbookFileName, err)
	}
	return nil
}

// writeSheet fills one sheet row by row starting at A1.
func writeSheet(file *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to compute cell for row %d: %w", i+1, err)
		}
		values := make([]interface{}, len(row))
		for j, value := range row {
			values[j] = value
		}
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
