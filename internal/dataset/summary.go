package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"voice-appointments-go/internal/aggregator"
	"voice-appointments-go/internal/types"
)

const (
	ResultsSheet = "Results"
	SummarySheet = "Summary"
)

var resultsHeader = []any{"id", "name", "date", "time", "transcript"}

// WriteResults saves one row per extraction on the Results sheet and the
// batch counts on the Summary sheet.
func WriteResults(path string, rows []types.ExtractionRow, summary aggregator.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(ResultsSheet, "A1", &resultsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{r.ID, r.Name, r.Date, r.Time, r.Transcript}
		if err := f.SetSheetRow(ResultsSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(ResultsSheet, "E", "E", 80); err != nil {
		return err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	lines := [][]any{
		{"metric", "value"},
		{"total", summary.Total},
		{"names_found", summary.NamesFound},
		{"dates_found", summary.DatesFound},
		{"times_found", summary.TimesFound},
		{"complete", summary.Complete},
	}
	for _, m := range summary.Months() {
		lines = append(lines, []any{"month " + m, summary.ByMonth[m]})
	}
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &line); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
