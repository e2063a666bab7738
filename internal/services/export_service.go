package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/repository"
)

var ErrExportGenerateFail = errors.New("failed to generate export workbook")

// ExportService writes dashboard figures to an Excel workbook
type ExportService struct {
	dashboard *DashboardService
	logger    *zap.Logger
}

func NewExportService(dashboard *DashboardService, logger *zap.Logger) *ExportService {
	return &ExportService{dashboard: dashboard, logger: logger}
}

// Export returns the workbook contents and a suggested file name.
// Sheets: Summary, Categories, Monthly, Units.
func (s *ExportService) Export(ctx context.Context, r repository.DateRange) (*bytes.Buffer, string, error) {
	stats, err := s.dashboard.Stats(ctx, r)
	if err != nil {
		return nil, "", err
	}
	units, err := s.dashboard.UnitPerformance(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, "", s.fail(err)
	}

	// Summary
	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, "", s.fail(err)
	}
	summaryRows := [][]interface{}{
		{"Metric", "Value"},
		{"Range start", formatBound(r.From)},
		{"Range end", formatEnd(r)},
		{"Total feedback", stats.Total},
	}
	for _, status := range models.FeedbackStatuses {
		summaryRows = append(summaryRows, []interface{}{"Status: " + string(status), stats.ByStatus[status]})
	}
	summaryRows = append(summaryRows,
		[]interface{}{"Anonymous", stats.Anonymous},
		[]interface{}{"Identified", stats.Identified},
	)
	if stats.AverageResolutionDays != nil {
		summaryRows = append(summaryRows, []interface{}{"Average resolution (days)", *stats.AverageResolutionDays})
	} else {
		summaryRows = append(summaryRows, []interface{}{"Average resolution (days)", "-"})
	}
	if err := writeSheet(f, summary, summaryRows, headerStyle); err != nil {
		return nil, "", s.fail(err)
	}

	// Categories
	categoryRows := [][]interface{}{{"Category", "Count"}}
	for _, c := range stats.ByCategory {
		categoryRows = append(categoryRows, []interface{}{c.Category, c.Count})
	}
	if err := newSheet(f, "Categories", categoryRows, headerStyle); err != nil {
		return nil, "", s.fail(err)
	}

	// Monthly
	monthlyRows := [][]interface{}{{"Month", "Submissions"}}
	for _, m := range stats.Monthly {
		monthlyRows = append(monthlyRows, []interface{}{m.Month, m.Count})
	}
	if err := newSheet(f, "Monthly", monthlyRows, headerStyle); err != nil {
		return nil, "", s.fail(err)
	}

	// Units
	unitRows := [][]interface{}{{"Unit", "Assigned", "Completed", "Processing", "Completion rate (%)"}}
	for _, u := range units {
		unitRows = append(unitRows, []interface{}{u.UnitName, u.TotalAssigned, u.Completed, u.Processing, u.CompletionRate})
	}
	if err := newSheet(f, "Units", unitRows, headerStyle); err != nil {
		return nil, "", s.fail(err)
	}

	f.SetActiveSheet(0)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", s.fail(err)
	}

	filename := fmt.Sprintf("feedback_report_%s.xlsx", time.Now().UTC().Format("20060102"))
	return buf, filename, nil
}

func (s *ExportService) fail(err error) error {
	s.logger.Error("Failed to write export workbook", zap.Error(err))
	return ErrExportGenerateFail
}

func newSheet(f *excelize.File, name string, rows [][]interface{}, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	return writeSheet(f, name, rows, headerStyle)
}

func writeSheet(f *excelize.File, name string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}

	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	return f.SetColWidth(name, "A", lastCol, 22)
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatEnd(r repository.DateRange) string {
	if r.To == nil || r.IncludeTo {
		return formatBound(r.To)
	}
	return formatBound(r.To) + " (exclusive)"
}
