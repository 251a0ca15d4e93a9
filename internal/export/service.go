package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shopops/pickticket/internal/batch"
)

var reportHeaders = []string{
	"Order ID",
	"Order Number",
	"Outcome",
	"Failed Stage",
	"Reason",
	"Completed At",
}

// Service turns completed batch reports into operator-facing files.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// WriteXLSX returns an XLSX workbook (as bytes) for a completed batch:
// one row per order plus a trailing summary block.
func (s *Service) WriteXLSX(report batch.Report) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Batch Report"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defIndex, _ := f.GetSheetIndex("Sheet1"); defIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, res := range report.Results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, res.OrderID)
		write(2, res.OrderName)
		write(3, string(res.Outcome))
		write(4, string(res.Stage))
		write(5, res.Reason)
		write(6, formatTime(res.CompletedAt))
		row++
	}

	// Summary block under the result rows.
	row++
	summary := [][2]any{
		{"Batch ID", report.BatchID.String()},
		{"Started", formatTime(report.StartedAt)},
		{"Finished", formatTime(report.FinishedAt)},
		{"Orders", len(report.Results)},
		{"Untagged prints (re-print on retry)", report.UntaggedPrints()},
	}
	for _, pair := range summary {
		keyCell, _ := excelize.CoordinatesToCellName(1, row)
		valCell, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheet, keyCell, pair[0])
		_ = f.SetCellValue(sheet, valCell, pair[1])
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 30) // order id
	_ = f.SetColWidth(sheet, "B", "C", 14) // number, outcome
	_ = f.SetColWidth(sheet, "D", "D", 12) // stage
	_ = f.SetColWidth(sheet, "E", "E", 48) // reason
	_ = f.SetColWidth(sheet, "F", "F", 20) // completed at

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"batch_id", report.BatchID.String(),
		"rows", len(report.Results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteCSV writes the same per-order rows as WriteXLSX in flat CSV form.
func (s *Service) WriteCSV(w io.Writer, report batch.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeaders); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for _, res := range report.Results {
		record := []string{
			res.OrderID,
			res.OrderName,
			string(res.Outcome),
			string(res.Stage),
			res.Reason,
			formatTime(res.CompletedAt),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}

	s.logger.Info("export.csv.ok",
		"batch_id", report.BatchID.String(),
		"rows", len(report.Results),
	)
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
