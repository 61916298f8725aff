package formatter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

const (
	recordsSheet = "Records"
	summarySheet = "Summary"
)

// XLSXFormatter writes a workbook with a Records sheet (urgent rows
// highlighted) and a Summary sheet with per-kind totals.
type XLSXFormatter struct {
	outFile string
}

func NewXLSXFormatter(outFile string) *XLSXFormatter {
	return &XLSXFormatter{outFile: outFile}
}

func (f *XLSXFormatter) Format(w io.Writer, report *Report) error {
	book := excelize.NewFile()
	defer func() {
		if err := book.Close(); err != nil {
			util.LogDebug(fmt.Sprintf("Failed to close workbook: %v", err))
		}
	}()

	if err := book.SetSheetName("Sheet1", recordsSheet); err != nil {
		return err
	}
	if err := f.writeRecords(book, report.Records); err != nil {
		return fmt.Errorf("failed to write records sheet: %w", err)
	}
	if report.Summary != nil {
		if err := f.writeSummary(book, report); err != nil {
			return fmt.Errorf("failed to write summary sheet: %w", err)
		}
	}

	if f.outFile != "" {
		if err := book.SaveAs(f.outFile); err != nil {
			return fmt.Errorf("failed to save %s: %w", f.outFile, err)
		}
		_, err := fmt.Fprintf(w, "Wrote %d records to %s\n", len(report.Records), f.outFile)
		return err
	}
	return book.Write(w)
}

func (f *XLSXFormatter) writeRecords(book *excelize.File, records []model.ResolvedRecord) error {
	headers := []interface{}{"Kind", "ID", "Name", "Status", "Updated At", "Age (days)", "Urgent"}
	if err := book.SetSheetRow(recordsSheet, "A1", &headers); err != nil {
		return err
	}

	headerStyle, err := book.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	if err := book.SetCellStyle(recordsSheet, "A1", "G1", headerStyle); err != nil {
		return err
	}

	urgentStyle, err := book.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#9C0006"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for i, r := range records {
		row := i + 2
		updated, age := "", ""
		if r.UpdatedAt.Known() {
			updated = util.FormatDateTime(r.UpdatedAt.Time)
			age = fmt.Sprintf("%.1f", r.AgeDays)
		}
		values := []interface{}{string(r.Kind), r.ID, r.DisplayName(), r.CurrentStatus, updated, age, urgentLabel(r.Urgent)}

		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := book.SetSheetRow(recordsSheet, cell, &values); err != nil {
			return err
		}
		if r.Urgent {
			last, _ := excelize.CoordinatesToCellName(len(values), row)
			if err := book.SetCellStyle(recordsSheet, cell, last, urgentStyle); err != nil {
				return err
			}
		}
	}

	widths := map[string]float64{"A": 10, "B": 26, "C": 32, "D": 22, "E": 18, "F": 11, "G": 8}
	for col, width := range widths {
		if err := book.SetColWidth(recordsSheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func (f *XLSXFormatter) writeSummary(book *excelize.File, report *Report) error {
	if _, err := book.NewSheet(summarySheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Kind", "Total", "Urgent"},
	}
	for _, kind := range report.Summary.Kinds {
		rows = append(rows, []interface{}{kind.Kind.Plural(), kind.Total, kind.Urgent})
	}
	rows = append(rows, []interface{}{"All", report.Summary.Total, report.Summary.Urgent})
	rows = append(rows, []interface{}{})
	rows = append(rows, []interface{}{"Status", "Count", "Urgent"})
	for _, status := range report.Summary.Statuses {
		rows = append(rows, []interface{}{status.Status, status.Count, status.Urgent})
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := book.SetSheetRow(summarySheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return book.SetColWidth(summarySheet, "A", "A", 24)
}
