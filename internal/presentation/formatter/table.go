package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-biz-monitor/internal/util"
)

// maxNameWidth keeps long client names from blowing up the table.
const maxNameWidth = 40

type TableFormatter struct {
	headers []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers: recordHeaders,
	}
}

func (f *TableFormatter) Format(w io.Writer, report *Report) error {
	rows := make([][]string, 0, len(report.Records))
	for _, record := range report.Records {
		row := recordRow(record)
		row[2] = util.TruncateToWidth(row[2], maxNameWidth)
		rows = append(rows, row)
	}

	widths := f.calculateColumnWidths(rows)

	var b strings.Builder
	f.writeBorder(&b, widths, "top")
	f.writeRow(&b, f.headers, widths)
	f.writeBorder(&b, widths, "middle")

	urgentSeen := false
	for i, row := range rows {
		// Separate the urgent block from the rest
		if report.Records[i].Urgent {
			urgentSeen = true
		} else if urgentSeen {
			f.writeBorder(&b, widths, "middle")
			urgentSeen = false
		}
		f.writeRow(&b, row, widths)
	}

	f.writeBorder(&b, widths, "middle")
	total := fmt.Sprintf("Total: %s records, %s urgent (> %d days)",
		util.FormatNumber(len(report.Records)), util.FormatNumber(countUrgent(report.Records)), report.UrgentDays)
	f.writeSpanningRow(&b, total, widths)
	f.writeBorder(&b, widths, "bottom")

	_, err := io.WriteString(w, b.String())
	return err
}

// calculateColumnWidths determines the display width of each column
func (f *TableFormatter) calculateColumnWidths(rows [][]string) []int {
	widths := make([]int, len(f.headers))
	for i, header := range f.headers {
		widths[i] = util.GetDisplayWidth(header)
	}
	for _, row := range rows {
		for i, value := range row {
			if w := util.GetDisplayWidth(value); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func (f *TableFormatter) writeBorder(b *strings.Builder, widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	b.WriteString("\n")
}

func (f *TableFormatter) writeRow(b *strings.Builder, values []string, widths []int) {
	b.WriteString("│")
	for i, value := range values {
		b.WriteString(" ")
		b.WriteString(util.PadToWidth(value, widths[i], true))
		b.WriteString(" │")
	}
	b.WriteString("\n")
}

// writeSpanningRow writes text across the full table width.
func (f *TableFormatter) writeSpanningRow(b *strings.Builder, text string, widths []int) {
	inner := -3
	for _, width := range widths {
		inner += width + 3
	}
	b.WriteString("│ ")
	b.WriteString(util.PadToWidth(util.TruncateToWidth(text, inner), inner, true))
	b.WriteString(" │\n")
}
