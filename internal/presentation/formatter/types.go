package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/data/aggregator"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

// Report is the input every formatter renders. Records are already in
// display order and limited.
type Report struct {
	GeneratedAt time.Time
	UrgentDays  int
	Records     []model.ResolvedRecord
	Summary     *aggregator.Summary
}

type Formatter interface {
	Format(w io.Writer, report *Report) error
}

const (
	FormatTable   = "table"
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatXLSX    = "xlsx"
	FormatSummary = "summary"
)

// SupportedFormats lists the accepted --output values.
var SupportedFormats = []string{FormatTable, FormatJSON, FormatCSV, FormatXLSX, FormatSummary}

// New returns the formatter for name. outFile is only used by the xlsx
// formatter; when empty the workbook is written to the report writer.
func New(name, outFile string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatTable:
		return NewTableFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatCSV:
		return NewCSVFormatter(), nil
	case FormatXLSX:
		return NewXLSXFormatter(outFile), nil
	case FormatSummary:
		return NewSummaryFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (supported: %s)", name, strings.Join(SupportedFormats, ", "))
	}
}

var recordHeaders = []string{"Kind", "ID", "Name", "Status", "Updated", "Age", "Urgent"}

// recordRow renders the columns shared by the table, csv and xlsx output.
func recordRow(r model.ResolvedRecord) []string {
	return []string{
		string(r.Kind),
		r.ID,
		r.DisplayName(),
		r.CurrentStatus,
		util.FormatDateTime(r.UpdatedAt.Time),
		ageLabel(r),
		urgentLabel(r.Urgent),
	}
}

func ageLabel(r model.ResolvedRecord) string {
	if !r.UpdatedAt.Known() {
		return "-"
	}
	return util.FormatAgeDays(r.AgeDays)
}

func urgentLabel(urgent bool) string {
	if urgent {
		return "yes"
	}
	return ""
}

func countUrgent(records []model.ResolvedRecord) int {
	n := 0
	for _, r := range records {
		if r.Urgent {
			n++
		}
	}
	return n
}
