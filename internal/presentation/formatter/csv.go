package formatter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/penwyp/go-biz-monitor/internal/util"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Format writes one row per record. Dates are full RFC3339 timestamps and ages
// are fractional days so the output can be re-sorted by spreadsheet tools.
func (f *CSVFormatter) Format(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)

	headers := []string{"Kind", "ID", "Name", "Status", "Updated At", "Age (days)", "Urgent"}
	if err := cw.Write(headers); err != nil {
		return err
	}

	for _, r := range report.Records {
		updated, age := "", ""
		if r.UpdatedAt.Known() {
			updated = util.GetTimeProvider().Format(r.UpdatedAt.Time, "2006-01-02T15:04:05Z07:00")
			age = fmt.Sprintf("%.2f", r.AgeDays)
		}
		record := []string{
			string(r.Kind),
			r.ID,
			r.DisplayName(),
			r.CurrentStatus,
			updated,
			age,
			fmt.Sprintf("%t", r.Urgent),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
