package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-biz-monitor/internal/data/aggregator"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

// SummaryFormatter renders the dashboard overview: totals per kind, the
// status distribution and the records that need attention.
type SummaryFormatter struct{}

func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

func (f *SummaryFormatter) Format(w io.Writer, report *Report) error {
	summary := report.Summary
	if summary == nil {
		summary = aggregator.Summarize(report.Records, report.UrgentDays, report.GeneratedAt)
	}

	var b strings.Builder
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString("Business Records Summary Report\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	fmt.Fprintf(&b, "Generated: %s\n", util.FormatDateTime(summary.GeneratedAt))
	fmt.Fprintf(&b, "Urgent after: %d days without progress\n\n", summary.UrgentDays)

	if summary.Total == 0 {
		b.WriteString("No records to summarize\n\n")
		b.WriteString(strings.Repeat("=", 60) + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("Records:\n")
	for _, kind := range summary.Kinds {
		fmt.Fprintf(&b, "  %s %s  (%s urgent)\n",
			util.PadToWidth(kind.Kind.Plural()+":", 12, true),
			util.PadToWidth(util.FormatNumber(kind.Total), 6, false),
			util.FormatNumber(kind.Urgent))
	}
	fmt.Fprintf(&b, "  %s %s  (%s urgent, %s)\n\n",
		util.PadToWidth("Total:", 12, true),
		util.PadToWidth(util.FormatNumber(summary.Total), 6, false),
		util.FormatNumber(summary.Urgent),
		util.FormatPercent(summary.Urgent, summary.Total))

	b.WriteString("Status Distribution:\n")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	for _, status := range summary.Statuses {
		fmt.Fprintf(&b, "  %s %s  %s\n",
			util.PadToWidth(util.TruncateToWidth(status.Status, 28), 28, true),
			util.PadToWidth(util.FormatNumber(status.Count), 6, false),
			util.FormatPercent(status.Count, summary.Total))
	}
	b.WriteString("\n")

	if summary.OldestUrgent != nil {
		fmt.Fprintf(&b, "Oldest urgent: %s (%s, %s, %s)\n\n",
			summary.OldestUrgent.DisplayName(),
			summary.OldestUrgent.Kind,
			summary.OldestUrgent.CurrentStatus,
			util.FormatAgeDays(summary.OldestUrgent.AgeDays))
	}

	b.WriteString("Needs Attention:\n")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	listed := 0
	for _, r := range report.Records {
		if !r.Urgent {
			continue
		}
		listed++
		fmt.Fprintf(&b, "  %2d. %s %s %s\n", listed,
			util.PadToWidth(util.TruncateToWidth(r.DisplayName(), 30), 30, true),
			util.PadToWidth(util.TruncateToWidth(r.CurrentStatus, 16), 16, true),
			util.FormatAgeDays(r.AgeDays))
	}
	if listed == 0 {
		b.WriteString("  Nothing urgent\n")
	}

	b.WriteString("\n" + strings.Repeat("=", 60) + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}
