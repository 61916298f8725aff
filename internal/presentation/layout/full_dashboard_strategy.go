package layout

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-biz-monitor/internal/util"
)

// FullLayoutStrategy implements the full dashboard layout
type FullLayoutStrategy struct {
	BaseStrategy
}

func (s *FullLayoutStrategy) GetName() string {
	return "Full Dashboard"
}

// fullReservedLines counts every line drawn besides list rows, including the
// "more" line
const fullReservedLines = 13

func (s *FullLayoutStrategy) Render(w io.Writer, data *DashboardData, param LayoutParam) {
	sizer := s.sizer(param)
	width := sizer.GetMaxWidth()

	var b strings.Builder
	b.WriteString("╭" + strings.Repeat("─", width-2) + "╮\n")
	s.header(&b, data, param, width)
	b.WriteString(s.SeparatorLine(width) + "\n")
	s.totals(&b, data, width)
	b.WriteString(s.SeparatorLine(width) + "\n")
	s.recordList(&b, data, width, sizer.RowBudget(fullReservedLines))
	b.WriteString(s.SeparatorLine(width) + "\n")
	s.footer(&b, data, width)
	b.WriteString("╰" + strings.Repeat("─", width-2) + "╯\n")

	_, _ = io.WriteString(w, b.String())
}

func (s *FullLayoutStrategy) header(b *strings.Builder, data *DashboardData, param LayoutParam, width int) {
	title := "BIZ MONITOR"
	clock := s.FormatClock(param.Now, param.TimeFormat)
	gap := width - 4 - util.GetDisplayWidth(title) - util.GetDisplayWidth(clock)
	if gap < 1 {
		gap = 1
	}
	plain := title + strings.Repeat(" ", gap) + clock
	colored := util.FormatHeaderTitle(title) + strings.Repeat(" ", gap) + clock
	b.WriteString(s.BoxLine(colored, plain, width) + "\n")
}

func (s *FullLayoutStrategy) totals(b *strings.Builder, data *DashboardData, width int) {
	counts := s.KindCounts(data.Summary)
	b.WriteString(s.BoxLine(counts, counts, width) + "\n")

	urgent, total, days := 0, 0, 0
	if data.Summary != nil {
		urgent, total, days = data.Summary.Urgent, data.Summary.Total, data.Summary.UrgentDays
	}
	line := fmt.Sprintf("Urgent: %d of %d (%s)   threshold: > %d days", urgent, total, util.FormatPercent(urgent, total), days)
	colored := line
	if urgent > 0 {
		colored = strings.Replace(line, fmt.Sprintf("Urgent: %d", urgent), util.Colorize(fmt.Sprintf("Urgent: %d", urgent), util.ColorRed), 1)
	}
	b.WriteString(s.BoxLine(colored, line, width) + "\n")

	if data.Summary != nil && data.Summary.OldestUrgent != nil {
		oldest := data.Summary.OldestUrgent
		line = fmt.Sprintf("Oldest urgent: %s (%s, %s)", oldest.DisplayName(), oldest.CurrentStatus, util.FormatAgeDays(oldest.AgeDays))
	} else {
		line = "Oldest urgent: -"
	}
	b.WriteString(s.BoxLine(line, line, width) + "\n")
}

// column widths: marker, kind, name, status, updated, age
func (s *FullLayoutStrategy) columns(width int) []int {
	fixed := []int{1, 8, 0, 18, 16, 9}
	used := 4 + len(fixed) - 1
	for _, w := range fixed {
		used += w
	}
	nameWidth := width - used
	if nameWidth < 10 {
		nameWidth = 10
	}
	fixed[2] = nameWidth
	return fixed
}

func (s *FullLayoutStrategy) row(values []string, widths []int) string {
	cells := make([]string, len(values))
	for i, value := range values {
		cells[i] = util.PadToWidth(util.TruncateToWidth(value, widths[i]), widths[i], true)
	}
	return strings.Join(cells, " ")
}

func (s *FullLayoutStrategy) recordList(b *strings.Builder, data *DashboardData, width, budget int) {
	widths := s.columns(width)
	heading := fmt.Sprintf("%s  sort: %s", data.KindLabel, data.SortLabel)
	if data.UrgentOnly {
		heading += "  [urgent only]"
	}
	b.WriteString(s.BoxLine(util.FormatDataTitle(heading), heading, width) + "\n")

	header := s.row([]string{"", "Kind", "Name", "Status", "Updated", "Age"}, widths)
	b.WriteString(s.BoxLine(util.Colorize(header, util.ColorBold), header, width) + "\n")

	if len(data.Records) == 0 {
		b.WriteString(s.BoxLine("No records", "No records", width) + "\n")
		return
	}

	shown := data.Records
	if len(shown) > budget {
		shown = shown[:budget]
	}
	for _, r := range shown {
		marker := ""
		if r.Urgent {
			marker = "!"
		}
		age := "-"
		if r.UpdatedAt.Known() {
			age = util.FormatAgeDays(r.AgeDays)
		}
		plain := s.row([]string{marker, string(r.Kind), r.DisplayName(), r.CurrentStatus,
			util.FormatDateTime(r.UpdatedAt.Time), age}, widths)
		colored := plain
		if color := s.StatusColor(r); color != "" {
			colored = util.Colorize(plain, color)
		}
		b.WriteString(s.BoxLine(colored, plain, width) + "\n")
	}
	if hidden := len(data.Records) - len(shown); hidden > 0 {
		more := fmt.Sprintf("… %d more", hidden)
		b.WriteString(s.BoxLine(more, more, width) + "\n")
	}
}

func (s *FullLayoutStrategy) footer(b *strings.Builder, data *DashboardData, width int) {
	reload := "-"
	if !data.LastReload.IsZero() {
		reload = util.GetTimeProvider().Format(data.LastReload, "15:04:05")
	}
	line := fmt.Sprintf("%d files, reloaded %s   q quit  s sort  u urgent  k kind  r reload  h help",
		data.FileCount, reload)
	b.WriteString(s.BoxLine(line, line, width) + "\n")
}
