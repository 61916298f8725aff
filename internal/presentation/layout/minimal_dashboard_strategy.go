package layout

import (
	"fmt"
	"io"

	"github.com/penwyp/go-biz-monitor/internal/util"
)

// MinimalLayoutStrategy implements the single-line dashboard layout
type MinimalLayoutStrategy struct {
	BaseStrategy
}

func (s *MinimalLayoutStrategy) GetName() string {
	return "Minimal Dashboard"
}

func (s *MinimalLayoutStrategy) Render(w io.Writer, data *DashboardData, param LayoutParam) {
	urgent, total := 0, 0
	if data.Summary != nil {
		urgent, total = data.Summary.Urgent, data.Summary.Total
	}

	next := "-"
	for _, r := range data.Records {
		if r.Urgent {
			next = fmt.Sprintf("%s (%s)", r.DisplayName(), util.FormatAgeDays(r.AgeDays))
			break
		}
	}

	line := fmt.Sprintf("Biz: %s | urgent %d/%d | next: %s | %s",
		s.KindCounts(data.Summary),
		urgent, total,
		next,
		s.FormatClock(param.Now, param.TimeFormat))

	width := s.sizer(param).GetMaxWidth()
	_, _ = fmt.Fprintln(w, util.TruncateToWidth(line, width))
}
