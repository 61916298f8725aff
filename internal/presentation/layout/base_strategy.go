package layout

import (
	"fmt"
	"strings"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/data/aggregator"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

// BaseStrategy provides common functionality for all layout strategies
type BaseStrategy struct {
}

func (b *BaseStrategy) sizer(param LayoutParam) *Sizer {
	if param.Sizer == nil {
		return NewSizer(defaultWidth, defaultHeight)
	}
	return param.Sizer
}

// SeparatorLine creates a separator line inside a box of width
func (b *BaseStrategy) SeparatorLine(width int) string {
	return "├" + strings.Repeat("─", width-2) + "┤"
}

// BoxLine pads content into "│ content │" of exactly width cells. Content
// may carry color codes; plain is its uncolored text used for measuring.
func (b *BaseStrategy) BoxLine(content, plain string, width int) string {
	inner := width - 4
	if util.GetDisplayWidth(plain) > inner {
		plain = util.TruncateToWidth(plain, inner)
		content = plain
	}
	padding := inner - util.GetDisplayWidth(plain)
	return "│ " + content + strings.Repeat(" ", padding) + " │"
}

// CenterText centers text within the given width
func (b *BaseStrategy) CenterText(text string, width int) string {
	padding := width - util.GetDisplayWidth(text)
	if padding <= 0 {
		return text
	}
	leftPad := padding / 2
	return strings.Repeat(" ", leftPad) + text + strings.Repeat(" ", padding-leftPad)
}

// FormatClock renders now in the configured 12h or 24h style
func (b *BaseStrategy) FormatClock(now time.Time, timeFormat string) string {
	if now.IsZero() {
		now = util.GetTimeProvider().Now()
	}
	if timeFormat == "12h" {
		return util.GetTimeProvider().Format(now, "3:04:05 PM")
	}
	return util.GetTimeProvider().Format(now, "15:04:05")
}

// KindCounts renders "Clients 12 (3!)  Invoices 4  Proposals 0"
func (b *BaseStrategy) KindCounts(summary *aggregator.Summary) string {
	if summary == nil {
		return ""
	}
	parts := make([]string, 0, len(summary.Kinds))
	for _, kind := range summary.Kinds {
		part := fmt.Sprintf("%s %s", kind.Kind.Plural(), util.FormatNumber(kind.Total))
		if kind.Urgent > 0 {
			part += fmt.Sprintf(" (%d!)", kind.Urgent)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "  ")
}

// StatusColor picks the row color for a record
func (b *BaseStrategy) StatusColor(r model.ResolvedRecord) string {
	switch {
	case r.Urgent:
		return util.ColorRed
	case r.CurrentStatus == model.StatusNotAvailable:
		return util.ColorGray
	default:
		return ""
	}
}
