package layout

import (
	"io"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/data/aggregator"
)

// DashboardData is everything one dashboard frame shows
type DashboardData struct {
	Summary    *aggregator.Summary
	Records    []model.ResolvedRecord // filtered and sorted for the view
	SortLabel  string
	KindLabel  string
	UrgentOnly bool
	LastReload time.Time
	FileCount  int
}

// LayoutParam carries rendering options
type LayoutParam struct {
	Sizer      *Sizer
	TimeFormat string // "24h" or "12h"
	Now        time.Time
}

// LayoutStrategy defines the interface for different layout rendering strategies
type LayoutStrategy interface {
	Render(w io.Writer, data *DashboardData, param LayoutParam)
	GetName() string
}

const (
	LayoutFull = iota
	LayoutMinimal
)

// GetLayoutStrategy returns the appropriate layout strategy based on the style
func GetLayoutStrategy(layoutStyle int) LayoutStrategy {
	strategies := map[int]LayoutStrategy{
		LayoutFull:    &FullLayoutStrategy{},
		LayoutMinimal: &MinimalLayoutStrategy{},
	}

	if strategy, exists := strategies[layoutStyle]; exists {
		return strategy
	}

	return &FullLayoutStrategy{}
}
