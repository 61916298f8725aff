package top

import (
	"fmt"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/constants"
	"github.com/penwyp/go-biz-monitor/internal/core/timeline"
)

// TopConfig contains configuration for the top command
type TopConfig struct {
	// Data directories
	DataDir  string
	CacheDir string

	// Urgency threshold in days
	UrgentDays int

	// Display settings
	Timezone   string
	TimeFormat string

	// Refresh settings
	DataRefreshInterval time.Duration
	UIRefreshRate       float64

	// Performance settings
	Concurrency int
}

// Validate fills defaults and rejects values the dashboard cannot run with
func (c *TopConfig) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.CacheDir == "" {
		c.CacheDir = "~/.go-biz-monitor/cache"
	}
	if err := timeline.ValidateUrgentDays(c.UrgentDays); err != nil {
		return err
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "24h"
	}
	if c.TimeFormat != "24h" && c.TimeFormat != "12h" {
		return fmt.Errorf("time format must be 12h or 24h, got %q", c.TimeFormat)
	}
	if c.DataRefreshInterval <= 0 {
		c.DataRefreshInterval = constants.DefaultDataRefreshInterval
	}
	if c.UIRefreshRate <= 0 {
		c.UIRefreshRate = constants.DefaultUIRefreshRate
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return nil
}

// UIInterval converts the refresh rate (frames per second) into a tick
func (c *TopConfig) UIInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.UIRefreshRate)
}
