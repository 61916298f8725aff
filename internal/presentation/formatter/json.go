package formatter

import (
	"io"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/data/aggregator"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

type jsonReport struct {
	GeneratedAt time.Time              `json:"generatedAt"`
	UrgentDays  int                    `json:"urgentDays"`
	Total       int                    `json:"total"`
	Urgent      int                    `json:"urgent"`
	Records     []model.ResolvedRecord `json:"records"`
	Summary     *aggregator.Summary    `json:"summary,omitempty"`
}

func (f *JSONFormatter) Format(w io.Writer, report *Report) error {
	records := report.Records
	if records == nil {
		records = []model.ResolvedRecord{}
	}

	data, err := sonic.ConfigStd.MarshalIndent(jsonReport{
		GeneratedAt: report.GeneratedAt,
		UrgentDays:  report.UrgentDays,
		Total:       len(records),
		Urgent:      countUrgent(records),
		Records:     records,
		Summary:     report.Summary,
	}, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
