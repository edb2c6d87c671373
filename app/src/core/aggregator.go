package core

import (
	"context"
	"time"

	"amplification-report/app/src/domain"
	"amplification-report/app/src/infra"
)

// ReportAggregator runs the three stages of one amplification report:
// collect the per-process reports, print them, derive the ratio.
type ReportAggregator struct {
	template  ReportTemplate
	collector *Collector
	reporter  *Reporter
	logger    Logger
	now       func() time.Time
}

func NewReportAggregator(template ReportTemplate, collector *Collector, reporter *Reporter, logger Logger) *ReportAggregator {
	return &ReportAggregator{
		template:  template,
		collector: collector,
		reporter:  reporter,
		logger:    logger,
		now:       time.Now,
	}
}

// Run collects and reports processCount reports. Nothing is printed unless
// every report was read successfully.
func (a *ReportAggregator) Run(ctx context.Context, runID string, processCount int) (domain.Run, error) {
	table, err := a.collector.Collect(ctx, processCount)
	if err != nil {
		return domain.Run{}, err
	}

	amp, err := a.reporter.Write(table)
	if err != nil {
		return domain.Run{}, err
	}

	infra.SetAmplification(amp.Ratio)
	if a.logger != nil {
		a.logger.Printf(ctx, "amplification %s over %d processes", FormatFloat(amp.Ratio), processCount)
	}

	return domain.Run{
		ID:            runID,
		ProcessCount:  processCount,
		Template:      a.template.String(),
		Measurements:  table.Measurements(),
		Amplification: amp,
		CreatedAt:     a.now().UTC(),
	}, nil
}
