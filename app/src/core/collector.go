package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"amplification-report/app/src/domain"
	"amplification-report/app/src/infra"
)

// MergeMode decides how a measurement name seen in several reports combines.
type MergeMode string

const (
	// MergeLast keeps the value from the highest process index that reported it.
	MergeLast MergeMode = "last"
	// MergeSum adds the values reported by every process.
	MergeSum MergeMode = "sum"
)

func ParseMergeMode(value string) (MergeMode, error) {
	switch mode := MergeMode(value); mode {
	case MergeLast, MergeSum:
		return mode, nil
	case "":
		return MergeLast, nil
	default:
		return "", fmt.Errorf("unknown merge mode %q (want last or sum)", value)
	}
}

func (m MergeMode) apply(table *domain.MeasurementTable, measurement domain.Measurement) {
	if m == MergeSum {
		table.Add(measurement.Name, measurement.Value)
		return
	}
	table.Set(measurement.Name, measurement.Value)
}

// Collector reads the per-process reports of one run into a measurement table.
type Collector struct {
	template ReportTemplate
	merge    MergeMode
	logger   Logger
}

func NewCollector(template ReportTemplate, merge MergeMode, logger Logger) *Collector {
	if merge == "" {
		merge = MergeLast
	}
	return &Collector{template: template, merge: merge, logger: logger}
}

// Collect reads reports 0..processCount-1 in order. Each file is closed before
// the next one is opened. The first missing file or malformed value aborts the
// collection.
func (c *Collector) Collect(ctx context.Context, processCount int) (*domain.MeasurementTable, error) {
	start := time.Now()
	defer func() {
		infra.ObserveCollect(time.Since(start))
	}()

	table := domain.NewMeasurementTable()
	for i := 0; i < processCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.collectFile(ctx, c.template.Filename(i), table); err != nil {
			return nil, err
		}
	}

	c.log(ctx, "collected %d measurements from %d report files", table.Len(), max(processCount, 0))
	return table, nil
}

func (c *Collector) collectFile(ctx context.Context, name string, table *domain.MeasurementTable) error {
	file, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w", domain.ErrReportNotFound, err)
		}
		return fmt.Errorf("open report: %w", err)
	}
	defer file.Close()

	infra.IncReportFiles()

	reader := bufio.NewReader(file)

	lineNo, parsed := 0, 0
	for {
		chunk, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read report %s: %w", name, readErr)
		}
		if chunk == "" && readErr != nil {
			break
		}

		for _, line := range splitReportLines(chunk) {
			lineNo++
			if err := ctx.Err(); err != nil {
				return err
			}

			measurement, ok, err := ParseLine(line)
			if err != nil {
				return fmt.Errorf("%s:%d: %w", name, lineNo, err)
			}
			if !ok {
				infra.IncSkippedLines()
				continue
			}

			infra.IncParsedLines()
			c.merge.apply(table, measurement)
			parsed++
		}

		if readErr != nil {
			break
		}
	}

	c.log(ctx, "report %s: %d measurements, %d lines", name, parsed, lineNo)
	return nil
}

// splitReportLines breaks a chunk read up to "\n" into lines. A lone "\r" also
// ends a line, "\r\n" counts once.
func splitReportLines(chunk string) []string {
	chunk = strings.TrimSuffix(chunk, "\n")
	chunk = strings.TrimSuffix(chunk, "\r")
	return strings.Split(chunk, "\r")
}

func (c *Collector) log(ctx context.Context, format string, v ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Printf(ctx, format, v...)
}
