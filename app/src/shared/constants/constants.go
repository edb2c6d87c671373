package constants

import "time"

const (
	// TimeFormat defines the canonical timestamp format used across transports.
	TimeFormat = time.RFC3339Nano

	// DefaultReportTemplate is where the simulator writes per-process reports.
	DefaultReportTemplate = "output/MytestCountsMesh-part-{}"

	// ReportExtension is appended to every formatted report filename.
	ReportExtension = ".txt"

	// UnitSuffix trails measurement values in report files.
	UnitSuffix = "MB"
)
