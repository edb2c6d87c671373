package domain

import "time"

const (
	// AmplifiedKey is the numerator of the amplification ratio.
	AmplifiedKey = "PCDN"
	// BaselineKey is the denominator of the amplification ratio.
	BaselineKey = "CDN"
)

// Amplification is the PCDN/CDN ratio computed from a measurement table.
type Amplification struct {
	PCDN  float64
	CDN   float64
	Ratio float64
}

// Run is the recorded outcome of one successful aggregation.
type Run struct {
	ID            string
	ProcessCount  int
	Template      string
	Measurements  []Measurement
	Amplification Amplification
	CreatedAt     time.Time
}
