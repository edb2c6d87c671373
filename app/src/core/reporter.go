package core

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"amplification-report/app/src/domain"
	"amplification-report/app/src/shared/constants"
)

// Reporter prints a measurement table followed by its amplification line.
type Reporter struct {
	out io.Writer
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Write prints every measurement in table order, then the PCDN / CDN line.
// Measurement lines are written even when the ratio cannot be computed.
func (r *Reporter) Write(table *domain.MeasurementTable) (domain.Amplification, error) {
	w := bufio.NewWriter(r.out)

	for _, m := range table.Measurements() {
		fmt.Fprintf(w, "%s : %s%s\n", m.Name, FormatFloat(m.Value), constants.UnitSuffix)
	}

	amp, err := ComputeAmplification(table)
	if err != nil {
		if flushErr := w.Flush(); flushErr != nil {
			return domain.Amplification{}, fmt.Errorf("write report: %w", flushErr)
		}
		return domain.Amplification{}, err
	}

	fmt.Fprintf(w, "%s / %s = %s / %s = %s\n",
		domain.AmplifiedKey, domain.BaselineKey,
		FormatFloat(amp.PCDN), FormatFloat(amp.CDN), FormatFloat(amp.Ratio))

	if err := w.Flush(); err != nil {
		return domain.Amplification{}, fmt.Errorf("write report: %w", err)
	}
	return amp, nil
}

// ComputeAmplification divides PCDN by CDN.
func ComputeAmplification(table *domain.MeasurementTable) (domain.Amplification, error) {
	pcdn, ok := table.Get(domain.AmplifiedKey)
	if !ok {
		return domain.Amplification{}, fmt.Errorf("%w: %s", domain.ErrMissingMeasurement, domain.AmplifiedKey)
	}
	cdn, ok := table.Get(domain.BaselineKey)
	if !ok {
		return domain.Amplification{}, fmt.Errorf("%w: %s", domain.ErrMissingMeasurement, domain.BaselineKey)
	}
	if cdn == 0 {
		return domain.Amplification{}, fmt.Errorf("%w: %s / %s", domain.ErrZeroBaseline, FormatFloat(pcdn), FormatFloat(cdn))
	}

	return domain.Amplification{PCDN: pcdn, CDN: cdn, Ratio: pcdn / cdn}, nil
}

// FormatFloat renders v with the shortest digits that round-trip. Integral
// values keep a ".0" and magnitudes outside [1e-4, 1e16) use exponent form,
// so 5 prints as "5.0", 0.25 as "0.25" and 1e16 as "1e+16".
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && v != 0 && (exp < -4 || exp >= 16) {
		return sci
	}

	fixed := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(fixed, '.') {
		fixed += ".0"
	}
	return fixed
}
