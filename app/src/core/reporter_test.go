package core

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"amplification-report/app/src/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableOf(entries ...domain.Measurement) *domain.MeasurementTable {
	table := domain.NewMeasurementTable()
	for _, e := range entries {
		table.Set(e.Name, e.Value)
	}
	return table
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{5, "5.0"},
		{20, "20.0"},
		{0.25, "0.25"},
		{0, "0.0"},
		{math.Copysign(0, -1), "-0.0"},
		{-3.5, "-3.5"},
		{0.1 + 0.2, "0.30000000000000004"},
		{1.0 / 3.0, "0.3333333333333333"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{1.5e-7, "1.5e-07"},
		{123456789, "123456789.0"},
		{1e15, "1000000000000000.0"},
		{1e16, "1e+16"},
		{2.5e20, "2.5e+20"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "nan"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatFloat(tc.in), "%v", tc.in)
	}
}

func TestReporterWritesMeasurementsAndRatio(t *testing.T) {
	var out bytes.Buffer
	table := tableOf(domain.Measurement{Name: "CDN", Value: 20}, domain.Measurement{Name: "PCDN", Value: 5})

	amp, err := NewReporter(&out).Write(table)
	require.NoError(t, err)

	assert.Equal(t, "CDN : 20.0MB\nPCDN : 5.0MB\nPCDN / CDN = 5.0 / 20.0 = 0.25\n", out.String())
	assert.Equal(t, domain.Amplification{PCDN: 5, CDN: 20, Ratio: 0.25}, amp)
}

func TestReporterMissingBaseline(t *testing.T) {
	var out bytes.Buffer
	table := tableOf(domain.Measurement{Name: "PCDN", Value: 5})

	_, err := NewReporter(&out).Write(table)

	assert.ErrorIs(t, err, domain.ErrMissingMeasurement)
	assert.Contains(t, err.Error(), "CDN")
	assert.Equal(t, "PCDN : 5.0MB\n", out.String())
}

func TestComputeAmplificationMissingAmplified(t *testing.T) {
	_, err := ComputeAmplification(tableOf(domain.Measurement{Name: "CDN", Value: 5}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingMeasurement))
	assert.Contains(t, err.Error(), "PCDN")
}

func TestComputeAmplificationZeroBaseline(t *testing.T) {
	var out bytes.Buffer
	table := tableOf(domain.Measurement{Name: "CDN", Value: 0}, domain.Measurement{Name: "PCDN", Value: 5})

	_, err := NewReporter(&out).Write(table)

	assert.ErrorIs(t, err, domain.ErrZeroBaseline)
	assert.NotContains(t, out.String(), "PCDN / CDN")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed pipe")
}

func TestReporterPropagatesWriteErrors(t *testing.T) {
	table := tableOf(domain.Measurement{Name: "CDN", Value: 1}, domain.Measurement{Name: "PCDN", Value: 2})

	_, err := NewReporter(failingWriter{}).Write(table)
	assert.ErrorContains(t, err, "closed pipe")
}
