// Package units converts the raw integers stored by the pond sensors into the
// quantities shown on the status page. Every function is total: negative and
// zero inputs are converted like any other value.
package units

import "math"

const (
	hundredths      = 100
	humidityDivisor = 1024
)

// TemperatureF converts hundredths of a degree Fahrenheit to degrees.
func TemperatureF(raw int) float64 {
	return float64(raw) / hundredths
}

// HumidityPercent converts the scaled humidity reading to a whole percentage.
// Halves round away from zero (512 -> 1, 1536 -> 2, -512 -> -1).
func HumidityPercent(raw int) int {
	return int(math.Round(float64(raw) / humidityDivisor))
}

func UVIndex(raw int) float64 {
	return float64(raw) / hundredths
}

// Length converts hundredths of an inch to inches. Used for lane depth and length.
func Length(raw int) float64 {
	return float64(raw) / hundredths
}
