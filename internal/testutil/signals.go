// Package testutil provides deterministic test signals and tolerance helpers
// shared by the DSP package tests.
package testutil

import (
	"math"
	"math/rand"
)

// Sine generates a deterministic sine wave.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Noise generates white noise with a fixed seed for reproducibility.
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// ToneBurst generates silence followed by a sine burst, the shape gate and
// envelope tests need: the transition point is at sample silenceLen.
func ToneBurst(freqHz, sampleRate, amplitude float64, silenceLen, toneLen int) []float64 {
	out := make([]float64, silenceLen+toneLen)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := 0; i < toneLen; i++ {
		out[silenceLen+i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Peak returns the largest absolute sample value.
func Peak(data []float64) float64 {
	peak := 0.0
	for _, v := range data {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// PeakDB returns the largest absolute sample value in dBFS, or -Inf for
// silence.
func PeakDB(data []float64) float64 {
	return 20 * math.Log10(Peak(data))
}
