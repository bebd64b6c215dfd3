// Package eq implements a fixed five-band peaking equalizer for voice
// cleanup. The bands sit at 100, 300, 1000, 3000 and 8000 Hz with Q=1 and are
// applied in series from lowest to highest frequency.
package eq

import (
	"errors"
	"fmt"

	"github.com/dogaudio/dogaudio/dsp/core"
	"github.com/dogaudio/dogaudio/dsp/filter/biquad"
	"github.com/dogaudio/dogaudio/dsp/filter/design"
)

// NumBands is the number of equalizer bands.
const NumBands = 5

// BandFrequencies lists the fixed center frequencies in Hz, low to high.
var BandFrequencies = [NumBands]float64{100, 300, 1000, 3000, 8000}

const (
	bandQ = 1.0

	// MinGainDB and MaxGainDB bound each band's gain.
	MinGainDB = -24.0
	MaxGainDB = 24.0
)

var (
	ErrBandIndex  = errors.New("eq: band index out of range")
	ErrGainRange  = errors.New("eq: band gain out of range")
	ErrNotFinite  = errors.New("eq: band gain must be finite")
	ErrSampleRate = errors.New("eq: sample rate must be positive")
)

// GraphicEQ is a serial cascade of peaking biquads, one per band. Changing a
// band's gain swaps that section's coefficients without touching its delay
// state, so gains can be adjusted while audio is running.
type GraphicEQ struct {
	sampleRate float64
	gains      [NumBands]float64
	sections   [NumBands]biquad.Section
}

// New creates a flat (0 dB everywhere) equalizer at the given sample rate.
func New(sampleRate float64) (*GraphicEQ, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, ErrSampleRate
	}

	g := &GraphicEQ{sampleRate: sampleRate}
	for i := range g.sections {
		g.sections[i].SetCoefficients(biquad.Identity())
	}

	return g, nil
}

// SampleRate returns the sample rate the band filters are designed for.
func (g *GraphicEQ) SampleRate() float64 { return g.sampleRate }

// SetBandGain sets one band's gain in dB. The band's filter state is
// preserved across the coefficient swap.
func (g *GraphicEQ) SetBandGain(band int, gainDB float64) error {
	if band < 0 || band >= NumBands {
		return fmt.Errorf("%w: %d", ErrBandIndex, band)
	}

	if !core.IsFinite(gainDB) {
		return ErrNotFinite
	}

	if gainDB < MinGainDB || gainDB > MaxGainDB {
		return fmt.Errorf("%w: %g dB", ErrGainRange, gainDB)
	}

	// An unchanged gain keeps the cached coefficients; the chain re-applies
	// every band on each settings snapshot.
	if core.NearlyEqual(gainDB, g.gains[band], 0) {
		return nil
	}

	g.gains[band] = gainDB
	g.sections[band].SetCoefficients(design.Peak(BandFrequencies[band], gainDB, bandQ, g.sampleRate))

	return nil
}

// SetGains sets all band gains at once.
func (g *GraphicEQ) SetGains(gainsDB [NumBands]float64) error {
	for i, gain := range gainsDB {
		if err := g.SetBandGain(i, gain); err != nil {
			return err
		}
	}

	return nil
}

// BandGain returns one band's gain in dB.
func (g *GraphicEQ) BandGain(band int) float64 {
	if band < 0 || band >= NumBands {
		return 0
	}

	return g.gains[band]
}

// Gains returns all band gains in dB, low band first.
func (g *GraphicEQ) Gains() [NumBands]float64 { return g.gains }

// ProcessSample runs one sample through all bands in series.
func (g *GraphicEQ) ProcessSample(x float64) float64 {
	for i := range g.sections {
		x = g.sections[i].ProcessSample(x)
	}

	return x
}

// ProcessBlock filters buf in place.
func (g *GraphicEQ) ProcessBlock(buf []float64) {
	for i := range g.sections {
		g.sections[i].ProcessBlock(buf)
	}
}

// Reset clears all band filter states. Gains are unaffected.
func (g *GraphicEQ) Reset() {
	for i := range g.sections {
		g.sections[i].Reset()
	}
}

// MagnitudeDB returns the combined equalizer response in dB at a frequency.
// Sections are in series so the responses add in dB.
func (g *GraphicEQ) MagnitudeDB(freqHz float64) float64 {
	sum := 0.0
	for i := range g.sections {
		c := g.sections[i].Coefficients
		sum += c.MagnitudeDB(freqHz, g.sampleRate)
	}

	return sum
}
