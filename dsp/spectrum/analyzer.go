package spectrum

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/dogaudio/dogaudio/dsp/core"
	"github.com/dogaudio/dogaudio/dsp/window"
)

const (
	// MinDB is the analyzer's display floor.
	MinDB = -130.0

	eps = 1e-12
)

// Analyzer maintains a running FFT magnitude spectrum over a sample stream.
// Samples are pushed into a ring buffer; every hop a windowed frame is
// transformed and folded into an exponentially smoothed dB curve.
//
// Single-threaded: Push and CurveDB belong to the same goroutine.
type Analyzer struct {
	sampleRate float64
	fftSize    int
	hop        int
	smoothing  float64

	plan       *algofft.Plan[complex128]
	win        []float64
	winGain    float64
	ring       []float64
	frameIn    []complex128
	frameOut   []complex128
	db         []float64
	write      int
	filled     int
	toHop      int
	haveFrame  bool
}

// NewAnalyzer creates an analyzer. fftSize must be a power of two; hop is
// the sample distance between frames; smoothing in [0, 1) blends each new
// frame into the previous curve (0 disables smoothing).
func NewAnalyzer(sampleRate float64, fftSize, hop int, smoothing float64) (*Analyzer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("spectrum: sample rate must be positive: %f", sampleRate)
	}
	if fftSize <= 0 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("spectrum: fft size must be a power of two: %d", fftSize)
	}
	if hop < 1 || hop > fftSize {
		return nil, fmt.Errorf("spectrum: hop must be in [1, %d]: %d", fftSize, hop)
	}
	if smoothing < 0 || smoothing >= 1 {
		return nil, fmt.Errorf("spectrum: smoothing must be in [0, 1): %f", smoothing)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectrum: fft plan: %w", err)
	}

	win := window.Generate(window.TypeHann, fftSize, window.WithPeriodic())

	a := &Analyzer{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		hop:        hop,
		smoothing:  smoothing,
		plan:       plan,
		win:        win,
		winGain:    window.CoherentGain(win),
		ring:       make([]float64, fftSize),
		frameIn:    make([]complex128, fftSize),
		frameOut:   make([]complex128, fftSize),
		db:         make([]float64, fftSize/2+1),
	}

	for i := range a.db {
		a.db[i] = MinDB
	}

	return a, nil
}

// Push feeds a block of samples into the analyzer.
func (a *Analyzer) Push(buf []float64) {
	for _, x := range buf {
		a.ring[a.write] = x

		a.write++
		if a.write >= a.fftSize {
			a.write = 0
		}

		if a.filled < a.fftSize {
			a.filled++
		}

		a.toHop++
		if a.filled >= a.fftSize && a.toHop >= a.hop {
			a.toHop = 0
			a.updateFrame()
		}
	}
}

// Ready reports whether at least one full frame has been analyzed.
func (a *Analyzer) Ready() bool { return a.haveFrame }

// BinDB returns the current smoothed dBFS values, one per bin from DC to
// Nyquist. The slice is owned by the analyzer.
func (a *Analyzer) BinDB() []float64 { return a.db }

// CurveDB interpolates the current spectrum at the given frequencies.
func (a *Analyzer) CurveDB(freqs []float64) []float64 {
	out := make([]float64, len(freqs))
	if !a.haveFrame {
		for i := range out {
			out[i] = MinDB
		}

		return out
	}

	nyquist := a.sampleRate / 2
	binHz := a.sampleRate / float64(a.fftSize)
	last := len(a.db) - 1

	for i, f := range freqs {
		f = core.Clamp(f, 0, nyquist)

		bin := f / binHz
		if bin <= 0 {
			out[i] = a.db[0]

			continue
		}
		if bin >= float64(last) {
			out[i] = a.db[last]

			continue
		}

		base := int(bin)
		frac := bin - float64(base)
		out[i] = a.db[base] + frac*(a.db[base+1]-a.db[base])
	}

	return out
}

// Reset clears the ring buffer and the smoothed curve.
func (a *Analyzer) Reset() {
	core.Zero(a.ring)
	for i := range a.db {
		a.db[i] = MinDB
	}
	a.write = 0
	a.filled = 0
	a.toHop = 0
	a.haveFrame = false
}

func (a *Analyzer) updateFrame() {
	read := a.write
	for i := 0; i < a.fftSize; i++ {
		a.frameIn[i] = complex(a.ring[read]*a.win[i], 0)

		read++
		if read >= a.fftSize {
			read = 0
		}
	}

	if err := a.plan.Forward(a.frameOut, a.frameIn); err != nil {
		return
	}

	mags := Magnitude(a.frameOut[:len(a.db)])
	norm := float64(a.fftSize) * math.Max(a.winGain, eps)
	last := len(a.db) - 1

	for k, mag := range mags {
		mag /= norm
		if k > 0 && k < last {
			// Fold the negative-frequency half into the displayed bin.
			mag *= 2
		}

		valDB := 20 * math.Log10(math.Max(eps, mag))
		if valDB < MinDB {
			valDB = MinDB
		}

		if !a.haveFrame {
			a.db[k] = valDB

			continue
		}

		a.db[k] = a.smoothing*a.db[k] + (1-a.smoothing)*valDB
	}

	a.haveFrame = true
}
