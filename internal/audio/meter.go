package audio

import (
	"sync"

	"github.com/dogaudio/dogaudio/dsp/spectrum"
)

const (
	meterFFTSize   = 2048
	meterHop       = 1024
	meterSmoothing = 0.7
)

// meter wraps the spectrum analyzer with a mutex so the audio goroutine can
// push processed samples while the UI goroutine reads the curve.
type meter struct {
	mu sync.Mutex
	an *spectrum.Analyzer
}

func newMeter(sampleRate float64) (*meter, error) {
	an, err := spectrum.NewAnalyzer(sampleRate, meterFFTSize, meterHop, meterSmoothing)
	if err != nil {
		return nil, err
	}

	return &meter{an: an}, nil
}

func (m *meter) push(buf []float64) {
	m.mu.Lock()
	m.an.Push(buf)
	m.mu.Unlock()
}

func (m *meter) curveDB(freqs []float64) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.an.CurveDB(freqs)
}

func (m *meter) reset() {
	m.mu.Lock()
	m.an.Reset()
	m.mu.Unlock()
}
