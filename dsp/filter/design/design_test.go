package design

import (
	"math"
	"testing"

	"github.com/dogaudio/dogaudio/dsp/filter/biquad"
)

const sampleRate = 48000.0

func TestPeakZeroGainIsIdentity(t *testing.T) {
	for _, f := range []float64{100, 300, 1000, 3000, 8000} {
		c := Peak(f, 0, 1, sampleRate)

		for _, probe := range []float64{50, f, 12000} {
			if got := c.MagnitudeDB(probe, sampleRate); math.Abs(got) > 1e-9 {
				t.Errorf("f0=%v probe=%v: magnitude %v dB, want 0", f, probe, got)
			}
		}
	}
}

func TestPeakGainAtCenter(t *testing.T) {
	tests := []struct {
		name   string
		freq   float64
		gainDB float64
	}{
		{"boost 100 Hz", 100, 6},
		{"boost 1 kHz", 1000, 12},
		{"cut 3 kHz", 3000, -9},
		{"max boost 8 kHz", 8000, 24},
		{"max cut 300 Hz", 300, -24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Peak(tt.freq, tt.gainDB, 1, sampleRate)

			got := c.MagnitudeDB(tt.freq, sampleRate)
			if math.Abs(got-tt.gainDB) > 0.01 {
				t.Errorf("magnitude at center = %v dB, want %v dB", got, tt.gainDB)
			}
		})
	}
}

func TestPeakFarFromCenterIsNearUnity(t *testing.T) {
	c := Peak(1000, 12, 1, sampleRate)

	// Two decades away the bell has decayed to well under half a dB.
	for _, f := range []float64{10, 20000} {
		if got := c.MagnitudeDB(f, sampleRate); math.Abs(got) > 0.5 {
			t.Errorf("f=%v: magnitude %v dB, want ~0", f, got)
		}
	}
}

func TestPeakStableAcrossAudibleRange(t *testing.T) {
	// Poles inside the unit circle <=> the impulse response decays.
	for _, f := range []float64{20, 100, 1000, 8000, 20000} {
		for _, g := range []float64{-24, -12, 12, 24} {
			s := biquad.NewSection(Peak(f, g, 1, sampleRate))

			ir := s.ImpulseResponse(48000)
			tail := ir[len(ir)-100:]

			for i, v := range tail {
				if math.Abs(v) > 1e-3 {
					t.Fatalf("f=%v g=%v: impulse response not decayed, tail[%d]=%v", f, g, i, v)
				}
			}
		}
	}
}

func TestPeakInvalidInputsYieldIdentity(t *testing.T) {
	identity := biquad.Identity()

	tests := []struct {
		name            string
		freq, gainDB, q float64
		sampleRate      float64
	}{
		{"zero freq", 0, 6, 1, sampleRate},
		{"negative freq", -100, 6, 1, sampleRate},
		{"freq at nyquist", sampleRate / 2, 6, 1, sampleRate},
		{"zero sample rate", 1000, 6, 1, 0},
		{"NaN gain", 1000, math.NaN(), 1, sampleRate},
		{"Inf gain", 1000, math.Inf(1), 1, sampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Peak(tt.freq, tt.gainDB, tt.q, tt.sampleRate); got != identity {
				t.Errorf("Peak(%v, %v, %v, %v) = %+v, want identity",
					tt.freq, tt.gainDB, tt.q, tt.sampleRate, got)
			}
		})
	}
}

func TestPeakNonPositiveQUsesDefault(t *testing.T) {
	want := Peak(1000, 6, defaultQ, sampleRate)

	for _, q := range []float64{0, -1, math.NaN()} {
		if got := Peak(1000, 6, q, sampleRate); got != want {
			t.Errorf("q=%v: got %+v, want default-Q design %+v", q, got, want)
		}
	}
}
