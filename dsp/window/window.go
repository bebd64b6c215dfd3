// Package window generates the analysis windows used by the spectrum
// display.
package window

import "math"

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
)

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic selects the periodic form (FFT framing) instead of the
// symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	denom := float64(length - 1)
	if cfg.periodic {
		denom = float64(length)
	}

	out := make([]float64, length)
	for i := range out {
		x := 0.0
		if denom > 0 {
			x = float64(i) / denom
		}
		out[i] = eval(t, x)
	}

	return out
}

// CoherentGain returns the mean of the coefficients, used to normalize FFT
// magnitudes so a full-scale sine reads 0 dBFS.
func CoherentGain(w []float64) float64 {
	if len(w) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range w {
		sum += v
	}

	return sum / float64(len(w))
}

func eval(t Type, x float64) float64 {
	switch t {
	case TypeHann:
		return 0.5 - 0.5*math.Cos(2*math.Pi*x)
	case TypeHamming:
		return 0.54 - 0.46*math.Cos(2*math.Pi*x)
	case TypeBlackman:
		return 0.42 - 0.5*math.Cos(2*math.Pi*x) + 0.08*math.Cos(4*math.Pi*x)
	default:
		return 1
	}
}
