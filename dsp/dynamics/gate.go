// Package dynamics implements the hysteresis noise gate / downward expander
// used to suppress room noise between speech.
package dynamics

import (
	"fmt"
	"math"

	"github.com/dogaudio/dogaudio/dsp/core"
)

// Mode selects the gain law applied while the gate is closed.
type Mode int

const (
	// ModeExpander attenuates gradually: every dB the level falls below the
	// close threshold adds Ratio dB of attenuation, down to the floor.
	ModeExpander Mode = iota

	// ModeGate drops straight to the floor while closed.
	ModeGate
)

func (m Mode) String() string {
	switch m {
	case ModeExpander:
		return "expander"
	case ModeGate:
		return "gate"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

const (
	// Default parameters, tuned for speech recorded in a quiet room.
	defaultOpenThresholdDB  = -42.0
	defaultCloseThresholdDB = -48.0
	defaultFloorDB          = -40.0
	defaultRatio            = 4.0

	// Parameter validation ranges.
	minThresholdDB = -120.0
	maxThresholdDB = 0.0
	minRatio       = 1.0
	maxRatio       = 100.0
	minFloorDB     = -120.0 // or -Inf for a full mute
	maxFloorDB     = 0.0

	// Envelope follower time constants.
	attackSeconds  = 0.003
	releaseSeconds = 0.120

	// One-pole smoothing applied to the gain itself. Opening is faster than
	// closing so speech onsets are not clipped.
	openSmoothing  = 0.1
	closeSmoothing = 0.02

	// Envelope values below this are treated as silence before the dB
	// conversion.
	envelopeFloor = 1e-8
)

// Metrics holds metering information for the tuner display.
type Metrics struct {
	InputPeak  float64 // maximum input magnitude since last reset
	OutputPeak float64 // maximum output magnitude since last reset
	MinGain    float64 // deepest attenuation (linear) since last reset
}

// Gate is a noise gate with two thresholds forming a hysteresis band: the
// level must rise above the open threshold to open the gate and fall below
// the close threshold to close it. A level between the two holds the current
// state, which prevents chattering on signals that hover near a single
// threshold.
//
// While open the gate is unity. While closed the gain follows the configured
// [Mode], with the output level clamped to never fall below the floor. A
// floor of -Inf mutes fully.
//
// The gate is mono and single-threaded; parameter changes must not race with
// ProcessSample.
type Gate struct {
	mode             Mode
	openThresholdDB  float64
	closeThresholdDB float64
	floorDB          float64
	ratio            float64

	sampleRate float64

	// Cached values derived from the parameters above.
	attackCoeff  float64
	releaseCoeff float64
	floorGain    float64

	// Per-stream state.
	envelope float64
	gain     float64
	open     bool

	metrics Metrics
}

// New creates a closed gate with the default speech-cleanup parameters:
// open -42 dB, close -48 dB, floor -40 dB, ratio 4, expander mode.
func New(sampleRate float64) (*Gate, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("dynamics: sample rate must be positive and finite: %f", sampleRate)
	}

	g := &Gate{
		mode:             ModeExpander,
		openThresholdDB:  defaultOpenThresholdDB,
		closeThresholdDB: defaultCloseThresholdDB,
		floorDB:          defaultFloorDB,
		ratio:            defaultRatio,
		sampleRate:       sampleRate,
		metrics:          Metrics{MinGain: 1.0},
	}

	g.updateCoefficients()

	return g, nil
}

// SetMode selects the closed-state gain law.
func (g *Gate) SetMode(m Mode) error {
	if m != ModeExpander && m != ModeGate {
		return fmt.Errorf("dynamics: unknown mode %d", int(m))
	}

	g.mode = m

	return nil
}

// SetThresholds sets the open and close thresholds in dB. The open threshold
// must not be below the close threshold; equal values degenerate to a
// non-hysteretic gate, which is allowed.
func (g *Gate) SetThresholds(openDB, closeDB float64) error {
	if !core.IsFinite(openDB) || !core.IsFinite(closeDB) {
		return fmt.Errorf("dynamics: thresholds must be finite: open %f, close %f", openDB, closeDB)
	}

	if openDB < minThresholdDB || openDB > maxThresholdDB ||
		closeDB < minThresholdDB || closeDB > maxThresholdDB {
		return fmt.Errorf("dynamics: thresholds must be in [%g, %g]: open %f, close %f",
			minThresholdDB, maxThresholdDB, openDB, closeDB)
	}

	if openDB < closeDB {
		return fmt.Errorf("dynamics: open threshold %f dB below close threshold %f dB", openDB, closeDB)
	}

	g.openThresholdDB = openDB
	g.closeThresholdDB = closeDB

	return nil
}

// SetFloor sets the maximum attenuation depth in dB. -Inf is valid and means
// a full mute while closed.
func (g *Gate) SetFloor(dB float64) error {
	if math.IsNaN(dB) || math.IsInf(dB, 1) {
		return fmt.Errorf("dynamics: floor must be -Inf or finite: %f", dB)
	}

	if !math.IsInf(dB, -1) && (dB < minFloorDB || dB > maxFloorDB) {
		return fmt.Errorf("dynamics: floor must be in [%g, %g] or -Inf: %f", minFloorDB, maxFloorDB, dB)
	}

	g.floorDB = dB
	g.updateCoefficients()

	return nil
}

// SetRatio sets the expansion ratio: dB of attenuation added per dB the
// level falls below the close threshold. Range 1 to 100.
func (g *Gate) SetRatio(ratio float64) error {
	if ratio < minRatio || ratio > maxRatio || !core.IsFinite(ratio) {
		return fmt.Errorf("dynamics: ratio must be in [%g, %g]: %f", minRatio, maxRatio, ratio)
	}

	g.ratio = ratio

	return nil
}

// SetSampleRate updates the sample rate and recomputes the envelope time
// constants.
func (g *Gate) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("dynamics: sample rate must be positive and finite: %f", sampleRate)
	}

	g.sampleRate = sampleRate
	g.updateCoefficients()

	return nil
}

// Mode returns the closed-state gain law.
func (g *Gate) Mode() Mode { return g.mode }

// OpenThreshold returns the open threshold in dB.
func (g *Gate) OpenThreshold() float64 { return g.openThresholdDB }

// CloseThreshold returns the close threshold in dB.
func (g *Gate) CloseThreshold() float64 { return g.closeThresholdDB }

// Floor returns the maximum attenuation depth in dB (possibly -Inf).
func (g *Gate) Floor() float64 { return g.floorDB }

// Ratio returns the expansion ratio.
func (g *Gate) Ratio() float64 { return g.ratio }

// SampleRate returns the sample rate in Hz.
func (g *Gate) SampleRate() float64 { return g.sampleRate }

// IsOpen reports whether the hysteresis state machine is in the OPEN state.
func (g *Gate) IsOpen() bool { return g.open }

// CurrentGain returns the smoothed gain currently applied, in linear terms.
func (g *Gate) CurrentGain() float64 { return g.gain }

// ProcessSample runs one sample through the gate.
func (g *Gate) ProcessSample(input float64) float64 {
	level := math.Abs(input)

	// Peak envelope with separate attack and release. The release tail decays
	// exponentially toward zero, so denormals are flushed before they can
	// stall the follower during silence.
	if level > g.envelope {
		g.envelope = level + (g.envelope-level)*g.attackCoeff
	} else {
		g.envelope = core.FlushDenormals(level + (g.envelope-level)*g.releaseCoeff)
	}

	levelDB := core.LinearToDB(math.Max(g.envelope, envelopeFloor))

	// Hysteresis: between the thresholds the state holds.
	if g.open {
		if levelDB < g.closeThresholdDB {
			g.open = false
		}
	} else {
		if levelDB > g.openThresholdDB {
			g.open = true
		}
	}

	target := g.targetGain(levelDB)

	// Smooth the gain toward its target, opening faster than closing. A gain
	// closing toward a full mute decays exponentially, so flush there too.
	if target > g.gain {
		g.gain += (target - g.gain) * openSmoothing
	} else {
		g.gain = core.FlushDenormals(g.gain + (target-g.gain)*closeSmoothing)
	}

	output := input * g.gain
	g.updateMetrics(level, math.Abs(output))

	return output
}

// ProcessInPlace applies the gate to buf in place.
func (g *Gate) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = g.ProcessSample(buf[i])
	}
}

// Reset clears envelope, state machine, gain, and metrics for a new stream.
// The gate starts closed and silent so stale state never leaks across
// unrelated streams.
func (g *Gate) Reset() {
	g.envelope = 0
	g.gain = 0
	g.open = false
	g.metrics = Metrics{MinGain: 1.0}
}

// GetMetrics returns current metering values.
func (g *Gate) GetMetrics() Metrics { return g.metrics }

// ResetMetrics clears metering state without touching the audio state.
func (g *Gate) ResetMetrics() {
	g.metrics = Metrics{MinGain: 1.0}
}

// targetGain computes the unsmoothed gain for the current state and level.
func (g *Gate) targetGain(levelDB float64) float64 {
	if g.open {
		return 1.0
	}

	if g.mode == ModeGate {
		return g.floorGain
	}

	deficit := g.closeThresholdDB - levelDB
	if deficit <= 0 {
		// Closed but inside the hysteresis band: no attenuation yet.
		return 1.0
	}

	attenuationDB := deficit * g.ratio

	// Hard floor: the output level never drops below floorDB.
	if levelDB-attenuationDB < g.floorDB {
		attenuationDB = levelDB - g.floorDB
		if attenuationDB < 0 {
			// Input already below the floor; leave it untouched.
			return 1.0
		}
	}

	return core.DBToLinear(-attenuationDB)
}

func (g *Gate) updateCoefficients() {
	g.attackCoeff = math.Exp(-1.0 / (attackSeconds * g.sampleRate))
	g.releaseCoeff = math.Exp(-1.0 / (releaseSeconds * g.sampleRate))
	g.floorGain = core.DBToLinear(g.floorDB)
}

func (g *Gate) updateMetrics(inputLevel, outputLevel float64) {
	if inputLevel > g.metrics.InputPeak {
		g.metrics.InputPeak = inputLevel
	}

	if outputLevel > g.metrics.OutputPeak {
		g.metrics.OutputPeak = outputLevel
	}

	if g.gain < g.metrics.MinGain {
		g.metrics.MinGain = g.gain
	}
}
