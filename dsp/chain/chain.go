// Package chain composes the full cleanup transform: master gain, then the
// five-band equalizer, then the noise gate. The order is fixed so the gate's
// level detector sees the signal the listener will actually hear.
package chain

import (
	"fmt"
	"sync/atomic"

	"github.com/dogaudio/dogaudio/dsp/core"
	"github.com/dogaudio/dogaudio/dsp/dynamics"
	"github.com/dogaudio/dogaudio/dsp/eq"
	"github.com/dogaudio/dogaudio/settings"
)

// Chain is the per-stream processing pipeline. ProcessBlock belongs to the
// audio goroutine; Apply may be called concurrently from the UI. A pending
// settings snapshot is handed off through an atomic pointer and picked up at
// the next block boundary, so a block is never processed with torn
// parameters.
type Chain struct {
	sampleRate float64

	pending  atomic.Pointer[settings.Settings]
	gateOpen atomic.Bool

	// Everything below is owned by the audio goroutine.
	applied     *settings.Settings
	gain        float64
	equalizer   *eq.GraphicEQ
	gate        *dynamics.Gate
	gateEnabled bool
}

// New creates a chain with default settings applied.
func New(sampleRate float64) (*Chain, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("chain: sample rate must be positive and finite: %f", sampleRate)
	}

	equalizer, err := eq.New(sampleRate)
	if err != nil {
		return nil, err
	}

	gate, err := dynamics.New(sampleRate)
	if err != nil {
		return nil, err
	}

	c := &Chain{
		sampleRate: sampleRate,
		equalizer:  equalizer,
		gate:       gate,
	}

	if err := c.Apply(settings.Default()); err != nil {
		return nil, err
	}

	return c, nil
}

// SampleRate returns the sample rate the chain was built for.
func (c *Chain) SampleRate() float64 { return c.sampleRate }

// Apply validates s and schedules it to take effect at the next block
// boundary. Safe to call from a goroutine other than the one calling
// ProcessBlock, but only from one such goroutine at a time.
func (c *Chain) Apply(s settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	c.pending.Store(&s)

	return nil
}

// Settings returns the snapshot most recently handed to Apply, or the
// snapshot in effect if none is pending.
func (c *Chain) Settings() settings.Settings {
	if p := c.pending.Load(); p != nil {
		return *p
	}

	return *c.applied
}

// ProcessBlock runs buf through gain, EQ, and gate in place. A pending
// settings snapshot is installed first, so the whole block is processed
// under one consistent parameter set.
func (c *Chain) ProcessBlock(buf []float64) {
	c.installPending()

	if c.gain != 1 {
		for i := range buf {
			buf[i] *= c.gain
		}
	}

	c.equalizer.ProcessBlock(buf)

	if c.gateEnabled {
		c.gate.ProcessInPlace(buf)
	}

	c.gateOpen.Store(c.gateEnabled && c.gate.IsOpen())
}

// GateOpen reports whether the gate was open at the end of the last block.
// False when the gate is disabled. Safe to call from the UI goroutine.
func (c *Chain) GateOpen() bool {
	return c.gateOpen.Load()
}

// GateMetrics returns the gate's metering state for the level display.
func (c *Chain) GateMetrics() dynamics.Metrics {
	return c.gate.GetMetrics()
}

// Reset clears all filter and gate state for a stream restart. Settings are
// unaffected.
func (c *Chain) Reset() {
	c.equalizer.Reset()
	c.gate.Reset()
	c.gateOpen.Store(false)
}

// installPending reconfigures the chain from the latest snapshot. Filter
// delay lines and gate state survive the reconfiguration, so parameter
// changes are click-free.
func (c *Chain) installPending() {
	s := c.pending.Load()
	if s == nil || s == c.applied {
		return
	}

	c.gain = core.DBToLinear(s.VolumeDB)

	for i, g := range s.EQ {
		// Bounds already checked by Validate; errors here are impossible.
		_ = c.equalizer.SetBandGain(i, g)
	}

	mode := dynamics.ModeExpander
	if s.GateMode == settings.GateModeGate {
		mode = dynamics.ModeGate
	}
	_ = c.gate.SetMode(mode)
	_ = c.gate.SetThresholds(s.OpenThrDB, s.CloseThrDB)
	_ = c.gate.SetFloor(s.FloorDB)
	_ = c.gate.SetRatio(s.Ratio)
	c.gateEnabled = s.GateEnabled

	c.applied = s
}
