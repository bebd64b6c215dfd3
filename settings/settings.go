// Package settings defines the tunable parameter set shared by the live
// tuner and the batch watcher, and its JSON persistence with named presets.
package settings

import (
	"fmt"
	"math"

	"github.com/dogaudio/dogaudio/dsp/core"
	"github.com/dogaudio/dogaudio/dsp/eq"
)

// GateMode selects the closed-state behavior of the noise gate.
type GateMode string

const (
	GateModeGate     GateMode = "Gate"
	GateModeExpander GateMode = "Expander"
)

// Parameter bounds enforced at this boundary. The processing chain assumes
// validated input and does not re-check per sample.
const (
	MinGainDB = -24.0
	MaxGainDB = 24.0

	MinThresholdDB = -120.0
	MaxThresholdDB = 0.0

	MinFloorDB = -120.0
	MaxFloorDB = 0.0

	MinRatio = 1.0
	MaxRatio = 100.0
)

// Settings is one complete cleanup profile: master volume, the five EQ band
// gains (100, 300, 1000, 3000, 8000 Hz, low to high), and the gate
// configuration. The JSON field names match the settings.json layout the
// tools have always used.
type Settings struct {
	VolumeDB    float64              `json:"volume_db"`
	EQ          [eq.NumBands]float64 `json:"eq"`
	GateEnabled bool                 `json:"gate_enabled"`
	GateMode    GateMode             `json:"gate_mode"`
	OpenThrDB   float64              `json:"open_thr_db"`
	CloseThrDB  float64              `json:"close_thr_db"`
	FloorDB     float64              `json:"floor_db"`
	Ratio       float64              `json:"expander_ratio"`
}

// Default returns the settings a fresh install starts with: unity volume,
// flat EQ, gate off with speech-friendly thresholds.
func Default() Settings {
	return Settings{
		VolumeDB:    0,
		GateEnabled: false,
		GateMode:    GateModeGate,
		OpenThrDB:   -42,
		CloseThrDB:  -48,
		FloorDB:     -40,
		Ratio:       4,
	}
}

// Validate reports the first constraint violation, or nil if the settings
// are usable by the processing chain. A floor of -Inf (full mute) is valid.
func (s Settings) Validate() error {
	if err := checkFinite("volume_db", s.VolumeDB); err != nil {
		return err
	}
	if s.VolumeDB < MinGainDB || s.VolumeDB > MaxGainDB {
		return fmt.Errorf("settings: volume_db %g out of range [%g, %g]", s.VolumeDB, MinGainDB, MaxGainDB)
	}

	for i, g := range s.EQ {
		if err := checkFinite(fmt.Sprintf("eq[%d]", i), g); err != nil {
			return err
		}
		if g < MinGainDB || g > MaxGainDB {
			return fmt.Errorf("settings: eq[%d] %g out of range [%g, %g]", i, g, MinGainDB, MaxGainDB)
		}
	}

	if s.GateMode != GateModeGate && s.GateMode != GateModeExpander {
		return fmt.Errorf("settings: unknown gate_mode %q", s.GateMode)
	}

	for _, th := range []struct {
		name  string
		value float64
	}{
		{"open_thr_db", s.OpenThrDB},
		{"close_thr_db", s.CloseThrDB},
	} {
		if err := checkFinite(th.name, th.value); err != nil {
			return err
		}
		if th.value < MinThresholdDB || th.value > MaxThresholdDB {
			return fmt.Errorf("settings: %s %g out of range [%g, %g]",
				th.name, th.value, MinThresholdDB, MaxThresholdDB)
		}
	}

	if s.OpenThrDB < s.CloseThrDB {
		return fmt.Errorf("settings: open_thr_db %g below close_thr_db %g", s.OpenThrDB, s.CloseThrDB)
	}

	if math.IsNaN(s.FloorDB) || math.IsInf(s.FloorDB, 1) {
		return fmt.Errorf("settings: floor_db must be -Inf or finite: %g", s.FloorDB)
	}
	if !math.IsInf(s.FloorDB, -1) && (s.FloorDB < MinFloorDB || s.FloorDB > MaxFloorDB) {
		return fmt.Errorf("settings: floor_db %g out of range [%g, %g]", s.FloorDB, MinFloorDB, MaxFloorDB)
	}

	if math.IsNaN(s.Ratio) || s.Ratio < MinRatio || s.Ratio > MaxRatio {
		return fmt.Errorf("settings: expander_ratio %g out of range [%g, %g]", s.Ratio, MinRatio, MaxRatio)
	}

	return nil
}

// Normalize returns a copy with every parameter forced into range, suitable
// for repairing a hand-edited or corrupted settings file. Non-finite values
// fall back to the default; an inverted threshold pair is collapsed to a
// non-hysteretic gate at the close threshold.
func (s Settings) Normalize() Settings {
	def := Default()

	s.VolumeDB = clampOrDefault(s.VolumeDB, MinGainDB, MaxGainDB, def.VolumeDB)
	for i := range s.EQ {
		s.EQ[i] = clampOrDefault(s.EQ[i], MinGainDB, MaxGainDB, 0)
	}

	if s.GateMode != GateModeGate && s.GateMode != GateModeExpander {
		s.GateMode = def.GateMode
	}

	s.OpenThrDB = clampOrDefault(s.OpenThrDB, MinThresholdDB, MaxThresholdDB, def.OpenThrDB)
	s.CloseThrDB = clampOrDefault(s.CloseThrDB, MinThresholdDB, MaxThresholdDB, def.CloseThrDB)
	if s.OpenThrDB < s.CloseThrDB {
		s.OpenThrDB = s.CloseThrDB
	}

	if !math.IsInf(s.FloorDB, -1) {
		s.FloorDB = clampOrDefault(s.FloorDB, MinFloorDB, MaxFloorDB, def.FloorDB)
	}

	s.Ratio = clampOrDefault(s.Ratio, MinRatio, MaxRatio, def.Ratio)

	return s
}

func checkFinite(name string, v float64) error {
	if !core.IsFinite(v) {
		return fmt.Errorf("settings: %s must be finite: %g", name, v)
	}

	return nil
}

func clampOrDefault(v, lo, hi, def float64) float64 {
	if !core.IsFinite(v) {
		return def
	}

	return core.Clamp(v, lo, hi)
}
