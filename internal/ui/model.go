// Package ui provides the Bubbletea terminal interface for the tuner: a
// parameter editor over the live processing chain, with preset management
// and transport control.
package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dogaudio/dogaudio/dsp/eq"
	"github.com/dogaudio/dogaudio/settings"
)

// Engine is the playback side the UI drives. Implemented by audio.Engine.
type Engine interface {
	Apply(settings.Settings) error
	GateOpen() bool
	SpectrumDB(freqs []float64) []float64
	Open(path string) error
	Pause()
	Resume()
	Playing() bool
	Stop()
}

// Store is the persistence side. Implemented by settings.Store.
type Store interface {
	SaveCurrent(settings.Settings) error
	ListPresets() ([]string, error)
	LoadPreset(string) (settings.Settings, error)
	SavePreset(string, settings.Settings) error
	DeletePreset(string) error
}

// control identifies one editable parameter, in display order.
type control int

const (
	ctlVolume control = iota
	ctlBand0
	ctlBand1
	ctlBand2
	ctlBand3
	ctlBand4
	ctlGateEnabled
	ctlGateMode
	ctlOpenThr
	ctlCloseThr
	ctlFloor
	ctlRatio

	controlCount
)

type tickMsg time.Time

type openResultMsg struct{ err error }

const refreshInterval = 100 * time.Millisecond

// Model is the Bubbletea model for the tuner.
type Model struct {
	engine Engine
	store  Store

	s         settings.Settings
	mediaPath string

	focus     control
	presets   []string
	presetIdx int

	naming  bool
	nameBuf string

	gateOpen bool
	playing  bool
	levels   []float64
	status   string

	width  int
	height int
}

// NewModel builds the tuner UI around an engine and a settings store. s is
// the starting parameter set; presets is the saved preset list.
func NewModel(engine Engine, store Store, s settings.Settings, presets []string, mediaPath string) Model {
	return Model{
		engine:    engine,
		store:     store,
		s:         s,
		presets:   presets,
		mediaPath: mediaPath,
		status:    "Tune in real time; s saves, n names a preset.",
	}
}

// Settings returns the parameter set currently being edited.
func (m Model) Settings() settings.Settings { return m.s }

// Init starts the refresh ticker and, when a media path was given, playback.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick()}
	if m.mediaPath != "" {
		cmds = append(cmds, m.openCmd())
	}

	return tea.Batch(cmds...)
}

// Update handles key presses and periodic refreshes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.gateOpen = m.engine.GateOpen()
		m.playing = m.engine.Playing()
		m.levels = m.engine.SpectrumDB(eq.BandFrequencies[:])

		return m, tick()

	case openResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Open failed: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Playing %s", m.mediaPath)
		}

	case tea.KeyMsg:
		if m.naming {
			return m.updateNaming(msg)
		}

		return m.updateKeys(msg)
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.engine.Stop()

		return m, tea.Quit

	case "up", "k":
		if m.focus > 0 {
			m.focus--
		}

	case "down", "j":
		if m.focus < controlCount-1 {
			m.focus++
		}

	case "left", "h":
		m.adjust(-1)

	case "right", "l":
		m.adjust(+1)

	case "g":
		m.s.GateEnabled = !m.s.GateEnabled
		m.applySettings()

	case "m":
		m.toggleGateMode()
		m.applySettings()

	case " ", "p":
		if m.playing {
			m.engine.Pause()
			m.status = "Paused."
		} else {
			m.engine.Resume()
			m.status = "Playing."
		}
		m.playing = !m.playing

	case "o":
		if m.mediaPath == "" {
			m.status = "No media file given."

			break
		}

		return m, m.openCmd()

	case "s":
		if err := m.store.SaveCurrent(m.s); err != nil {
			m.status = fmt.Sprintf("Save failed: %v", err)
		} else {
			m.status = "Settings saved. These will be restored next time."
		}

	case "n":
		m.naming = true
		m.nameBuf = ""

	case "[":
		if len(m.presets) > 0 {
			m.presetIdx = (m.presetIdx + len(m.presets) - 1) % len(m.presets)
		}

	case "]":
		if len(m.presets) > 0 {
			m.presetIdx = (m.presetIdx + 1) % len(m.presets)
		}

	case "enter":
		m.loadSelectedPreset()

	case "x":
		m.deleteSelectedPreset()
	}

	return m, nil
}

func (m Model) updateNaming(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.naming = false
		m.savePreset(strings.TrimSpace(m.nameBuf))

	case tea.KeyEscape:
		m.naming = false
		m.status = "Preset naming canceled."

	case tea.KeyBackspace:
		if len(m.nameBuf) > 0 {
			runes := []rune(m.nameBuf)
			m.nameBuf = string(runes[:len(runes)-1])
		}

	case tea.KeyRunes, tea.KeySpace:
		// The driver delivers a space as KeySpace with the rune attached.
		if len(msg.Runes) == 0 && msg.Type == tea.KeySpace {
			m.nameBuf += " "
		} else {
			m.nameBuf += string(msg.Runes)
		}
	}

	return m, nil
}

// adjust nudges the focused control. Every path keeps the settings valid,
// including the open >= close threshold invariant.
func (m *Model) adjust(direction float64) {
	switch {
	case m.focus == ctlVolume:
		m.s.VolumeDB = clampStep(m.s.VolumeDB, direction*0.5, settings.MinGainDB, settings.MaxGainDB)

	case m.focus >= ctlBand0 && m.focus <= ctlBand4:
		i := int(m.focus - ctlBand0)
		m.s.EQ[i] = clampStep(m.s.EQ[i], direction*0.5, settings.MinGainDB, settings.MaxGainDB)

	case m.focus == ctlGateEnabled:
		m.s.GateEnabled = !m.s.GateEnabled

	case m.focus == ctlGateMode:
		m.toggleGateMode()

	case m.focus == ctlOpenThr:
		// The open threshold cannot fall below the close threshold.
		m.s.OpenThrDB = clampStep(m.s.OpenThrDB, direction, m.s.CloseThrDB, settings.MaxThresholdDB)

	case m.focus == ctlCloseThr:
		// Nor the close threshold rise above the open one.
		m.s.CloseThrDB = clampStep(m.s.CloseThrDB, direction, settings.MinThresholdDB, m.s.OpenThrDB)

	case m.focus == ctlFloor:
		// One step past the deepest finite floor selects the full mute.
		switch {
		case math.IsInf(m.s.FloorDB, -1):
			if direction > 0 {
				m.s.FloorDB = settings.MinFloorDB
			}
		case direction < 0 && m.s.FloorDB <= settings.MinFloorDB:
			m.s.FloorDB = math.Inf(-1)
		default:
			m.s.FloorDB = clampStep(m.s.FloorDB, direction, settings.MinFloorDB, settings.MaxFloorDB)
		}

	case m.focus == ctlRatio:
		m.s.Ratio = clampStep(m.s.Ratio, direction*0.5, settings.MinRatio, settings.MaxRatio)
	}

	m.applySettings()
}

func (m *Model) toggleGateMode() {
	if m.s.GateMode == settings.GateModeGate {
		m.s.GateMode = settings.GateModeExpander
	} else {
		m.s.GateMode = settings.GateModeGate
	}
}

func (m *Model) applySettings() {
	if err := m.engine.Apply(m.s); err != nil {
		m.status = fmt.Sprintf("Apply failed: %v", err)
	}
}

func (m *Model) savePreset(name string) {
	if name == "" {
		m.status = "Preset needs a name."

		return
	}

	if err := m.store.SavePreset(name, m.s); err != nil {
		m.status = fmt.Sprintf("Preset save failed: %v", err)

		return
	}

	m.refreshPresets()
	for i, p := range m.presets {
		if p == name {
			m.presetIdx = i
		}
	}
	m.status = fmt.Sprintf("Preset %q saved.", name)
}

func (m *Model) loadSelectedPreset() {
	if m.presetIdx >= len(m.presets) {
		m.status = "No preset selected."

		return
	}

	name := m.presets[m.presetIdx]
	s, err := m.store.LoadPreset(name)
	if err != nil {
		m.status = fmt.Sprintf("Preset load failed: %v", err)

		return
	}

	m.s = s
	m.applySettings()
	m.status = fmt.Sprintf("Preset %q loaded.", name)
}

func (m *Model) deleteSelectedPreset() {
	if m.presetIdx >= len(m.presets) {
		m.status = "No preset selected."

		return
	}

	name := m.presets[m.presetIdx]
	if err := m.store.DeletePreset(name); err != nil {
		m.status = fmt.Sprintf("Preset delete failed: %v", err)

		return
	}

	m.refreshPresets()
	if m.presetIdx >= len(m.presets) && m.presetIdx > 0 {
		m.presetIdx--
	}
	m.status = fmt.Sprintf("Preset %q deleted.", name)
}

func (m *Model) refreshPresets() {
	names, err := m.store.ListPresets()
	if err != nil {
		m.status = fmt.Sprintf("Preset list failed: %v", err)

		return
	}

	m.presets = names
}

func (m Model) openCmd() tea.Cmd {
	path := m.mediaPath

	return func() tea.Msg {
		return openResultMsg{err: m.engine.Open(path)}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func clampStep(v, step, lo, hi float64) float64 {
	v += step
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}

// bandLabel names an EQ band for display.
func bandLabel(i int) string {
	f := eq.BandFrequencies[i]
	if f >= 1000 {
		return fmt.Sprintf("%g kHz", f/1000)
	}

	return fmt.Sprintf("%g Hz", f)
}
