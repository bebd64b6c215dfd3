package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dogaudio/dogaudio/settings"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	focusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F2C94C"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0"))

	ledOpenStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#27AE60"))

	ledClosedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EB5757"))

	statusStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#56B6C2"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C6C6C"))
)

const sliderWidth = 21

// View renders the tuner screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("dogaudio tuner"))
	b.WriteString("  ")
	if m.playing {
		b.WriteString("▶ playing")
	} else {
		b.WriteString("⏸ paused")
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderRow(ctlVolume, "Volume",
		slider(m.s.VolumeDB, settings.MinGainDB, settings.MaxGainDB),
		fmt.Sprintf("%+5.1f dB", m.s.VolumeDB)))

	for i := 0; i < len(m.s.EQ); i++ {
		b.WriteString(m.renderRow(ctlBand0+control(i), bandLabel(i),
			slider(m.s.EQ[i], settings.MinGainDB, settings.MaxGainDB),
			fmt.Sprintf("%+5.1f dB %s", m.s.EQ[i], m.levelMeter(i))))
	}

	b.WriteString("\n")
	b.WriteString(m.renderGate())
	b.WriteString("\n")
	b.WriteString(m.renderPresets())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(
		"↑/↓ select  ←/→ adjust  g gate  m mode  space play/pause  s save\n" +
			"n name preset  [/] select preset  enter load  x delete  q quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderGate() string {
	var b strings.Builder

	led := ledClosedStyle.Render("● closed")
	if m.gateOpen {
		led = ledOpenStyle.Render("● open")
	}

	enabled := "off"
	if m.s.GateEnabled {
		enabled = "on"
	}

	b.WriteString(m.renderRow(ctlGateEnabled, "Gate", enabled, led))
	b.WriteString(m.renderRow(ctlGateMode, "Mode", string(m.s.GateMode), ""))
	b.WriteString(m.renderRow(ctlOpenThr, "Open thr",
		slider(m.s.OpenThrDB, settings.MinThresholdDB, settings.MaxThresholdDB),
		fmt.Sprintf("%6.1f dB", m.s.OpenThrDB)))
	b.WriteString(m.renderRow(ctlCloseThr, "Close thr",
		slider(m.s.CloseThrDB, settings.MinThresholdDB, settings.MaxThresholdDB),
		fmt.Sprintf("%6.1f dB", m.s.CloseThrDB)))
	b.WriteString(m.renderRow(ctlFloor, "Floor",
		slider(m.s.FloorDB, settings.MinFloorDB, settings.MaxFloorDB),
		floorText(m.s.FloorDB)))
	b.WriteString(m.renderRow(ctlRatio, "Ratio",
		slider(m.s.Ratio, settings.MinRatio, 10),
		fmt.Sprintf("%5.1f:1", m.s.Ratio)))

	return b.String()
}

func (m Model) renderPresets() string {
	if m.naming {
		return focusStyle.Render("Preset name: ") + m.nameBuf + "▌\n"
	}

	if len(m.presets) == 0 {
		return labelStyle.Render("Presets: (none saved)") + "\n"
	}

	parts := make([]string, len(m.presets))
	for i, name := range m.presets {
		if i == m.presetIdx {
			parts[i] = focusStyle.Render("[" + name + "]")
		} else {
			parts[i] = name
		}
	}

	return labelStyle.Render("Presets: ") + strings.Join(parts, "  ") + "\n"
}

func (m Model) renderRow(ctl control, label, body, value string) string {
	marker := "  "
	name := labelStyle.Render(fmt.Sprintf("%-9s", label))
	if m.focus == ctl {
		marker = focusStyle.Render("> ")
		name = focusStyle.Render(fmt.Sprintf("%-9s", label))
	}

	if value == "" {
		return fmt.Sprintf("%s%s %s\n", marker, name, body)
	}

	return fmt.Sprintf("%s%s %s %s\n", marker, name, body, value)
}

// slider draws a fixed-width bar with the value position marked.
func slider(v, lo, hi float64) string {
	if hi <= lo {
		return strings.Repeat("-", sliderWidth)
	}

	frac := (v - lo) / (hi - lo)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	pos := int(frac*float64(sliderWidth-1) + 0.5)
	cells := []byte(strings.Repeat("-", sliderWidth))
	cells[pos] = '|'

	return "[" + string(cells) + "]"
}

// levelMeter draws the playing signal's level at one EQ band as a small bar,
// spanning -80 dBFS to full scale.
func (m Model) levelMeter(band int) string {
	const width = 8

	if band >= len(m.levels) {
		return strings.Repeat("░", width)
	}

	frac := (m.levels[band] + 80) / 80
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	lit := int(frac*width + 0.5)

	return ledOpenStyle.Render(strings.Repeat("▮", lit)) + strings.Repeat("░", width-lit)
}

func floorText(v float64) string {
	if v < settings.MinFloorDB {
		return "  mute"
	}

	return fmt.Sprintf("%6.1f dB", v)
}
