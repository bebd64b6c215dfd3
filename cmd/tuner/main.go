// Command tuner is the interactive cleanup tuner: it plays a media file
// through the live processing chain and lets you adjust volume, EQ, and gate
// parameters while listening. Saved settings are picked up by the watcher.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dogaudio/dogaudio/internal/audio"
	"github.com/dogaudio/dogaudio/internal/ui"
	"github.com/dogaudio/dogaudio/settings"
)

var version = "0.3.0"

type CLI struct {
	Settings string           `short:"s" type:"path" default:"settings.json" help:"Settings file, shared with the watcher."`
	FFmpeg   string           `default:"ffmpeg" help:"ffmpeg binary used for decoding."`
	Version  kong.VersionFlag `short:"v" help:"Show version."`
	Media    string           `arg:"" optional:"" type:"existingfile" help:"Audio or video file to preview."`
}

func main() {
	cli := &CLI{}
	kong.Parse(cli,
		kong.Name("tuner"),
		kong.Description("Interactive volume, EQ, and noise gate tuner with live preview."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	store := settings.NewStore(cli.Settings)

	current, err := store.LoadCurrent()
	if err != nil {
		fail("load settings: %v", err)
	}
	current = current.Normalize()

	presets, err := store.ListPresets()
	if err != nil {
		fail("list presets: %v", err)
	}

	engine, err := audio.NewEngine(cli.FFmpeg)
	if err != nil {
		fail("start audio: %v", err)
	}
	defer engine.Close()

	if err := engine.Apply(current); err != nil {
		fail("apply settings: %v", err)
	}

	model := ui.NewModel(engine, store, current, presets, cli.Media)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fail("ui: %v", err)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "tuner: "+format+"\n", args...)
	os.Exit(1)
}
