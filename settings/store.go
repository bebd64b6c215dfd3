package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrPresetNotFound = errors.New("settings: preset not found")
	ErrPresetName     = errors.New("settings: preset name must not be empty")
)

// JSON has no representation for -Inf, so a full-mute floor is stored as
// this sentinel. Any stored floor at or below it loads back as -Inf.
const muteFloorSentinel = -999.0

// Preset is a named Settings snapshot. Its fields are inlined in JSON so a
// preset entry reads the same as the top-level settings, plus "name".
type Preset struct {
	Name string `json:"name"`
	Settings
}

// document is the on-disk shape of settings.json: the current settings at
// the top level with the preset history alongside.
type document struct {
	Settings
	Presets []Preset `json:"presets"`
}

// Store persists the current settings and the preset list in one JSON file.
// All methods read and rewrite the whole file; the file is small and the
// callers are interactive.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path. The file is
// created on first save; a missing file loads as defaults.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (st *Store) Path() string { return st.path }

// LoadCurrent returns the persisted current settings, or defaults when the
// file does not exist yet. Unknown keys are ignored; missing keys keep their
// default values.
func (st *Store) LoadCurrent() (Settings, error) {
	doc, err := st.load()
	if err != nil {
		return Default(), err
	}

	return doc.Settings, nil
}

// SaveCurrent persists s as the current settings, leaving the preset list
// untouched.
func (st *Store) SaveCurrent(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	doc, err := st.load()
	if err != nil {
		return err
	}

	doc.Settings = s

	return st.save(doc)
}

// ListPresets returns the preset names in file order.
func (st *Store) ListPresets() ([]string, error) {
	doc, err := st.load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(doc.Presets))
	for _, p := range doc.Presets {
		names = append(names, p.Name)
	}

	return names, nil
}

// LoadPreset returns the settings stored under name.
func (st *Store) LoadPreset(name string) (Settings, error) {
	doc, err := st.load()
	if err != nil {
		return Default(), err
	}

	for _, p := range doc.Presets {
		if p.Name == name {
			return p.Settings, nil
		}
	}

	return Default(), fmt.Errorf("%w: %q", ErrPresetNotFound, name)
}

// SavePreset stores s under name, overwriting an existing preset with the
// same name or appending a new one.
func (st *Store) SavePreset(name string, s Settings) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrPresetName
	}

	if err := s.Validate(); err != nil {
		return err
	}

	doc, err := st.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range doc.Presets {
		if doc.Presets[i].Name == name {
			doc.Presets[i].Settings = s
			replaced = true

			break
		}
	}

	if !replaced {
		doc.Presets = append(doc.Presets, Preset{Name: name, Settings: s})
	}

	return st.save(doc)
}

// DeletePreset removes the preset stored under name.
func (st *Store) DeletePreset(name string) error {
	doc, err := st.load()
	if err != nil {
		return err
	}

	for i := range doc.Presets {
		if doc.Presets[i].Name == name {
			doc.Presets = append(doc.Presets[:i], doc.Presets[i+1:]...)

			return st.save(doc)
		}
	}

	return fmt.Errorf("%w: %q", ErrPresetNotFound, name)
}

func (st *Store) load() (document, error) {
	doc := document{Settings: Default()}

	data, err := os.ReadFile(st.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("settings: read %s: %w", st.path, err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("settings: parse %s: %w", st.path, err)
	}

	doc.Settings = fromStored(doc.Settings)
	for i := range doc.Presets {
		doc.Presets[i].Settings = fromStored(doc.Presets[i].Settings)
	}

	return doc, nil
}

func (st *Store) save(doc document) error {
	doc.Settings = toStored(doc.Settings)
	for i := range doc.Presets {
		doc.Presets[i].Settings = toStored(doc.Presets[i].Settings)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	data = append(data, '\n')

	// Write-then-rename so a crash mid-write never leaves a truncated file.
	tmp := st.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return fmt.Errorf("settings: create dir for %s: %w", st.path, err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("settings: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("settings: rename %s: %w", tmp, err)
	}

	return nil
}

func toStored(s Settings) Settings {
	if math.IsInf(s.FloorDB, -1) {
		s.FloorDB = muteFloorSentinel
	}

	return s
}

func fromStored(s Settings) Settings {
	if s.FloorDB <= muteFloorSentinel {
		s.FloorDB = math.Inf(-1)
	}

	return s
}
