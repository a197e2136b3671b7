// Package config loads and saves the emulator's JSON settings file: window
// scale, audio output, input key bindings, and debug toggles.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all user-facing emulator settings.
type Config struct {
	Window WindowConfig `json:"window"`
	Audio  AudioConfig  `json:"audio"`
	Input  InputConfig  `json:"input"`
	Debug  DebugConfig  `json:"debug"`

	path string
}

// WindowConfig controls the frontend's display window.
type WindowConfig struct {
	Scale      int  `json:"scale"` // integer multiple of the NES's 256x240 frame
	Fullscreen bool `json:"fullscreen"`
	VSync      bool `json:"vsync"`
}

// AudioConfig controls APU sample generation and output volume.
type AudioConfig struct {
	Enabled    bool    `json:"enabled"`
	SampleRate int     `json:"sample_rate"`
	Volume     float32 `json:"volume"`
}

// InputConfig holds keyboard bindings for both controller ports.
type InputConfig struct {
	Player1Keys KeyMapping `json:"player1_keys"`
	Player2Keys KeyMapping `json:"player2_keys"`
}

// KeyMapping names one NES controller's worth of keyboard bindings. Values
// are ebiten key names, resolved by the frontend.
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// DebugConfig toggles diagnostic features, including disabling individual
// APU channels for isolating audio bugs.
type DebugConfig struct {
	CPUTracing      bool `json:"cpu_tracing"`
	DisablePulse1   bool `json:"disable_pulse1"`
	DisablePulse2   bool `json:"disable_pulse2"`
	DisableTriangle bool `json:"disable_triangle"`
	DisableNoise    bool `json:"disable_noise"`
	DisableDMC      bool `json:"disable_dmc"`
}

// Default returns the emulator's out-of-the-box configuration.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Scale:      2,
			Fullscreen: false,
			VSync:      true,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			Volume:     0.8,
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				Up: "W", Down: "S", Left: "A", Right: "D",
				A: "K", B: "J", Start: "Enter", Select: "Space",
			},
			Player2Keys: KeyMapping{
				Up: "Up", Down: "Down", Left: "Left", Right: "Right",
				A: "Period", B: "Comma", Start: "Backslash", Select: "Slash",
			},
		},
	}
}

// Load reads a JSON config file, falling back to and writing out the
// defaults if it doesn't exist yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		cfg.path = path
		if err := cfg.Save(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.path = path
	cfg.applyBounds()
	return cfg, nil
}

// Save writes the config back to the path it was loaded from (or last
// saved to).
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config: no path set")
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: creating %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	return os.WriteFile(c.path, data, 0o644)
}

// applyBounds clamps settings a hand-edited config file could have pushed
// out of range.
func (c *Config) applyBounds() {
	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.Volume < 0 {
		c.Audio.Volume = 0
	}
	if c.Audio.Volume > 1 {
		c.Audio.Volume = 1
	}
}

// WindowResolution returns the frontend window size in pixels for the
// configured scale.
func (c *Config) WindowResolution() (width, height int) {
	return 256 * c.Window.Scale, 240 * c.Window.Scale
}
