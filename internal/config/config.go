package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

type Config struct {
	LogLevel string        `json:"log_level"` // "debug", "info", "warn", "error"
	Audio    AudioConfig   `json:"audio"`
	Metrics  MetricsConfig `json:"metrics"`
}

type AudioConfig struct {
	Backend           string   `json:"backend"`   // "auto", "malgo", "pulse", "portaudio"
	Direction         string   `json:"direction"` // "speaker" or "microphone"
	DeviceID          string   `json:"device_id"`
	BufferCapacity    int      `json:"buffer_capacity"`
	HandshakeTimeout  Duration `json:"handshake_timeout"`
	EventTimeout      Duration `json:"event_timeout"`
	StrictStart       bool     `json:"strict_start"`
	DropPartialFrames bool     `json:"drop_partial_frames"`
}

type MetricsConfig struct {
	Addr string `json:"addr"` // empty disables the /metrics endpoint
}

// Duration is a time.Duration that reads and writes as "5s" in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var ms int64
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("invalid duration %s", data)
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			Backend:          "auto",
			Direction:        "speaker",
			DeviceID:         "",
			BufferCapacity:   131072,
			HandshakeTimeout: Duration(5 * time.Second),
			EventTimeout:     Duration(3 * time.Second),
		},
	}
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path over the defaults. A missing file is not
// an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Path returns the platform-specific config file path
func Path() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "speaker-tap", "config.json")
}
