package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-arrange/timeline"
)

// ServerConfig points at the project backend
type ServerConfig struct {
	URL     string   `json:"url,omitempty"`
	Timeout Duration `json:"timeout,omitempty"`
}

// TimelineConfig seeds new projects and the arrangement view
type TimelineConfig struct {
	BPM           float64                `json:"bpm,omitempty"`
	TimeSignature timeline.TimeSignature `json:"timeSignature"`
	PixelsPerBeat float64                `json:"pixelsPerBeat,omitempty"`
	StepsPerBeat  int                    `json:"stepsPerBeat,omitempty"`
	LaneHeight    float64                `json:"laneHeight,omitempty"`
	Snap          bool                   `json:"snap"`
}

// MIDIConfig selects ports by name
type MIDIConfig struct {
	OutputPort string `json:"outputPort,omitempty"`
	InputPort  string `json:"inputPort,omitempty"`
	// SoundFont, when set, synthesizes in process instead of using a port
	SoundFont string `json:"soundFont,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Server      ServerConfig   `json:"server"`
	TokenPath   string         `json:"tokenPath,omitempty"`
	ProjectsDir string         `json:"projectsDir,omitempty"`
	SaveFormat  string         `json:"saveFormat,omitempty"`
	Timeline    TimelineConfig `json:"timeline"`
	MIDI        MIDIConfig     `json:"midi"`
	LogLevel    string         `json:"logLevel,omitempty"`
	Debug       bool           `json:"debug,omitempty"`
}

// Duration is a time.Duration written as a string like "10s"
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     "http://localhost:8080",
			Timeout: Duration(10 * time.Second),
		},
		SaveFormat: "json",
		Timeline: TimelineConfig{
			BPM:           timeline.DefaultBPM,
			TimeSignature: timeline.CommonTime,
			PixelsPerBeat: timeline.DefaultPixelsPerBeat,
			StepsPerBeat:  timeline.DefaultStepsPerBeat,
			LaneHeight:    timeline.DefaultLaneHeight,
			Snap:          true,
		},
		LogLevel: "info",
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-arrange"), nil
}

// Path returns the full path to config.json
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from its default path
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file, or returns defaults if it does not
// exist. Fields missing from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot use
func (c *Config) Validate() error {
	switch c.SaveFormat {
	case "", "json", "yaml":
	default:
		return fmt.Errorf("saveFormat must be json or yaml, got %q", c.SaveFormat)
	}
	if c.Timeline.BPM < 0 {
		return timeline.ErrInvalidBPM
	}
	if s := c.Timeline.StepsPerBeat; s != 0 && !timeline.ValidSteps(s) {
		return fmt.Errorf("%w: %d", timeline.ErrInvalidSteps, s)
	}
	if c.Timeline.TimeSignature != (timeline.TimeSignature{}) {
		if err := c.Timeline.TimeSignature.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the config to its default path
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating the directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clock builds the timeline clock for new projects
func (c *Config) Clock() timeline.Clock {
	t := c.Timeline
	bpm := t.BPM
	if bpm <= 0 {
		bpm = timeline.DefaultBPM
	}
	ts := t.TimeSignature
	if ts.Validate() != nil {
		ts = timeline.CommonTime
	}
	clock := timeline.NewClock(bpm, ts)
	if t.PixelsPerBeat > 0 {
		clock.PixelsPerBeat = t.PixelsPerBeat
	}
	if t.StepsPerBeat > 0 {
		clock.StepsPerBeat = t.StepsPerBeat
	}
	return clock
}

// ProjectsPath returns the project library directory
func (c *Config) ProjectsPath() (string, error) {
	if c.ProjectsDir != "" {
		return c.ProjectsDir, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "projects"), nil
}

// TokenFile returns where the bearer token is kept
func (c *Config) TokenFile() (string, error) {
	if c.TokenPath != "" {
		return c.TokenPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "token"), nil
}
