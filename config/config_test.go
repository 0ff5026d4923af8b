package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-arrange/timeline"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Server.Timeout = Duration(3 * time.Second)
	cfg.SaveFormat = "yaml"
	cfg.MIDI.OutputPort = "FluidSynth"
	cfg.Timeline.BPM = 93
	require.NoError(t, cfg.SaveFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timeout": "3s"`)

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"midi":{"outputPort":"Synth"}}`), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Synth", cfg.MIDI.OutputPort)
	assert.Equal(t, timeline.DefaultBPM, cfg.Timeline.BPM)
	assert.Equal(t, "json", cfg.SaveFormat)
}

func TestInvalidValues(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"format":   `{"saveFormat":"xml"}`,
		"meter":    `{"timeline":{"timeSignature":{"num":0,"den":4}}}`,
		"duration": `{"server":{"timeout":"soon"}}`,
		"json":     `{`,
		"steps":    `{"timeline":{"stepsPerBeat":960}}`,
		"uneven":   `{"timeline":{"stepsPerBeat":7}}`,
	} {
		path := filepath.Join(dir, name+".json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		_, err := LoadFile(path)
		assert.Error(t, err, name)
	}
}

func TestClock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeline.BPM = 0
	cfg.Timeline.StepsPerBeat = 2
	c := cfg.Clock()
	assert.Equal(t, timeline.DefaultBPM, c.BPM)
	assert.Equal(t, int64(timeline.PPQ/2), c.StepTicks())

	cfg.ProjectsDir = "/tmp/p"
	dir, err := cfg.ProjectsPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/p", dir)
}
