package instrument

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-arrange/audio"
	"go-arrange/sequencer"
)

type fakeSynth struct {
	msgs     [][4]int32
	on, off  [][2]int32
	silenced []int32
	level    [2]float32
}

func (s *fakeSynth) ProcessMidiMessage(channel, command, data1, data2 int32) {
	s.msgs = append(s.msgs, [4]int32{channel, command, data1, data2})
}

func (s *fakeSynth) NoteOn(channel, key, velocity int32) {
	s.on = append(s.on, [2]int32{channel, key})
}

func (s *fakeSynth) NoteOff(channel, key int32) {
	s.off = append(s.off, [2]int32{channel, key})
}

func (s *fakeSynth) NoteOffAllChannel(channel int32, immediate bool) {
	s.silenced = append(s.silenced, channel)
}

func (s *fakeSynth) Render(left, right []float32) {
	for i := range left {
		left[i] = s.level[0]
		right[i] = s.level[1]
	}
}

func TestSoundFontInstrument(t *testing.T) {
	s := &fakeSynth{}
	e := newSoundFontEngine(s, 8000)

	inst, err := e.CreateInstrument(Spec{Channel: 2, Program: 5, GM: true})
	require.NoError(t, err)
	assert.Equal(t, [][4]int32{{2, 0xC0, 5, 0}}, s.msgs)

	require.NoError(t, inst.PlayNote(60, 100))
	require.NoError(t, inst.StopNote(60))
	assert.Equal(t, [][2]int32{{2, 60}}, s.on)
	assert.Equal(t, [][2]int32{{2, 60}}, s.off)

	require.NoError(t, inst.Dispose())
	assert.Empty(t, s.silenced, "nothing held")
	assert.ErrorIs(t, inst.PlayNote(60, 100), ErrDisposed)

	drums, err := e.CreateInstrument(Spec{Channel: sequencer.DrumChannel, Kind: "sampler", BaseNote: 36})
	require.NoError(t, err)
	assert.Len(t, s.msgs, 1, "no program change for the kit")
	require.NoError(t, drums.PlayNote(36, 90))
	require.NoError(t, drums.Dispose())
	require.NoError(t, drums.Dispose())
	assert.Equal(t, []int32{sequencer.DrumChannel}, s.silenced)
}

func TestSoundFontReadsPCM(t *testing.T) {
	s := &fakeSynth{level: [2]float32{0.5, -2}}
	e := newSoundFontEngine(s, 8000)

	p := make([]byte, 4*3+1)
	n, err := e.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 12, n, "whole frames only")
	for i := 0; i < 3; i++ {
		assert.Equal(t, int16(16383), int16(binary.LittleEndian.Uint16(p[i*4:])))
		assert.Equal(t, int16(-32767), int16(binary.LittleEndian.Uint16(p[i*4+2:])), "clipped")
	}
}

func TestSoundFontBounce(t *testing.T) {
	e := newSoundFontEngine(&fakeSynth{level: [2]float32{0.25, 0.25}}, 8000)
	path := filepath.Join(t.TempDir(), "bounce.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, e.Bounce(f, 500*time.Millisecond))
	require.NoError(t, f.Close())

	info, err := audio.ProbeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, info.SampleRate)
	assert.Equal(t, 2, info.Channels)
	assert.Equal(t, int64(4000), info.Frames)
}

func TestLoadSoundFontErrors(t *testing.T) {
	_, err := LoadSoundFont(filepath.Join(t.TempDir(), "missing.sf2"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewSoundFontEngine(strings.NewReader("not a soundfont"), 0)
	assert.Error(t, err)
}

func TestSoundFontThroughManager(t *testing.T) {
	p, lead, _ := newProject(t)
	s := &fakeSynth{}
	m := NewManager(newSoundFontEngine(s, 8000), p)
	defer m.Close()

	m.NoteOn(p.Voice(lead), 64, 80)
	m.NoteOff(p.Voice(lead), 64)
	assert.Equal(t, [][4]int32{{2, 0xC0, 5, 0}}, s.msgs)
	assert.Equal(t, [][2]int32{{2, 64}}, s.on)
	assert.Equal(t, [][2]int32{{2, 64}}, s.off)
}
