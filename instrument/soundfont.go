package instrument

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// SampleRate is the default render rate of a SoundFontEngine
const SampleRate = 44100

const programChange = 0xC0

// synth is the part of *meltysynth.Synthesizer the engine drives
type synth interface {
	ProcessMidiMessage(channel, command, data1, data2 int32)
	NoteOn(channel, key, velocity int32)
	NoteOff(channel, key int32)
	NoteOffAllChannel(channel int32, immediate bool)
	Render(left, right []float32)
}

// SoundFontEngine synthesizes in process from a .sf2 file. Notes go to a
// meltysynth synthesizer shared by all instruments; the audio is pulled
// with Read (16 bit little endian stereo) or Render.
type SoundFontEngine struct {
	mu          sync.Mutex
	synth       synth
	sampleRate  int
	left, right []float32
}

// LoadSoundFont reads a SoundFont from disk
func LoadSoundFont(path string, sampleRate int) (*SoundFontEngine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	e, err := NewSoundFontEngine(f, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("soundfont %s: %w", path, err)
	}
	return e, nil
}

// NewSoundFontEngine parses a SoundFont and builds a synthesizer for it.
// sampleRate <= 0 means SampleRate.
func NewSoundFontEngine(r io.Reader, sampleRate int) (*SoundFontEngine, error) {
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}
	sf, err := meltysynth.NewSoundFont(r)
	if err != nil {
		return nil, err
	}
	s, err := meltysynth.NewSynthesizer(sf, meltysynth.NewSynthesizerSettings(int32(sampleRate)))
	if err != nil {
		return nil, err
	}
	return newSoundFontEngine(s, sampleRate), nil
}

func newSoundFontEngine(s synth, sampleRate int) *SoundFontEngine {
	return &SoundFontEngine{synth: s, sampleRate: sampleRate}
}

// SampleRate is the rate Render and Read produce
func (e *SoundFontEngine) SampleRate() int { return e.sampleRate }

// CreateInstrument selects the GM program on the spec's channel. The
// synthesizer treats the drum channel as percussion by itself.
func (e *SoundFontEngine) CreateInstrument(spec Spec) (Instrument, error) {
	if spec.GM {
		e.mu.Lock()
		e.synth.ProcessMidiMessage(int32(spec.Channel), programChange, int32(spec.Program), 0)
		e.mu.Unlock()
	}
	return &sfInstrument{engine: e, channel: int32(spec.Channel), held: make(map[uint8]bool)}, nil
}

// Render fills left and right with the next samples
func (e *SoundFontEngine) Render(left, right []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.synth.Render(left, right)
}

// Read renders len(p)/4 frames as interleaved signed 16 bit stereo, the
// format an audio output device plays. It never ends.
func (e *SoundFontEngine) Read(p []byte) (int, error) {
	frames := len(p) / 4
	e.mu.Lock()
	defer e.mu.Unlock()
	if cap(e.left) < frames {
		e.left = make([]float32, frames)
		e.right = make([]float32, frames)
	}
	left, right := e.left[:frames], e.right[:frames]
	e.synth.Render(left, right)
	for i := 0; i < frames; i++ {
		putSample(p[i*4:], left[i])
		putSample(p[i*4+2:], right[i])
	}
	return frames * 4, nil
}

func toInt16(f float32) int16 {
	return int16(math.Max(-1, math.Min(1, float64(f))) * math.MaxInt16)
}

func putSample(b []byte, f float32) {
	v := uint16(toInt16(f))
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

// Bounce renders d of audio into a 16 bit stereo WAV file
func (e *SoundFontEngine) Bounce(w io.WriteSeeker, d time.Duration) error {
	frames := int(d.Seconds() * float64(e.sampleRate))
	left := make([]float32, frames)
	right := make([]float32, frames)
	e.Render(left, right)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: e.sampleRate},
		Data:           make([]int, 2*frames),
		SourceBitDepth: 16,
	}
	for i := range left {
		buf.Data[2*i] = int(toInt16(left[i]))
		buf.Data[2*i+1] = int(toInt16(right[i]))
	}
	enc := wav.NewEncoder(w, e.sampleRate, 16, 2, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("bounce: %w", err)
	}
	return enc.Close()
}

type sfInstrument struct {
	engine   *SoundFontEngine
	channel  int32
	held     map[uint8]bool
	disposed bool
}

func (i *sfInstrument) PlayNote(pitch, velocity uint8) error {
	e := i.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}
	i.held[pitch] = true
	e.synth.NoteOn(i.channel, int32(pitch), int32(velocity))
	return nil
}

func (i *sfInstrument) StopNote(pitch uint8) error {
	e := i.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}
	delete(i.held, pitch)
	e.synth.NoteOff(i.channel, int32(pitch))
	return nil
}

// Dispose lets held notes release. Like MIDI out, the channel may be
// shared, so it is only touched when this instrument still sounds.
func (i *sfInstrument) Dispose() error {
	e := i.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if i.disposed {
		return nil
	}
	i.disposed = true
	if len(i.held) > 0 {
		e.synth.NoteOffAllChannel(i.channel, false)
	}
	i.held = nil
	return nil
}
