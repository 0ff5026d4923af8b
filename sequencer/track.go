package sequencer

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"go-arrange/timeline"
)

// TrackKind identifies the track variant
type TrackKind string

const (
	KindAudio   TrackKind = "audio"
	KindMIDI    TrackKind = "midi"
	KindSampler TrackKind = "sampler"
	KindDrum    TrackKind = "drum"
)

// Settings is the type-specific payload of a track. The set of variants
// is closed: AudioSettings, MIDISettings, SamplerSettings, DrumSettings.
type Settings interface {
	Kind() TrackKind
	clone() Settings
}

// AudioSettings is a clip of an audio file
type AudioSettings struct {
	File     string  `json:"file" yaml:"file"`
	Duration float64 `json:"duration" yaml:"duration"` // seconds
}

// MIDISettings drives an instrument from a note list
type MIDISettings struct {
	Instrument string `json:"instrument" yaml:"instrument"`
	Channel    uint8  `json:"channel" yaml:"channel"` // 0-15
	Notes      Notes  `json:"notes" yaml:"notes"`
}

// SamplerSettings plays a sample pitched relative to BaseNote
type SamplerSettings struct {
	Sample   string  `json:"sample" yaml:"sample"`
	BaseNote int     `json:"baseNote" yaml:"baseNote"`
	Attack   float64 `json:"attack" yaml:"attack"`
	Release  float64 `json:"release" yaml:"release"`
	Notes    Notes   `json:"notes" yaml:"notes"`
}

// DrumSettings groups sampler tracks into the rows of a step grid
type DrumSettings struct {
	Rows  []string `json:"rows" yaml:"rows"` // sampler track IDs
	Steps int      `json:"steps" yaml:"steps"`
	Kit   string   `json:"kit" yaml:"kit"`
}

func (*AudioSettings) Kind() TrackKind   { return KindAudio }
func (*MIDISettings) Kind() TrackKind    { return KindMIDI }
func (*SamplerSettings) Kind() TrackKind { return KindSampler }
func (*DrumSettings) Kind() TrackKind    { return KindDrum }

func (s *AudioSettings) clone() Settings { c := *s; return &c }

func (s *MIDISettings) clone() Settings {
	c := *s
	c.Notes = s.Notes.Clone()
	return &c
}

func (s *SamplerSettings) clone() Settings {
	c := *s
	c.Notes = s.Notes.Clone()
	return &c
}

func (s *DrumSettings) clone() Settings {
	c := *s
	c.Rows = append([]string(nil), s.Rows...)
	return &c
}

// Mix holds the channel strip
type Mix struct {
	Volume float64 `json:"volume" yaml:"volume"` // 0-1
	Pan    float64 `json:"pan" yaml:"pan"`       // -1 left, 1 right
	Mute   bool    `json:"mute" yaml:"mute"`
	Solo   bool    `json:"solo" yaml:"solo"`
}

// DefaultMix is unity-ish volume, centered
var DefaultMix = Mix{Volume: 0.8}

// Validate clamps nothing, it only reports
func (m Mix) Validate() error {
	if m.Volume < 0 || m.Volume > 1 {
		return fmt.Errorf("mix: volume %.2f out of range 0-1", m.Volume)
	}
	if m.Pan < -1 || m.Pan > 1 {
		return fmt.Errorf("mix: pan %.2f out of range -1-1", m.Pan)
	}
	return nil
}

// Track is one lane of the arrangement
type Track struct {
	ID       string
	Name     string
	Position timeline.Position
	Mix      Mix
	Settings Settings
}

// NewTrack creates a track of the given settings with a fresh ID
func NewTrack(name string, settings Settings) *Track {
	return &Track{
		ID:       uuid.NewString(),
		Name:     name,
		Mix:      DefaultMix,
		Settings: settings,
	}
}

// Kind is the variant of the track's settings
func (t *Track) Kind() TrackKind {
	if t.Settings == nil {
		return ""
	}
	return t.Settings.Kind()
}

// Clone returns a deep copy
func (t *Track) Clone() *Track {
	c := *t
	if t.Settings != nil {
		c.Settings = t.Settings.clone()
	}
	return &c
}

// notesRef points at the note list of note-bearing tracks
func (t *Track) notesRef() *Notes {
	switch s := t.Settings.(type) {
	case *MIDISettings:
		return &s.Notes
	case *SamplerSettings:
		return &s.Notes
	case *AudioSettings, *DrumSettings:
		return nil
	}
	return nil
}

// Notes returns the track's notes, nil for audio and drum tracks
func (t *Track) Notes() Notes {
	if ref := t.notesRef(); ref != nil {
		return *ref
	}
	return nil
}

// HasNotes reports whether the track carries a note list
func (t *Track) HasNotes() bool {
	return t.notesRef() != nil
}

// Length is the track content length in ticks
func (t *Track) Length(c timeline.Clock) int64 {
	switch s := t.Settings.(type) {
	case *AudioSettings:
		return c.TimeToTick(s.Duration)
	case *MIDISettings:
		return s.Notes.End()
	case *SamplerSettings:
		return s.Notes.End()
	case *DrumSettings:
		return int64(s.Steps) * c.StepTicks()
	}
	return 0
}

// Offset is the track start in ticks, derived from its x position
func (t *Track) Offset(c timeline.Clock) int64 {
	return c.PixelToTick(t.Position.X)
}

// trackFile is the on-disk shape: one populated pointer per variant
type trackFile struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Type     TrackKind         `json:"type" yaml:"type"`
	Position timeline.Position `json:"position" yaml:"position"`
	Mix      Mix               `json:"mix" yaml:"mix"`

	Audio   *AudioSettings   `json:"audio,omitempty" yaml:"audio,omitempty"`
	MIDI    *MIDISettings    `json:"midi,omitempty" yaml:"midi,omitempty"`
	Sampler *SamplerSettings `json:"sampler,omitempty" yaml:"sampler,omitempty"`
	Drum    *DrumSettings    `json:"drum,omitempty" yaml:"drum,omitempty"`
}

func (t *Track) toFile() trackFile {
	f := trackFile{
		ID:       t.ID,
		Name:     t.Name,
		Type:     t.Kind(),
		Position: t.Position,
		Mix:      t.Mix,
	}
	switch s := t.Settings.(type) {
	case *AudioSettings:
		f.Audio = s
	case *MIDISettings:
		f.MIDI = s
	case *SamplerSettings:
		f.Sampler = s
	case *DrumSettings:
		f.Drum = s
	}
	return f
}

func (t *Track) fromFile(f trackFile) error {
	t.ID = f.ID
	t.Name = f.Name
	t.Position = f.Position
	t.Mix = f.Mix
	switch f.Type {
	case KindAudio:
		if f.Audio == nil {
			f.Audio = &AudioSettings{}
		}
		t.Settings = f.Audio
	case KindMIDI:
		if f.MIDI == nil {
			f.MIDI = &MIDISettings{}
		}
		t.Settings = f.MIDI
	case KindSampler:
		if f.Sampler == nil {
			f.Sampler = &SamplerSettings{}
		}
		t.Settings = f.Sampler
	case KindDrum:
		if f.Drum == nil {
			f.Drum = &DrumSettings{}
		}
		t.Settings = f.Drum
	default:
		return fmt.Errorf("track %s: unknown type %q", f.ID, f.Type)
	}
	if ref := t.notesRef(); ref != nil {
		ref.Sort()
	}
	return nil
}

func (t *Track) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.toFile())
}

func (t *Track) UnmarshalJSON(data []byte) error {
	var f trackFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	return t.fromFile(f)
}

func (t *Track) MarshalYAML() (interface{}, error) {
	return t.toFile(), nil
}

func (t *Track) UnmarshalYAML(value *yaml.Node) error {
	var f trackFile
	if err := value.Decode(&f); err != nil {
		return err
	}
	return t.fromFile(f)
}
