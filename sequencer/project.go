package sequencer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"go-arrange/timeline"
)

var (
	ErrTrackNotFound = errors.New("track not found")
	ErrNoteNotFound  = errors.New("note not found")
	ErrNoNotes       = errors.New("track has no note list")
	ErrNotDrum       = errors.New("track is not a drum track")
)

// Project is the document being edited. All edits go through Do so they
// land in the project's history.
type Project struct {
	ID            string                 `json:"id" yaml:"id"`
	Name          string                 `json:"name" yaml:"name"`
	BPM           float64                `json:"bpm" yaml:"bpm"`
	TimeSignature timeline.TimeSignature `json:"timeSignature" yaml:"timeSignature"`
	PixelsPerBeat float64                `json:"pixelsPerBeat,omitempty" yaml:"pixelsPerBeat,omitempty"`
	StepsPerBeat  int                    `json:"stepsPerBeat,omitempty" yaml:"stepsPerBeat,omitempty"`
	Tracks        []*Track               `json:"tracks" yaml:"tracks"`

	history History
}

// NewProject creates an empty 120bpm 4/4 project
func NewProject(name string) *Project {
	return &Project{
		ID:            uuid.NewString(),
		Name:          name,
		BPM:           timeline.DefaultBPM,
		TimeSignature: timeline.CommonTime,
	}
}

// Clock converts positions for this project's tempo and grid
func (p *Project) Clock() timeline.Clock {
	c := timeline.NewClock(p.BPM, p.TimeSignature)
	if p.PixelsPerBeat > 0 {
		c.PixelsPerBeat = p.PixelsPerBeat
	}
	if p.StepsPerBeat != 0 {
		c.StepsPerBeat = p.StepsPerBeat
	}
	return c
}

// Validate checks tempo, meter and the tracks after a load
func (p *Project) Validate() error {
	if err := p.Clock().Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(p.Tracks))
	for _, t := range p.Tracks {
		if t.ID == "" {
			return fmt.Errorf("track %q: missing id", t.Name)
		}
		if seen[t.ID] {
			return fmt.Errorf("track %s: duplicate id", t.ID)
		}
		seen[t.ID] = true
		if t.Settings == nil {
			return fmt.Errorf("track %s: missing settings", t.ID)
		}
		for _, n := range t.Notes() {
			if err := n.Validate(); err != nil {
				return fmt.Errorf("track %s: %w", t.ID, err)
			}
		}
	}
	return nil
}

// History exposes the command log
func (p *Project) History() *History { return &p.history }

// Do applies cmd and records it. A failed command leaves both the
// document and the history untouched.
func (p *Project) Do(cmd Command) error {
	if err := cmd.Do(p); err != nil {
		return err
	}
	p.history.push(cmd)
	return nil
}

// Undo reverses the last command
func (p *Project) Undo() error {
	h := &p.history
	if len(h.undo) == 0 {
		return ErrNothingToUndo
	}
	cmd := h.undo[len(h.undo)-1]
	if err := cmd.Undo(p); err != nil {
		return fmt.Errorf("undo %s: %w", cmd.Name(), err)
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, cmd)
	return nil
}

// Redo repeats the last undone command
func (p *Project) Redo() error {
	h := &p.history
	if len(h.redo) == 0 {
		return ErrNothingToRedo
	}
	cmd := h.redo[len(h.redo)-1]
	if err := cmd.Do(p); err != nil {
		return fmt.Errorf("redo %s: %w", cmd.Name(), err)
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, cmd)
	return nil
}

// Track looks up a track by ID
func (p *Project) Track(id string) *Track {
	for _, t := range p.Tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// TrackIndex returns the position of a track, or -1
func (p *Project) TrackIndex(id string) int {
	for i, t := range p.Tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (p *Project) track(id string) (*Track, error) {
	t := p.Track(id)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	return t, nil
}

func (p *Project) notes(trackID string) (*Notes, error) {
	t, err := p.track(trackID)
	if err != nil {
		return nil, err
	}
	ref := t.notesRef()
	if ref == nil {
		return nil, fmt.Errorf("%w: %s is %s", ErrNoNotes, trackID, t.Kind())
	}
	return ref, nil
}

func (p *Project) drum(trackID string) (*DrumSettings, error) {
	t, err := p.track(trackID)
	if err != nil {
		return nil, err
	}
	ds, ok := t.Settings.(*DrumSettings)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDrum, trackID)
	}
	return ds, nil
}

// Notes returns a copy of a track's notes
func (p *Project) Notes(trackID string) (Notes, error) {
	ref, err := p.notes(trackID)
	if err != nil {
		return nil, err
	}
	return ref.Clone(), nil
}

// DrumParent returns the drum track a sampler row belongs to, or nil
func (p *Project) DrumParent(trackID string) *Track {
	for _, t := range p.Tracks {
		ds, ok := t.Settings.(*DrumSettings)
		if !ok {
			continue
		}
		for _, id := range ds.Rows {
			if id == trackID {
				return t
			}
		}
	}
	return nil
}

// Children returns the sampler tracks behind a drum track's rows. Rows
// pointing at missing tracks come back nil.
func (p *Project) Children(drumID string) []*Track {
	ds, err := p.drum(drumID)
	if err != nil {
		return nil
	}
	out := make([]*Track, len(ds.Rows))
	for i, id := range ds.Rows {
		out[i] = p.Track(id)
	}
	return out
}

// End is the last tick any track occupies
func (p *Project) End() int64 {
	c := p.Clock()
	var end int64
	for _, t := range p.Tracks {
		if e := p.TrackOffset(t) + t.Length(c); e > end {
			end = e
		}
	}
	return end
}

// TrackOffset is where a track starts on the timeline. Drum rows follow
// their drum track.
func (p *Project) TrackOffset(t *Track) int64 {
	if parent := p.DrumParent(t.ID); parent != nil {
		t = parent
	}
	return t.Offset(p.Clock())
}

// AddTrack appends a track
func (p *Project) AddTrack(t *Track) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return p.Do(&addTrack{track: t, index: len(p.Tracks)})
}

// RemoveTrack deletes a track. A drum track takes its rows with it; a
// drum row is unlinked from its drum track first.
func (p *Project) RemoveTrack(id string) error {
	t, err := p.track(id)
	if err != nil {
		return err
	}

	batch := &Batch{Label: "remove track"}
	switch s := t.Settings.(type) {
	case *DrumSettings:
		for _, childID := range s.Rows {
			if p.Track(childID) != nil {
				batch.Commands = append(batch.Commands, &removeTrack{id: childID})
			}
		}
	case *SamplerSettings:
		if parent := p.DrumParent(id); parent != nil {
			ds := parent.Settings.(*DrumSettings)
			var rows []string
			for _, r := range ds.Rows {
				if r != id {
					rows = append(rows, r)
				}
			}
			batch.Commands = append(batch.Commands, &setDrumRows{id: parent.ID, before: ds.Rows, after: rows})
		}
	}
	batch.Commands = append(batch.Commands, &removeTrack{id: id})

	if len(batch.Commands) == 1 {
		return p.Do(batch.Commands[0])
	}
	return p.Do(batch)
}

// MoveTrack sets a track's timeline position. Callers snap first.
func (p *Project) MoveTrack(id string, pos timeline.Position) error {
	t, err := p.track(id)
	if err != nil {
		return err
	}
	if pos.X < 0 || pos.Y < 0 {
		return fmt.Errorf("track %s: position must not be negative", id)
	}
	if pos == t.Position {
		return nil
	}
	return p.Do(&moveTrack{id: id, before: t.Position, after: pos})
}

// SetMix replaces a track's mix settings
func (p *Project) SetMix(id string, mix Mix) error {
	t, err := p.track(id)
	if err != nil {
		return err
	}
	if err := mix.Validate(); err != nil {
		return err
	}
	if mix == t.Mix {
		return nil
	}
	return p.Do(&setMix{id: id, before: t.Mix, after: mix})
}

// RenameTrack changes a track's display name
func (p *Project) RenameTrack(id, name string) error {
	t, err := p.track(id)
	if err != nil {
		return err
	}
	return p.Do(&renameTrack{id: id, before: t.Name, after: name})
}

// SetInstrument changes the instrument of a MIDI track
func (p *Project) SetInstrument(id, instrument string) error {
	t, err := p.track(id)
	if err != nil {
		return err
	}
	ms, ok := t.Settings.(*MIDISettings)
	if !ok {
		return fmt.Errorf("track %s: instrument needs a midi track, got %s", id, t.Kind())
	}
	return p.Do(&setInstrument{id: id, before: ms.Instrument, after: instrument})
}

// SetChannel changes the output channel of a MIDI track
func (p *Project) SetChannel(id string, channel uint8) error {
	t, err := p.track(id)
	if err != nil {
		return err
	}
	ms, ok := t.Settings.(*MIDISettings)
	if !ok {
		return fmt.Errorf("track %s: channel needs a midi track, got %s", id, t.Kind())
	}
	if channel > 15 {
		return fmt.Errorf("track %s: channel %d out of range 0-15", id, channel)
	}
	if channel == ms.Channel {
		return nil
	}
	return p.Do(&setChannel{id: id, before: ms.Channel, after: channel})
}

// SetTempo changes the project bpm
func (p *Project) SetTempo(bpm float64) error {
	if err := timeline.NewClock(bpm, p.TimeSignature).Validate(); err != nil {
		return err
	}
	return p.Do(&setTempo{before: p.BPM, after: bpm})
}

// SetTimeSignature changes the project meter
func (p *Project) SetTimeSignature(ts timeline.TimeSignature) error {
	if err := ts.Validate(); err != nil {
		return err
	}
	return p.Do(&setTimeSignature{before: p.TimeSignature, after: ts})
}

// AddNote inserts a note into a MIDI or sampler track. A zero velocity
// becomes DefaultVelocity and a missing ID is generated.
func (p *Project) AddNote(trackID string, n Note) error {
	if n.Velocity == 0 {
		n.Velocity = DefaultVelocity
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := n.Validate(); err != nil {
		return err
	}
	return p.Do(&addNote{trackID: trackID, note: n})
}

// RemoveNote deletes the first note, in note order, that starts exactly at
// tick with the given pitch.
func (p *Project) RemoveNote(trackID string, tick int64, pitch int) error {
	ref, err := p.notes(trackID)
	if err != nil {
		return err
	}
	i := ref.FindAt(tick, pitch)
	if i < 0 {
		return fmt.Errorf("%w: tick %d pitch %d", ErrNoteNotFound, tick, pitch)
	}
	return p.Do(&removeNote{trackID: trackID, note: (*ref)[i]})
}

// DeleteNote deletes a note by ID
func (p *Project) DeleteNote(trackID, noteID string) error {
	n, err := p.note(trackID, noteID)
	if err != nil {
		return err
	}
	return p.Do(&removeNote{trackID: trackID, note: n})
}

// MoveNote sets a note's start tick and pitch
func (p *Project) MoveNote(trackID, noteID string, column int64, row int) error {
	n, err := p.note(trackID, noteID)
	if err != nil {
		return err
	}
	moved := n
	moved.Column = column
	moved.Row = row
	return p.updateNote(trackID, n, moved, "move note")
}

// ResizeNote sets a note's length
func (p *Project) ResizeNote(trackID, noteID string, length int64) error {
	n, err := p.note(trackID, noteID)
	if err != nil {
		return err
	}
	resized := n
	resized.Length = length
	return p.updateNote(trackID, n, resized, "resize note")
}

// SetVelocity sets a note's velocity
func (p *Project) SetVelocity(trackID, noteID string, velocity uint8) error {
	n, err := p.note(trackID, noteID)
	if err != nil {
		return err
	}
	changed := n
	changed.Velocity = velocity
	return p.updateNote(trackID, n, changed, "set velocity")
}

func (p *Project) updateNote(trackID string, before, after Note, name string) error {
	if err := after.Validate(); err != nil {
		return err
	}
	if before == after {
		return nil
	}
	return p.Do(&updateNote{trackID: trackID, before: before, after: after, name: name})
}

// SetNotes replaces a track's whole note list
func (p *Project) SetNotes(trackID string, notes Notes) error {
	ref, err := p.notes(trackID)
	if err != nil {
		return err
	}
	after := notes.Clone()
	for i := range after {
		if after[i].ID == "" {
			after[i].ID = uuid.NewString()
		}
		if after[i].Velocity == 0 {
			after[i].Velocity = DefaultVelocity
		}
		if err := after[i].Validate(); err != nil {
			return err
		}
	}
	after.Sort()
	return p.Do(&setNotes{trackID: trackID, before: ref.Clone(), after: after})
}

func (p *Project) note(trackID, noteID string) (Note, error) {
	ref, err := p.notes(trackID)
	if err != nil {
		return Note{}, err
	}
	i := ref.Index(noteID)
	if i < 0 {
		return Note{}, fmt.Errorf("%w: %s", ErrNoteNotFound, noteID)
	}
	return (*ref)[i], nil
}
