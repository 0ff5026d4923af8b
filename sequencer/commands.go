package sequencer

import (
	"fmt"

	"go-arrange/timeline"
)

// Note edits

type addNote struct {
	trackID string
	note    Note
}

func (c *addNote) Name() string { return "add note" }

func (c *addNote) Do(p *Project) error {
	ref, err := p.notes(c.trackID)
	if err != nil {
		return err
	}
	*ref, _ = ref.insert(c.note)
	return nil
}

func (c *addNote) Undo(p *Project) error {
	ref, err := p.notes(c.trackID)
	if err != nil {
		return err
	}
	i := ref.Index(c.note.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, c.note.ID)
	}
	*ref = ref.removeAt(i)
	return nil
}

type removeNote struct {
	trackID string
	note    Note
}

func (c *removeNote) Name() string { return "remove note" }

func (c *removeNote) Do(p *Project) error {
	return (&addNote{trackID: c.trackID, note: c.note}).Undo(p)
}

func (c *removeNote) Undo(p *Project) error {
	return (&addNote{trackID: c.trackID, note: c.note}).Do(p)
}

type updateNote struct {
	trackID       string
	before, after Note
	name          string
}

func (c *updateNote) Name() string { return c.name }

func (c *updateNote) Do(p *Project) error { return c.swap(p, c.before, c.after) }

func (c *updateNote) Undo(p *Project) error { return c.swap(p, c.after, c.before) }

func (c *updateNote) swap(p *Project, from, to Note) error {
	ref, err := p.notes(c.trackID)
	if err != nil {
		return err
	}
	i := ref.Index(from.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, from.ID)
	}
	ns := ref.removeAt(i)
	*ref, _ = ns.insert(to)
	return nil
}

// setNotes swaps one track's list. Used for bulk edits such as clearing a
// drum row or importing, where a per-note log would be larger than the list.
type setNotes struct {
	trackID       string
	before, after Notes
}

func (c *setNotes) Name() string { return "set notes" }

func (c *setNotes) Do(p *Project) error {
	ref, err := p.notes(c.trackID)
	if err != nil {
		return err
	}
	*ref = c.after.Clone()
	return nil
}

func (c *setNotes) Undo(p *Project) error {
	ref, err := p.notes(c.trackID)
	if err != nil {
		return err
	}
	*ref = c.before.Clone()
	return nil
}

// Track edits

type addTrack struct {
	track *Track
	index int
}

func (c *addTrack) Name() string { return "add track" }

func (c *addTrack) Do(p *Project) error {
	if p.Track(c.track.ID) != nil {
		return fmt.Errorf("track %s already exists", c.track.ID)
	}
	if c.index < 0 || c.index > len(p.Tracks) {
		c.index = len(p.Tracks)
	}
	p.Tracks = append(p.Tracks, nil)
	copy(p.Tracks[c.index+1:], p.Tracks[c.index:])
	p.Tracks[c.index] = c.track
	return nil
}

func (c *addTrack) Undo(p *Project) error {
	i := p.TrackIndex(c.track.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, c.track.ID)
	}
	p.Tracks = append(p.Tracks[:i], p.Tracks[i+1:]...)
	return nil
}

type removeTrack struct {
	id    string
	track *Track
	index int
}

func (c *removeTrack) Name() string { return "remove track" }

func (c *removeTrack) Do(p *Project) error {
	i := p.TrackIndex(c.id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, c.id)
	}
	c.track = p.Tracks[i]
	c.index = i
	p.Tracks = append(p.Tracks[:i], p.Tracks[i+1:]...)
	return nil
}

func (c *removeTrack) Undo(p *Project) error {
	return (&addTrack{track: c.track, index: c.index}).Do(p)
}

type moveTrack struct {
	id            string
	before, after timeline.Position
}

func (c *moveTrack) Name() string { return "move track" }

func (c *moveTrack) Do(p *Project) error { return c.set(p, c.after) }

func (c *moveTrack) Undo(p *Project) error { return c.set(p, c.before) }

func (c *moveTrack) set(p *Project, pos timeline.Position) error {
	t, err := p.track(c.id)
	if err != nil {
		return err
	}
	t.Position = pos
	return nil
}

type setMix struct {
	id            string
	before, after Mix
}

func (c *setMix) Name() string { return "set mix" }

func (c *setMix) Do(p *Project) error { return c.set(p, c.after) }

func (c *setMix) Undo(p *Project) error { return c.set(p, c.before) }

func (c *setMix) set(p *Project, m Mix) error {
	t, err := p.track(c.id)
	if err != nil {
		return err
	}
	t.Mix = m
	return nil
}

type renameTrack struct {
	id            string
	before, after string
}

func (c *renameTrack) Name() string { return "rename track" }

func (c *renameTrack) Do(p *Project) error { return c.set(p, c.after) }

func (c *renameTrack) Undo(p *Project) error { return c.set(p, c.before) }

func (c *renameTrack) set(p *Project, name string) error {
	t, err := p.track(c.id)
	if err != nil {
		return err
	}
	t.Name = name
	return nil
}

type setInstrument struct {
	id            string
	before, after string
}

func (c *setInstrument) Name() string { return "set instrument" }

func (c *setInstrument) Do(p *Project) error { return c.set(p, c.after) }

func (c *setInstrument) Undo(p *Project) error { return c.set(p, c.before) }

func (c *setInstrument) set(p *Project, instrument string) error {
	t, err := p.track(c.id)
	if err != nil {
		return err
	}
	ms, ok := t.Settings.(*MIDISettings)
	if !ok {
		return fmt.Errorf("track %s: not a midi track", c.id)
	}
	ms.Instrument = instrument
	return nil
}

// Drum edits

type setDrumRows struct {
	id            string
	before, after []string
}

func (c *setDrumRows) Name() string { return "set drum rows" }

func (c *setDrumRows) Do(p *Project) error { return c.set(p, c.after) }

func (c *setDrumRows) Undo(p *Project) error { return c.set(p, c.before) }

func (c *setDrumRows) set(p *Project, rows []string) error {
	ds, err := p.drum(c.id)
	if err != nil {
		return err
	}
	ds.Rows = append([]string(nil), rows...)
	return nil
}

type setDrumSteps struct {
	id            string
	before, after int
}

func (c *setDrumSteps) Name() string { return "set steps" }

func (c *setDrumSteps) Do(p *Project) error { return c.set(p, c.after) }

func (c *setDrumSteps) Undo(p *Project) error { return c.set(p, c.before) }

func (c *setDrumSteps) set(p *Project, steps int) error {
	ds, err := p.drum(c.id)
	if err != nil {
		return err
	}
	ds.Steps = steps
	return nil
}

type setDrumKit struct {
	id            string
	before, after string
}

func (c *setDrumKit) Name() string { return "set kit" }

func (c *setDrumKit) Do(p *Project) error { return c.set(p, c.after) }

func (c *setDrumKit) Undo(p *Project) error { return c.set(p, c.before) }

func (c *setDrumKit) set(p *Project, kit string) error {
	ds, err := p.drum(c.id)
	if err != nil {
		return err
	}
	ds.Kit = kit
	return nil
}

// Project edits

type setTempo struct {
	before, after float64
}

func (c *setTempo) Name() string { return "set tempo" }

func (c *setTempo) Do(p *Project) error {
	p.BPM = c.after
	return nil
}

func (c *setTempo) Undo(p *Project) error {
	p.BPM = c.before
	return nil
}

type setTimeSignature struct {
	before, after timeline.TimeSignature
}

func (c *setTimeSignature) Name() string { return "set time signature" }

func (c *setTimeSignature) Do(p *Project) error {
	p.TimeSignature = c.after
	return nil
}

func (c *setTimeSignature) Undo(p *Project) error {
	p.TimeSignature = c.before
	return nil
}

type setChannel struct {
	id            string
	before, after uint8
}

func (c *setChannel) Name() string { return "set channel" }

func (c *setChannel) Do(p *Project) error { return c.set(p, c.after) }

func (c *setChannel) Undo(p *Project) error { return c.set(p, c.before) }

func (c *setChannel) set(p *Project, ch uint8) error {
	t, err := p.track(c.id)
	if err != nil {
		return err
	}
	ms, ok := t.Settings.(*MIDISettings)
	if !ok {
		return fmt.Errorf("track %s: not a midi track", c.id)
	}
	ms.Channel = ch
	return nil
}
