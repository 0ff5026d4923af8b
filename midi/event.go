package midi

import (
	"fmt"
	"sort"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Event is one note message at an absolute time in seconds
type Event struct {
	Time     float64 // seconds from song start
	Type     uint8   // NoteOn, NoteOff, CC
	Channel  uint8   // 0-15
	Note     uint8
	Velocity uint8
}

func (e Event) String() string {
	kind := "cc"
	switch e.Type {
	case NoteOn:
		kind = "on"
	case NoteOff:
		kind = "off"
	}
	return fmt.Sprintf("%.3fs %s ch=%d note=%d vel=%d", e.Time, kind, e.Channel, e.Note, e.Velocity)
}

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the scientific pitch name, middle C (60) is C4
func NoteName(pitch int) string {
	if pitch < 0 || pitch > 127 {
		return "?"
	}
	return fmt.Sprintf("%s%d", noteNames[pitch%12], pitch/12-1)
}

// Events flattens the song into note on/off messages ordered by time.
// At equal times note-offs come first so a repeated pitch retriggers.
func (d *Data) Events() []Event {
	var events []Event
	for _, t := range d.Tracks {
		for _, n := range t.Notes {
			events = append(events,
				Event{Time: n.Time, Type: NoteOn, Channel: t.Channel, Note: n.Pitch, Velocity: VelocityToMIDI(n.Velocity)},
				Event{Time: n.Time + n.Duration, Type: NoteOff, Channel: t.Channel, Note: n.Pitch},
			)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Time != events[j].Time {
			return events[i].Time < events[j].Time
		}
		return events[i].Type == NoteOff && events[j].Type != NoteOff
	})
	return events
}
