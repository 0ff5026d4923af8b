package sequencer

import (
	"sort"

	"go-arrange/midi"
)

// ScheduledEvent is a note message for one track at an absolute tick.
// Event.Time is the same position in seconds from the song start.
type ScheduledEvent struct {
	midi.Event
	Tick    int64
	TrackID string
}

// Audible reports whether a track plays under the mute and solo rules:
// mute always wins, and once any track is soloed only soloed tracks play.
// Drum rows also take their drum track's mute and solo.
func (p *Project) Audible(t *Track) bool {
	muted, _ := p.mixState(t)
	if muted {
		return false
	}
	if !p.anySolo() {
		return true
	}
	_, solo := p.mixState(t)
	return solo
}

func (p *Project) mixState(t *Track) (muted, solo bool) {
	muted, solo = t.Mix.Mute, t.Mix.Solo
	if parent := p.DrumParent(t.ID); parent != nil {
		muted = muted || parent.Mix.Mute
		solo = solo || parent.Mix.Solo
	}
	return muted, solo
}

func (p *Project) anySolo() bool {
	for _, t := range p.Tracks {
		if t.Mix.Solo {
			return true
		}
	}
	return false
}

// Schedule flattens every audible note track into time ordered note-on
// and note-off events. Notes that start before from are skipped. At equal
// ticks note-offs sort first so a repeated note retriggers cleanly.
func Schedule(p *Project, from int64) []ScheduledEvent {
	c := p.Clock()
	var events []ScheduledEvent
	for _, t := range p.Tracks {
		if !t.HasNotes() || !p.Audible(t) {
			continue
		}
		offset := p.TrackOffset(t)
		channel := p.Channel(t)
		for _, n := range t.Notes() {
			start := offset + n.Column
			if start < from {
				continue
			}
			end := start + n.Length
			pitch := uint8(n.Row)
			events = append(events,
				ScheduledEvent{
					Event:   midi.Event{Time: c.TickToTime(start), Type: midi.NoteOn, Channel: channel, Note: pitch, Velocity: n.Velocity},
					Tick:    start,
					TrackID: t.ID,
				},
				ScheduledEvent{
					Event:   midi.Event{Time: c.TickToTime(end), Type: midi.NoteOff, Channel: channel, Note: pitch},
					Tick:    end,
					TrackID: t.ID,
				},
			)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Tick != b.Tick {
			return a.Tick < b.Tick
		}
		if a.Type != b.Type {
			return a.Type == midi.NoteOff
		}
		return false
	})
	return events
}
