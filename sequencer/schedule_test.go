package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-arrange/midi"
	"go-arrange/timeline"
)

func scheduledTracks(events []ScheduledEvent) map[string]int {
	out := map[string]int{}
	for _, ev := range events {
		if ev.Type == midi.NoteOn {
			out[ev.TrackID]++
		}
	}
	return out
}

func TestScheduleMuteAndSolo(t *testing.T) {
	p := NewProject("mix")
	a := newMIDITrack(t, p, "A")
	b := newMIDITrack(t, p, "B")
	require.NoError(t, p.AddNote(a.ID, Note{Row: 60, Length: 120}))
	require.NoError(t, p.AddNote(b.ID, Note{Row: 64, Length: 120}))

	assert.Equal(t, map[string]int{a.ID: 1, b.ID: 1}, scheduledTracks(Schedule(p, 0)))

	require.NoError(t, p.SetMix(a.ID, Mix{Volume: 0.8, Mute: true}))
	assert.Equal(t, map[string]int{b.ID: 1}, scheduledTracks(Schedule(p, 0)))

	// mute wins over solo
	require.NoError(t, p.SetMix(a.ID, Mix{Volume: 0.8, Mute: true, Solo: true}))
	assert.Empty(t, scheduledTracks(Schedule(p, 0)))

	require.NoError(t, p.SetMix(a.ID, Mix{Volume: 0.8, Solo: true}))
	assert.Equal(t, map[string]int{a.ID: 1}, scheduledTracks(Schedule(p, 0)))
	assert.False(t, p.Audible(b))
}

func TestScheduleDrumRowsFollowParent(t *testing.T) {
	p := NewProject("drums")
	drum, dm := newDrumTrack(t, p, 2)
	require.NoError(t, dm.Toggle(0, 0))
	require.NoError(t, dm.Toggle(1, 2))
	require.NoError(t, p.MoveTrack(drum.ID, timeline.Position{X: p.Clock().TickToPixel(960)}))

	events := Schedule(p, 0)
	require.Len(t, events, 4)
	assert.Equal(t, int64(960), events[0].Tick)
	assert.Equal(t, uint8(DrumChannel), events[0].Channel)
	assert.Equal(t, int64(960+240), events[2].Tick)

	require.NoError(t, p.SetMix(drum.ID, Mix{Volume: 0.8, Mute: true}))
	assert.Empty(t, Schedule(p, 0))

	keys := newMIDITrack(t, p, "Keys")
	require.NoError(t, p.AddNote(keys.ID, Note{Row: 60, Length: 120}))
	require.NoError(t, p.SetMix(drum.ID, Mix{Volume: 0.8, Solo: true}))
	got := scheduledTracks(Schedule(p, 0))
	assert.Len(t, got, 2)
	assert.NotContains(t, got, keys.ID)
}

func TestScheduleOrderAndFrom(t *testing.T) {
	p := NewProject("order")
	tr := newMIDITrack(t, p, "Keys")
	require.NoError(t, p.AddNote(tr.ID, Note{Row: 60, Column: 0, Length: 480}))
	require.NoError(t, p.AddNote(tr.ID, Note{Row: 60, Column: 480, Length: 480, Velocity: 70}))

	events := Schedule(p, 0)
	require.Len(t, events, 4)
	assert.Equal(t, midi.NoteOff, events[1].Type, "off sorts before on at the same tick")
	assert.Equal(t, midi.NoteOn, events[2].Type)
	assert.Equal(t, uint8(70), events[2].Velocity)
	assert.InDelta(t, 0.5, events[2].Time, 1e-9)

	// a note that started before from is not restarted
	events = Schedule(p, 240)
	require.Len(t, events, 2)
	assert.Equal(t, int64(480), events[0].Tick)
}
