package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsOrdering(t *testing.T) {
	d := &Data{BPM: 120, Tracks: []Track{{
		Channel: 2,
		Notes: []Note{
			{Pitch: 60, Time: 0.5, Duration: 0.5, Velocity: 1},
			{Pitch: 60, Time: 0, Duration: 0.5, Velocity: 0.5},
		},
	}}}

	events := d.Events()
	require.Len(t, events, 4)
	assert.Equal(t, NoteOn, events[0].Type)
	assert.Equal(t, uint8(64), events[0].Velocity)
	assert.Equal(t, NoteOff, events[1].Type, "off before retrigger")
	assert.Equal(t, 0.5, events[1].Time)
	assert.Equal(t, NoteOn, events[2].Type)
	assert.Equal(t, uint8(127), events[2].Velocity)
	assert.Equal(t, uint8(2), events[3].Channel)
	assert.Equal(t, "1.000s off ch=2 note=60 vel=0", events[3].String())
}

func TestNoteName(t *testing.T) {
	assert.Equal(t, "C4", NoteName(60))
	assert.Equal(t, "A#-1", NoteName(10))
	assert.Equal(t, "?", NoteName(128))
}
