package sequencer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type playedNote struct {
	trackID  string
	on       bool
	pitch    uint8
	velocity uint8
}

func (n playedNote) String() string {
	if n.on {
		return fmt.Sprintf("%s on %d/%d", n.trackID, n.pitch, n.velocity)
	}
	return fmt.Sprintf("%s off %d", n.trackID, n.pitch)
}

// fakePlayer records what it is asked to play
type fakePlayer struct {
	mu       sync.Mutex
	notes    []playedNote
	channels []uint8
	released int
}

func (f *fakePlayer) NoteOn(v Voice, pitch, velocity uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, playedNote{trackID: v.Track.ID, on: true, pitch: pitch, velocity: velocity})
	f.channels = append(f.channels, v.Channel)
}

func (f *fakePlayer) NoteOff(v Voice, pitch uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, playedNote{trackID: v.Track.ID, pitch: pitch})
	f.channels = append(f.channels, v.Channel)
}

func (f *fakePlayer) StopAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
}

func (f *fakePlayer) played() []playedNote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]playedNote(nil), f.notes...)
}

// channelsPlayed is the channel of each call in played order
func (f *fakePlayer) channelsPlayed() []uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint8(nil), f.channels...)
}

func (f *fakePlayer) releases() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

func newMIDITrack(t *testing.T, p *Project, name string) *Track {
	t.Helper()
	tr := NewTrack(name, &MIDISettings{Instrument: ProgramInstrument(0)})
	require.NoError(t, p.AddTrack(tr))
	return tr
}

// newDrumTrack adds a drum track with one row per given kit slot
func newDrumTrack(t *testing.T, p *Project, rows int) (*Track, *DrumMachine) {
	t.Helper()
	drum := NewTrack("Drums", &DrumSettings{Steps: DefaultSteps, Kit: DefaultKit})
	require.NoError(t, p.AddTrack(drum))
	dm, err := NewDrumMachine(p, drum.ID, nil)
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		_, err := dm.AddRow(dm.NextSlot())
		require.NoError(t, err)
	}
	return drum, dm
}

func mustNotes(t *testing.T, p *Project, trackID string) Notes {
	t.Helper()
	ns, err := p.Notes(trackID)
	require.NoError(t, err)
	return ns
}
