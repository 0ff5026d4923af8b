package instrument

import (
	"context"
	"errors"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-arrange/sequencer"
)

func newProject(t *testing.T) (*sequencer.Project, *sequencer.Track, *sequencer.Track) {
	t.Helper()
	p := sequencer.NewProject("test")
	lead := sequencer.NewTrack("lead", &sequencer.MIDISettings{Instrument: sequencer.ProgramInstrument(5), Channel: 2})
	require.NoError(t, p.AddTrack(lead))
	drums := sequencer.NewTrack("drums", &sequencer.DrumSettings{Steps: 16, Kit: sequencer.DefaultKit})
	require.NoError(t, p.AddTrack(drums))
	dm, err := sequencer.NewDrumMachine(p, drums.ID, nil)
	require.NoError(t, err)
	kick, err := dm.AddRow(sequencer.GetKit("gm").Slots[0])
	require.NoError(t, err)
	return p, lead, kick
}

func TestManagerCreatesOncePerTrack(t *testing.T) {
	p, lead, kick := newProject(t)
	rec := NewRecordingEngine()
	m := NewManager(rec, p)

	m.NoteOn(p.Voice(lead), 60, 100)
	m.NoteOff(p.Voice(lead), 60)
	m.NoteOn(p.Voice(lead), 62, 90)
	m.NoteOn(p.Voice(kick), 36, 127)

	assert.Equal(t, []Call{
		{TrackID: lead.ID, Op: OpCreate, Channel: 2},
		{TrackID: lead.ID, Op: OpPlay, Channel: 2, Pitch: 60, Velocity: 100},
		{TrackID: lead.ID, Op: OpStop, Channel: 2, Pitch: 60},
		{TrackID: lead.ID, Op: OpPlay, Channel: 2, Pitch: 62, Velocity: 90},
		{TrackID: kick.ID, Op: OpCreate, Channel: sequencer.DrumChannel},
		{TrackID: kick.ID, Op: OpPlay, Channel: sequencer.DrumChannel, Pitch: 36, Velocity: 127},
	}, rec.Calls())
	assert.Equal(t, 2, m.Len())
}

func TestManagerRecreatesOnSettingsChange(t *testing.T) {
	p, lead, _ := newProject(t)
	rec := NewRecordingEngine()
	m := NewManager(rec, p)

	m.NoteOn(p.Voice(lead), 60, 100)
	require.NoError(t, p.SetChannel(lead.ID, 4))
	rec.Reset()
	m.NoteOn(p.Voice(p.Track(lead.ID)), 60, 100)

	assert.Equal(t, []Call{
		{TrackID: lead.ID, Op: OpDispose, Channel: 2},
		{TrackID: lead.ID, Op: OpCreate, Channel: 4},
		{TrackID: lead.ID, Op: OpPlay, Channel: 4, Pitch: 60, Velocity: 100},
	}, rec.Calls())
}

func TestStopAllAndSync(t *testing.T) {
	p, lead, kick := newProject(t)
	rec := NewRecordingEngine()
	m := NewManager(rec, p)

	m.NoteOn(p.Voice(lead), 60, 100)
	m.NoteOn(p.Voice(kick), 36, 100)
	rec.Reset()
	m.StopAll()
	assert.ElementsMatch(t, []Call{
		{TrackID: lead.ID, Op: OpStop, Channel: 2, Pitch: 60},
		{TrackID: kick.ID, Op: OpStop, Channel: sequencer.DrumChannel, Pitch: 36},
	}, rec.Calls())

	rec.Reset()
	m.StopAll()
	assert.Empty(t, rec.Calls(), "nothing is held after StopAll")

	require.NoError(t, p.RemoveTrack(lead.ID))
	m.Sync()
	assert.Equal(t, []Call{{TrackID: lead.ID, Op: OpDispose, Channel: 2}}, rec.Calls())
	assert.Equal(t, 1, m.Len())

	m.Close()
	assert.Equal(t, 0, m.Len())
}

func TestNoteOffWithoutInstrument(t *testing.T) {
	p, lead, _ := newProject(t)
	rec := NewRecordingEngine()
	m := NewManager(rec, p)
	m.NoteOff(p.Voice(lead), 60)
	assert.Empty(t, rec.Calls())
}

type failingEngine struct{}

func (failingEngine) CreateInstrument(Spec) (Instrument, error) {
	return nil, errors.New("no synth")
}

func TestEngineFailureIsSwallowed(t *testing.T) {
	p, lead, _ := newProject(t)
	m := NewManager(failingEngine{}, p)
	assert.NotPanics(t, func() { m.NoteOn(p.Voice(lead), 60, 100) })
	assert.Equal(t, 0, m.Len())
}

func TestMIDIOutEngine(t *testing.T) {
	var sent []gomidi.Message
	e := NewMIDIOutEngine(func(msg gomidi.Message) error {
		sent = append(sent, msg)
		return nil
	})

	inst, err := e.CreateInstrument(Spec{Channel: 3, Program: 40, GM: true})
	require.NoError(t, err)
	require.NoError(t, inst.PlayNote(64, 80))
	require.NoError(t, inst.StopNote(64))
	require.NoError(t, inst.PlayNote(65, 80))
	require.NoError(t, inst.Dispose())
	require.NoError(t, inst.Dispose())
	assert.ErrorIs(t, inst.PlayNote(60, 1), ErrDisposed)

	require.Len(t, sent, 5)
	var ch, program, key, vel, cc, val uint8
	assert.True(t, sent[0].GetProgramChange(&ch, &program))
	assert.Equal(t, uint8(3), ch)
	assert.Equal(t, uint8(40), program)
	assert.True(t, sent[1].GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(64), key)
	assert.True(t, sent[2].GetNoteOff(&ch, &key, &vel))
	assert.True(t, sent[4].GetControlChange(&ch, &cc, &val))
	assert.Equal(t, uint8(ccAllNotesOff), cc)
}

func TestMIDIOutEngineNoProgramForSampler(t *testing.T) {
	var sent []gomidi.Message
	e := NewMIDIOutEngine(func(msg gomidi.Message) error {
		sent = append(sent, msg)
		return nil
	})
	inst, err := e.CreateInstrument(Spec{Channel: 9, Kind: "sampler"})
	require.NoError(t, err)
	require.NoError(t, inst.Dispose())
	assert.Empty(t, sent)
}

func TestTransportThroughManagerWhileEditing(t *testing.T) {
	p, _, kick := newProject(t)
	p.BPM = 600
	for i := 0; i < 40; i++ {
		require.NoError(t, p.AddNote(kick.ID, sequencer.Note{Row: 36, Column: int64(i) * 120, Length: 60}))
	}
	rec := NewRecordingEngine()
	m := NewManager(rec, p)
	transport := sequencer.NewManager(p, m)
	require.NoError(t, transport.Play(context.Background()))

	deadline := time.After(5 * time.Second)
edits:
	for {
		select {
		case <-transport.UpdateChan:
			break edits
		case <-deadline:
			t.Fatal("transport did not reach the end")
		default:
		}
		extra := sequencer.NewTrack("extra", &sequencer.MIDISettings{})
		require.NoError(t, p.AddTrack(extra))
		require.NoError(t, p.RemoveTrack(extra.ID))
		m.Sync()
	}

	plays := 0
	for _, c := range rec.Calls() {
		assert.Equal(t, kick.ID, c.TrackID)
		assert.Equal(t, uint8(sequencer.DrumChannel), c.Channel)
		if c.Op == OpPlay {
			plays++
		}
	}
	assert.Equal(t, 40, plays)
}
