package sequencer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-arrange/timeline"
)

func TestUndoRestoresExactNotes(t *testing.T) {
	p := NewProject("undo")
	tr := newMIDITrack(t, p, "Lead")

	require.NoError(t, p.AddNote(tr.ID, Note{ID: "a", Row: 60, Column: 0, Length: 240}))
	afterCreate := mustNotes(t, p, tr.ID)

	require.NoError(t, p.MoveNote(tr.ID, "a", 480, 64))
	afterMove := mustNotes(t, p, tr.ID)

	require.NoError(t, p.ResizeNote(tr.ID, "a", 960))
	assert.Equal(t, Note{ID: "a", Row: 64, Column: 480, Length: 960, Velocity: DefaultVelocity}, mustNotes(t, p, tr.ID)[0])

	require.NoError(t, p.Undo())
	assert.Equal(t, afterMove, mustNotes(t, p, tr.ID))
	require.NoError(t, p.Undo())
	assert.Equal(t, afterCreate, mustNotes(t, p, tr.ID))
	require.NoError(t, p.Undo())
	assert.Empty(t, mustNotes(t, p, tr.ID))

	require.NoError(t, p.Redo())
	assert.Equal(t, afterCreate, mustNotes(t, p, tr.ID))
}

func TestNewEditClearsRedo(t *testing.T) {
	p := NewProject("redo")
	require.NoError(t, p.SetTempo(100))
	require.NoError(t, p.Undo())
	assert.True(t, p.History().CanRedo())

	require.NoError(t, p.SetTempo(90))
	assert.False(t, p.History().CanRedo())
	assert.ErrorIs(t, p.Redo(), ErrNothingToRedo)
	assert.Equal(t, "set tempo", p.History().UndoName())
}

func TestUndoEmpty(t *testing.T) {
	p := NewProject("empty")
	assert.ErrorIs(t, p.Undo(), ErrNothingToUndo)
}

func TestHistoryIsCapped(t *testing.T) {
	p := NewProject("cap")
	for i := 0; i < MaxUndo+5; i++ {
		require.NoError(t, p.SetTempo(float64(60+i)))
	}
	assert.Equal(t, MaxUndo, p.History().Len())

	for i := 0; i < MaxUndo; i++ {
		require.NoError(t, p.Undo())
	}
	assert.ErrorIs(t, p.Undo(), ErrNothingToUndo)
	// the five oldest edits fell off the log
	assert.Equal(t, float64(64), p.BPM)
}

func TestFailedEditLeavesHistory(t *testing.T) {
	p := NewProject("fail")
	audio := NewTrack("Vox", &AudioSettings{File: "vox.wav", Duration: 2})
	require.NoError(t, p.AddTrack(audio))
	depth := p.History().Len()

	err := p.AddNote(audio.ID, Note{Row: 60, Length: 120})
	assert.ErrorIs(t, err, ErrNoNotes)
	assert.ErrorIs(t, p.AddNote("missing", Note{Row: 60, Length: 120}), ErrTrackNotFound)
	assert.Equal(t, depth, p.History().Len())
}

type stubCommand struct {
	doErr, undoErr error
	undone         *int
}

func (c stubCommand) Name() string      { return "stub" }
func (c stubCommand) Do(*Project) error { return c.doErr }
func (c stubCommand) Undo(*Project) error {
	*c.undone++
	return c.undoErr
}

func TestBatchRollbackReportsUndoFailures(t *testing.T) {
	p := NewProject("batch")
	errDo := errors.New("do failed")
	errUndo := errors.New("undo failed")
	var undone int
	b := &Batch{Label: "paste", Commands: []Command{
		stubCommand{undone: &undone},
		stubCommand{undoErr: errUndo, undone: &undone},
		stubCommand{doErr: errDo, undone: &undone},
	}}

	err := p.Do(b)
	assert.ErrorIs(t, err, errDo)
	assert.ErrorIs(t, err, errUndo)
	assert.Equal(t, 2, undone, "both applied commands rolled back")
	assert.Equal(t, 0, p.History().Len())

	undone = 0
	b.Commands = b.Commands[:1]
	require.NoError(t, p.Do(b))
	assert.Equal(t, 0, undone)
}

func TestAddNoteDefaultsAndValidation(t *testing.T) {
	p := NewProject("notes")
	tr := newMIDITrack(t, p, "Keys")

	require.NoError(t, p.AddNote(tr.ID, Note{Row: 60, Column: 0, Length: 120}))
	ns := mustNotes(t, p, tr.ID)
	require.Len(t, ns, 1)
	assert.Equal(t, uint8(DefaultVelocity), ns[0].Velocity)
	assert.NotEmpty(t, ns[0].ID)

	assert.ErrorIs(t, p.AddNote(tr.ID, Note{Row: 60, Length: 0}), ErrNoteLength)
	assert.ErrorIs(t, p.AddNote(tr.ID, Note{Row: 128, Length: 10}), ErrNoteRow)
	assert.ErrorIs(t, p.AddNote(tr.ID, Note{Row: 60, Column: -1, Length: 10}), ErrNoteColumn)
	assert.ErrorIs(t, p.AddNote(tr.ID, Note{Row: 60, Length: 10, Velocity: 128}), ErrNoteVelocity)
	assert.Len(t, mustNotes(t, p, tr.ID), 1)
}

func TestNotesStayOrdered(t *testing.T) {
	p := NewProject("order")
	tr := newMIDITrack(t, p, "Keys")
	require.NoError(t, p.AddNote(tr.ID, Note{ID: "c", Row: 60, Column: 480, Length: 10}))
	require.NoError(t, p.AddNote(tr.ID, Note{ID: "b", Row: 62, Column: 0, Length: 10}))
	require.NoError(t, p.AddNote(tr.ID, Note{ID: "a", Row: 60, Column: 0, Length: 10}))
	require.NoError(t, p.MoveNote(tr.ID, "c", 0, 61))

	var ids []string
	for _, n := range mustNotes(t, p, tr.ID) {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"a", "c", "b"}, ids)
}

func TestRemoveNoteTakesFirstDuplicate(t *testing.T) {
	p := NewProject("dupes")
	tr := newMIDITrack(t, p, "Keys")
	require.NoError(t, p.AddNote(tr.ID, Note{ID: "b", Row: 60, Column: 0, Length: 120}))
	require.NoError(t, p.AddNote(tr.ID, Note{ID: "a", Row: 60, Column: 0, Length: 240}))

	require.NoError(t, p.RemoveNote(tr.ID, 0, 60))
	ns := mustNotes(t, p, tr.ID)
	require.Len(t, ns, 1)
	assert.Equal(t, "b", ns[0].ID)

	// exact match only
	assert.ErrorIs(t, p.RemoveNote(tr.ID, 1, 60), ErrNoteNotFound)
}

func TestSetMixValidates(t *testing.T) {
	p := NewProject("mix")
	tr := newMIDITrack(t, p, "Keys")
	assert.Error(t, p.SetMix(tr.ID, Mix{Volume: 1.5}))
	assert.Error(t, p.SetMix(tr.ID, Mix{Volume: 0.5, Pan: -2}))

	require.NoError(t, p.SetMix(tr.ID, Mix{Volume: 0.5, Mute: true}))
	assert.True(t, p.Track(tr.ID).Mix.Mute)
	require.NoError(t, p.Undo())
	assert.Equal(t, DefaultMix, p.Track(tr.ID).Mix)
}

func TestMoveTrackRejectsNegative(t *testing.T) {
	p := NewProject("move")
	tr := newMIDITrack(t, p, "Keys")
	assert.Error(t, p.MoveTrack(tr.ID, timeline.Position{X: -1}))

	depth := p.History().Len()
	require.NoError(t, p.MoveTrack(tr.ID, tr.Position))
	assert.Equal(t, depth, p.History().Len(), "no-op move is not recorded")
}

func TestTrackSettingsEdits(t *testing.T) {
	p := NewProject("settings")
	tr := newMIDITrack(t, p, "Keys")
	require.NoError(t, p.SetChannel(tr.ID, 3))
	require.NoError(t, p.SetInstrument(tr.ID, ProgramInstrument(33)))
	require.NoError(t, p.RenameTrack(tr.ID, "Bass"))
	assert.Error(t, p.SetChannel(tr.ID, 16))

	ms := p.Track(tr.ID).Settings.(*MIDISettings)
	assert.Equal(t, uint8(3), ms.Channel)
	assert.Equal(t, "gm:33", ms.Instrument)
	assert.Equal(t, "Bass", p.Track(tr.ID).Name)

	audio := NewTrack("Vox", &AudioSettings{})
	require.NoError(t, p.AddTrack(audio))
	assert.Error(t, p.SetChannel(audio.ID, 1))
	assert.Error(t, p.SetInstrument(audio.ID, "gm:1"))

	assert.Error(t, p.SetTempo(0))
	assert.Error(t, p.SetTimeSignature(timeline.TimeSignature{Num: 0, Den: 4}))
}

func TestRemoveDrumTrackTakesRows(t *testing.T) {
	p := NewProject("drums")
	newMIDITrack(t, p, "Keys")
	drum, dm := newDrumTrack(t, p, 2)
	require.NoError(t, dm.Toggle(0, 0))
	require.Len(t, p.Tracks, 4)
	before := make([]string, 0, len(p.Tracks))
	for _, tr := range p.Tracks {
		before = append(before, tr.ID)
	}

	require.NoError(t, p.RemoveTrack(drum.ID))
	require.Len(t, p.Tracks, 1)
	assert.Equal(t, "Keys", p.Tracks[0].Name)

	require.NoError(t, p.Undo())
	var after []string
	for _, tr := range p.Tracks {
		after = append(after, tr.ID)
	}
	assert.Equal(t, before, after)
	assert.True(t, dm.Cell(0, 0))
}

func TestRemoveDrumRowUnlinks(t *testing.T) {
	p := NewProject("row")
	drum, dm := newDrumTrack(t, p, 2)
	row0, err := dm.RowTrack(0)
	require.NoError(t, err)

	require.NoError(t, p.RemoveTrack(row0.ID))
	ds := p.Track(drum.ID).Settings.(*DrumSettings)
	assert.Len(t, ds.Rows, 1)
	assert.Nil(t, p.DrumParent(row0.ID))

	require.NoError(t, p.Undo())
	assert.Len(t, p.Track(drum.ID).Settings.(*DrumSettings).Rows, 2)
	assert.Equal(t, drum.ID, p.DrumParent(row0.ID).ID)
}

func TestProjectEndAndOffsets(t *testing.T) {
	p := NewProject("end")
	c := p.Clock()
	tr := newMIDITrack(t, p, "Keys")
	require.NoError(t, p.AddNote(tr.ID, Note{Row: 60, Column: 0, Length: 960}))
	require.NoError(t, p.MoveTrack(tr.ID, timeline.Position{X: c.TickToPixel(480)}))
	assert.Equal(t, int64(480+960), p.End())

	drum, dm := newDrumTrack(t, p, 1)
	require.NoError(t, p.MoveTrack(drum.ID, timeline.Position{X: c.TickToPixel(1920)}))
	row, err := dm.RowTrack(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1920), p.TrackOffset(row))
}

func TestValidateRejectsBadProjects(t *testing.T) {
	p := NewProject("bad")
	tr := newMIDITrack(t, p, "Keys")
	require.NoError(t, p.Validate())

	dup := tr.Clone()
	p.Tracks = append(p.Tracks, dup)
	assert.Error(t, p.Validate())

	p.Tracks = p.Tracks[:1]
	p.BPM = 0
	assert.Error(t, p.Validate())
}
