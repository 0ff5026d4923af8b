package sequencer

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-arrange/timeline"
)

func stripIDs(ns Notes) Notes {
	out := ns.Clone()
	for i := range out {
		out[i].ID = ""
	}
	return out
}

func TestMIDIRoundTrip(t *testing.T) {
	src := NewProject("song")
	src.BPM = 96
	src.TimeSignature = timeline.TimeSignature{Num: 3, Den: 4}
	tr := newMIDITrack(t, src, "Lead")
	require.NoError(t, src.SetChannel(tr.ID, 2))
	require.NoError(t, src.SetInstrument(tr.ID, ProgramInstrument(81)))
	require.NoError(t, src.AddNote(tr.ID, Note{Row: 60, Column: 0, Length: 240, Velocity: 64}))
	require.NoError(t, src.AddNote(tr.ID, Note{Row: 67, Column: 720, Length: 1440, Velocity: 127}))
	require.NoError(t, src.AddNote(tr.ID, Note{Row: 67, Column: 2160, Length: 30, Velocity: 1}))

	var buf bytes.Buffer
	require.NoError(t, ExportMIDI(src, &buf))

	dst := NewProject("imported")
	tracks, err := ImportMIDI(dst, &buf)
	require.NoError(t, err)
	require.Len(t, tracks, 1)

	assert.Equal(t, 96.0, dst.BPM)
	assert.Equal(t, src.TimeSignature, dst.TimeSignature)
	got := dst.Tracks[0]
	assert.Equal(t, "Lead", got.Name)
	ms := got.Settings.(*MIDISettings)
	assert.Equal(t, uint8(2), ms.Channel)
	assert.Equal(t, "gm:81", ms.Instrument)
	assert.Equal(t, stripIDs(mustNotes(t, src, tr.ID)), stripIDs(ms.Notes))

	// the whole import is one step
	require.NoError(t, dst.Undo())
	assert.Empty(t, dst.Tracks)
	assert.Equal(t, timeline.DefaultBPM, dst.BPM)
}

func TestMIDIExportAppliesOffsetsAndDrumChannel(t *testing.T) {
	p := NewProject("kit")
	drum, dm := newDrumTrack(t, p, 1)
	require.NoError(t, dm.Toggle(0, 1))
	require.NoError(t, p.MoveTrack(drum.ID, timeline.Position{X: p.Clock().TickToPixel(480)}))
	require.NoError(t, p.SetMix(drum.ID, Mix{Volume: 0.8, Mute: true}))

	data := ToMIDI(p)
	require.Len(t, data.Tracks, 1, "mute does not affect export")
	assert.Equal(t, uint8(DrumChannel), data.Tracks[0].Channel)
	require.Len(t, data.Tracks[0].Notes, 1)
	assert.InDelta(t, p.Clock().TickToTime(480+120), data.Tracks[0].Notes[0].Time, 1e-9)
}

func TestImportIntoExistingKeepsTempo(t *testing.T) {
	src := NewProject("src")
	src.BPM = 140
	tr := newMIDITrack(t, src, "Lead")
	require.NoError(t, src.AddNote(tr.ID, Note{Row: 60, Column: 480, Length: 480}))
	path := filepath.Join(t.TempDir(), "lead.mid")
	require.NoError(t, ExportMIDIFile(src, path))

	dst := NewProject("dst")
	newMIDITrack(t, dst, "Existing")
	tracks, err := ImportMIDIFile(dst, path)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, timeline.DefaultBPM, dst.BPM)
	// notes keep their beat position
	assert.Equal(t, int64(480), tracks[0].Notes()[0].Column)
	assert.Greater(t, tracks[0].Position.Y, dst.Tracks[0].Position.Y)
}

func TestImportGarbage(t *testing.T) {
	_, err := ImportMIDI(NewProject("x"), bytes.NewReader([]byte("not midi")))
	assert.Error(t, err)
}

func TestProgramNames(t *testing.T) {
	prog, ok := ParseProgram("gm:12")
	assert.True(t, ok)
	assert.Equal(t, uint8(12), prog)
	_, ok = ParseProgram("gm:200")
	assert.False(t, ok)
	_, ok = ParseProgram("synth")
	assert.False(t, ok)
}
