package sequencer

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go-arrange/debug"
	"go-arrange/midi"
	"go-arrange/timeline"
)

// DrumChannel is the General MIDI percussion channel (10, zero based)
const DrumChannel = 9

const programPrefix = "gm:"

// ProgramInstrument names the General MIDI program as an instrument
func ProgramInstrument(program uint8) string {
	return programPrefix + strconv.Itoa(int(program))
}

// ParseProgram extracts the General MIDI program of an instrument name.
// Instruments that are not GM programs report false.
func ParseProgram(instrument string) (uint8, bool) {
	if !strings.HasPrefix(instrument, programPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(instrument, programPrefix))
	if err != nil || n < 0 || n > 127 {
		return 0, false
	}
	return uint8(n), true
}

// Channel is the MIDI channel a track plays on
func (p *Project) Channel(t *Track) uint8 {
	switch s := t.Settings.(type) {
	case *MIDISettings:
		return s.Channel
	case *SamplerSettings:
		if p.DrumParent(t.ID) != nil {
			return DrumChannel
		}
	}
	return 0
}

// ImportMIDI reads a standard MIDI file and appends one MIDI track per
// file track that has notes. An empty project takes the file's tempo and
// meter. The whole import is one undo step.
func ImportMIDI(p *Project, r io.Reader) ([]*Track, error) {
	data, err := midi.Read(r)
	if err != nil {
		return nil, fmt.Errorf("import midi: %w", err)
	}

	batch := &Batch{Label: "import midi"}
	if len(p.Tracks) == 0 {
		batch.Commands = append(batch.Commands,
			&setTempo{before: p.BPM, after: data.BPM},
			&setTimeSignature{before: p.TimeSignature, after: data.TimeSignature},
		)
	}

	// file positions are converted with the file's own tempo so notes
	// keep their bar and beat
	fileClock := data.Clock()
	snapper := timeline.NewSnapper(p.Clock())

	var added []*Track
	for i, mt := range data.Tracks {
		if len(mt.Notes) == 0 {
			continue
		}
		name := mt.Name
		if name == "" {
			name = fmt.Sprintf("MIDI %d", i+1)
		}
		t := NewTrack(name, &MIDISettings{
			Instrument: ProgramInstrument(mt.Instrument),
			Channel:    mt.Channel,
			Notes:      NotesFromTicks(midi.ToTicks(mt.Notes, fileClock)),
		})
		t.Position.Y = snapper.LaneY(len(p.Tracks) + len(added))
		batch.Commands = append(batch.Commands, &addTrack{track: t, index: len(p.Tracks) + len(added)})
		added = append(added, t)
	}

	if len(batch.Commands) == 0 {
		return nil, nil
	}
	if err := p.Do(batch); err != nil {
		return nil, err
	}
	debug.Log("midi", "imported %d tracks bpm=%.1f meter=%s", len(added), data.BPM, data.TimeSignature)
	return added, nil
}

// ImportMIDIFile is ImportMIDI from a path
func ImportMIDIFile(p *Project, path string) ([]*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ImportMIDI(p, f)
}

// ToMIDI flattens the note tracks of a project into seconds. Drum rows
// come out as their sampler tracks on the percussion channel. Mute and
// solo are not applied.
func ToMIDI(p *Project) *midi.Data {
	c := p.Clock()
	data := &midi.Data{BPM: p.BPM, TimeSignature: p.TimeSignature}
	for _, t := range p.Tracks {
		if !t.HasNotes() {
			continue
		}
		var program uint8
		if ms, ok := t.Settings.(*MIDISettings); ok {
			program, _ = ParseProgram(ms.Instrument)
		}
		data.Tracks = append(data.Tracks, midi.Track{
			Name:       t.Name,
			Channel:    p.Channel(t),
			Instrument: program,
			Notes:      midi.FromTicks(t.Notes().TickNotes(), c, p.TrackOffset(t)),
		})
	}
	return data
}

// ExportMIDI writes the project as a standard MIDI file
func ExportMIDI(p *Project, w io.Writer) error {
	if err := midi.Write(w, ToMIDI(p)); err != nil {
		return fmt.Errorf("export midi: %w", err)
	}
	return nil
}

// ExportMIDIFile is ExportMIDI to a path
func ExportMIDIFile(p *Project, path string) error {
	if err := midi.WriteFile(path, ToMIDI(p)); err != nil {
		return fmt.Errorf("export midi: %w", err)
	}
	return nil
}
