package midi

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-arrange/timeline"
)

// FileResolution is the ticks per quarter note used when writing files.
// It is a multiple of timeline.PPQ so editor ticks survive a round trip.
const FileResolution = 2 * timeline.PPQ

type tempoChange struct {
	tick uint64
	bpm  float64
}

// tempoMap turns absolute file ticks into seconds
type tempoMap struct {
	resolution float64
	changes    []tempoChange
}

func (tm tempoMap) seconds(tick uint64) float64 {
	sec := 0.0
	last := uint64(0)
	bpm := timeline.DefaultBPM
	for _, c := range tm.changes {
		if c.tick >= tick {
			break
		}
		sec += float64(c.tick-last) / tm.resolution * 60 / bpm
		last = c.tick
		bpm = c.bpm
	}
	return sec + float64(tick-last)/tm.resolution*60/bpm
}

// ReadFile loads a standard MIDI file from disk
func ReadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses a standard MIDI file. Tempo and meter come from the first
// meta events found; later tempo changes still place notes correctly in
// seconds.
func Read(r io.Reader) (*Data, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMIDI, err)
	}
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, ErrSMPTE
	}

	data := &Data{
		BPM:           timeline.DefaultBPM,
		TimeSignature: timeline.CommonTime,
	}
	tm := tempoMap{resolution: float64(mt.Resolution())}

	// First pass: tempo and meter from every track
	haveMeter := false
	for _, tr := range s.Tracks {
		var abs uint64
		for _, ev := range tr {
			abs += uint64(ev.Delta)
			var bpm float64
			var num, den uint8
			switch {
			case ev.Message.GetMetaTempo(&bpm):
				tm.changes = append(tm.changes, tempoChange{tick: abs, bpm: bpm})
			case ev.Message.GetMetaMeter(&num, &den):
				if !haveMeter && num > 0 && den > 0 {
					data.TimeSignature = timeline.TimeSignature{Num: int(num), Den: int(den)}
					haveMeter = true
				}
			}
		}
	}
	sort.SliceStable(tm.changes, func(i, j int) bool { return tm.changes[i].tick < tm.changes[j].tick })
	if len(tm.changes) > 0 && tm.changes[0].bpm > 0 {
		data.BPM = tm.changes[0].bpm
	}

	for _, tr := range s.Tracks {
		data.Tracks = append(data.Tracks, readTrack(tr, tm)...)
	}
	return data, nil
}

type pendingNote struct {
	tick     uint64
	velocity uint8
}

// readTrack splits one file track by channel: a format 0 file carries
// every part in a single track, and each part keeps its own program.
func readTrack(tr smf.Track, tm tempoMap) []Track {
	var name string
	var order []uint8
	notes := map[uint8][]Note{}
	programs := map[uint8]uint8{}
	pending := map[[2]uint8][]pendingNote{}
	var abs uint64

	closeNote := func(key [2]uint8, end uint64) {
		queue := pending[key]
		if len(queue) == 0 {
			return
		}
		start := queue[0]
		pending[key] = queue[1:]
		startSec := tm.seconds(start.tick)
		notes[key[0]] = append(notes[key[0]], Note{
			Pitch:    key[1],
			Time:     startSec,
			Duration: tm.seconds(end) - startSec,
			Velocity: float64(start.velocity) / 127,
		})
	}

	for _, ev := range tr {
		abs += uint64(ev.Delta)
		var trackName string
		if ev.Message.GetMetaTrackName(&trackName) {
			name = trackName
			continue
		}
		msg := gomidi.Message(ev.Message)
		var ch, key, vel, prog uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			if _, seen := notes[ch]; !seen {
				notes[ch] = nil
				order = append(order, ch)
			}
			k := [2]uint8{ch, key}
			pending[k] = append(pending[k], pendingNote{tick: abs, velocity: vel})
		case msg.GetNoteEnd(&ch, &key):
			closeNote([2]uint8{ch, key}, abs)
		case msg.GetProgramChange(&ch, &prog):
			programs[ch] = prog
		}
	}

	// notes still held at the end of the track end with it
	for k := range pending {
		for len(pending[k]) > 0 {
			closeNote(k, abs)
		}
	}

	var out []Track
	for _, ch := range order {
		if len(notes[ch]) == 0 {
			continue
		}
		t := Track{Name: name, Channel: ch, Instrument: programs[ch], Notes: notes[ch]}
		t.SortNotes()
		out = append(out, t)
	}
	return out
}

type fileEvent struct {
	tick uint64
	off  bool
	msg  gomidi.Message
}

// Write encodes data as a format 1 standard MIDI file: a tempo track
// followed by one track per Track.
func Write(w io.Writer, data *Data) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(FileResolution)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(uint8(data.TimeSignature.Num), uint8(data.TimeSignature.Den)))
	tempo.Add(0, smf.MetaTempo(data.BPM))
	tempo.Close(0)
	if err := s.Add(tempo); err != nil {
		return fmt.Errorf("add tempo track: %w", err)
	}

	secToTick := func(sec float64) uint64 {
		return uint64(math.Round(sec / (60 / data.BPM) * FileResolution))
	}

	for i, t := range data.Tracks {
		var events []fileEvent
		for _, n := range t.Notes {
			start := secToTick(n.Time)
			end := secToTick(n.Time + n.Duration)
			if end <= start {
				end = start + 1
			}
			events = append(events,
				fileEvent{tick: start, msg: gomidi.NoteOn(t.Channel, n.Pitch, VelocityToMIDI(n.Velocity))},
				fileEvent{tick: end, off: true, msg: gomidi.NoteOff(t.Channel, n.Pitch)},
			)
		}
		// note-offs first so a re-struck pitch is not cut short
		sort.SliceStable(events, func(a, b int) bool {
			if events[a].tick != events[b].tick {
				return events[a].tick < events[b].tick
			}
			return events[a].off && !events[b].off
		})

		var tr smf.Track
		if t.Name != "" {
			tr.Add(0, smf.MetaTrackSequenceName(t.Name))
		}
		tr.Add(0, gomidi.ProgramChange(t.Channel, t.Instrument))
		var last uint64
		for _, ev := range events {
			tr.Add(uint32(ev.tick-last), ev.msg)
			last = ev.tick
		}
		tr.Close(0)
		if err := s.Add(tr); err != nil {
			return fmt.Errorf("add track %d: %w", i, err)
		}
	}

	_, err := s.WriteTo(w)
	return err
}

// WriteFile writes data to path
func WriteFile(path string, data *Data) error {
	var buf bytes.Buffer
	if err := Write(&buf, data); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Bytes encodes data in memory, for downloads and uploads
func Bytes(data *Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
