package sequencer

import (
	"sort"

	"github.com/google/uuid"

	"go-arrange/midi"
)

// DefaultVelocity is used for notes created without one
const DefaultVelocity = 100

// Note is one editor note. Row is the MIDI pitch, Column the start tick.
type Note struct {
	ID       string `json:"id" yaml:"id"`
	Row      int    `json:"row" yaml:"row"`
	Column   int64  `json:"column" yaml:"column"`
	Length   int64  `json:"length" yaml:"length"`
	Velocity uint8  `json:"velocity" yaml:"velocity"`
}

// NoteError reports an invalid note
type NoteError string

func (e NoteError) Error() string { return string(e) }

const (
	ErrNoteColumn   NoteError = "note: column must be >= 0"
	ErrNoteLength   NoteError = "note: length must be > 0"
	ErrNoteRow      NoteError = "note: row must be between 0 and 127"
	ErrNoteVelocity NoteError = "note: velocity must be between 1 and 127"
)

// NewNote creates a note with a fresh ID and default velocity
func NewNote(row int, column, length int64) Note {
	return Note{
		ID:       uuid.NewString(),
		Row:      row,
		Column:   column,
		Length:   length,
		Velocity: DefaultVelocity,
	}
}

// Validate checks the note invariants
func (n Note) Validate() error {
	if n.Column < 0 {
		return ErrNoteColumn
	}
	if n.Length <= 0 {
		return ErrNoteLength
	}
	if n.Row < 0 || n.Row > 127 {
		return ErrNoteRow
	}
	if n.Velocity < 1 || n.Velocity > 127 {
		return ErrNoteVelocity
	}
	return nil
}

// End is the tick the note stops at
func (n Note) End() int64 { return n.Column + n.Length }

// Notes is kept sorted by column, then row, then ID
type Notes []Note

func noteLess(a, b Note) bool {
	if a.Column != b.Column {
		return a.Column < b.Column
	}
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.ID < b.ID
}

// Sort restores the canonical order
func (ns Notes) Sort() {
	sort.Slice(ns, func(i, j int) bool { return noteLess(ns[i], ns[j]) })
}

// Clone returns an independent copy
func (ns Notes) Clone() Notes {
	if ns == nil {
		return nil
	}
	out := make(Notes, len(ns))
	copy(out, ns)
	return out
}

// Index returns the position of the note with id, or -1
func (ns Notes) Index(id string) int {
	for i := range ns {
		if ns[i].ID == id {
			return i
		}
	}
	return -1
}

// FindAt returns the index of the first note starting exactly at tick
// with the given pitch, or -1. There is no tolerance: a note one tick
// off the grid does not match.
func (ns Notes) FindAt(tick int64, pitch int) int {
	for i := range ns {
		if ns[i].Column == tick && ns[i].Row == pitch {
			return i
		}
	}
	return -1
}

// At returns the notes sounding at tick with the given pitch
func (ns Notes) At(tick int64, pitch int) []int {
	var idx []int
	for i := range ns {
		if ns[i].Row == pitch && ns[i].Column <= tick && tick < ns[i].End() {
			idx = append(idx, i)
		}
	}
	return idx
}

// insert places n in canonical order and returns its index
func (ns Notes) insert(n Note) (Notes, int) {
	i := sort.Search(len(ns), func(i int) bool { return noteLess(n, ns[i]) })
	ns = append(ns, Note{})
	copy(ns[i+1:], ns[i:])
	ns[i] = n
	return ns, i
}

func (ns Notes) removeAt(i int) Notes {
	ns = append(ns[:i], ns[i+1:]...)
	if len(ns) == 0 {
		return nil
	}
	return ns
}

// End is the last tick any note sounds
func (ns Notes) End() int64 {
	var end int64
	for _, n := range ns {
		if n.End() > end {
			end = n.End()
		}
	}
	return end
}

// TickNotes converts to the midi package representation
func (ns Notes) TickNotes() []midi.TickNote {
	out := make([]midi.TickNote, 0, len(ns))
	for _, n := range ns {
		out = append(out, midi.TickNote{
			Pitch:    uint8(n.Row),
			Start:    n.Column,
			Length:   n.Length,
			Velocity: n.Velocity,
		})
	}
	return out
}

// NotesFromTicks builds editor notes with fresh IDs
func NotesFromTicks(tns []midi.TickNote) Notes {
	out := make(Notes, 0, len(tns))
	for _, tn := range tns {
		n := NewNote(int(tn.Pitch), tn.Start, tn.Length)
		if tn.Velocity > 0 {
			n.Velocity = tn.Velocity
		}
		out = append(out, n)
	}
	out.Sort()
	return out
}
