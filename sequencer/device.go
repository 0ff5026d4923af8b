package sequencer

import "time"

// Editor is a view over the project that the TUI can focus. Key handling
// returns edit errors so the UI can show them.
type Editor interface {
	Name() string
	View() string
	HandleKey(key string) error
}

// Playhead is implemented by editors that draw the transport position
type Playhead interface {
	SetPlayhead(tick int64)
}

// Voice is a track and the channel it sounds on. The channel depends on
// the rest of the project (drum rows), so it is resolved by whoever owns
// the project before the voice is handed to a player.
type Voice struct {
	Track   *Track
	Channel uint8
}

// Voice resolves a track's channel against the current document
func (p *Project) Voice(t *Track) Voice {
	return Voice{Track: t, Channel: p.Channel(t)}
}

// NotePlayer sounds notes for a track. The instrument manager implements
// it; editors use it to preview what is being edited. Players may be
// called from the transport goroutine and must not read the project.
type NotePlayer interface {
	NoteOn(v Voice, pitch, velocity uint8)
	NoteOff(v Voice, pitch uint8)
}

// Piano roll view modes
const (
	ViewSmushed = 12 // fewer rows, notes closer together
	ViewSpread  = 24 // more rows, notes spread out
)

// how long a previewed note rings before its note-off
var previewLength = 100 * time.Millisecond

func previewNote(p NotePlayer, v Voice, pitch, velocity uint8) {
	p.NoteOn(v, pitch, velocity)
	go func() {
		time.Sleep(previewLength)
		p.NoteOff(v, pitch)
	}()
}
