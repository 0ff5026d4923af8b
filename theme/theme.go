package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Drum grid (no cursor)
	StepEmpty    rune // · inactive step
	StepActive   rune // ● has hit
	StepPlayhead rune // ▶ current playing

	// Drum grid (with cursor)
	CursorEmpty    rune // ○ cursor on empty
	CursorActive   rune // ◉ cursor on active
	CursorPlayhead rune // ▷ cursor on playhead

	// Piano roll
	NoteStart    rune // █ first cell of a note
	NoteHold     rune // ▒ note continues
	NoteOverlap  rune // ▓ two or more notes
	NoteSelected rune // ◆ selected note
	RollEmpty    rune // · no note
	RollBeyond   rune // - past the end of the song
	Playhead     rune // │

	// Arrangement
	Clip    rune // █ track occupies this step
	BarLine rune // ┆ empty bar start
	Gap     rune // · empty step

	// Meters
	MeterOn  rune // ▮
	MeterOff rune // ▯
}

// DefaultSymbols returns the stock glyph set
func DefaultSymbols() Symbols {
	return Symbols{
		StepEmpty:    '·',
		StepActive:   '●',
		StepPlayhead: '▶',

		CursorEmpty:    '○',
		CursorActive:   '◉',
		CursorPlayhead: '▷',

		NoteStart:    '█',
		NoteHold:     '▒',
		NoteOverlap:  '▓',
		NoteSelected: '◆',
		RollEmpty:    '·',
		RollBeyond:   '-',
		Playhead:     '│',

		Clip:    '█',
		BarLine: '┆',
		Gap:     '·',

		MeterOn:  '▮',
		MeterOff: '▯',
	}
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{Palette: palette, Symbols: DefaultSymbols()}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep purple
	RoleSurface = 0.1 // dark purple
	RoleMuted   = 0.2 // purple-magenta
	RoleFG      = 0.4 // pink-purple (readable)
	RoleAccent  = 0.5 // vivid magenta
	RoleCursor  = 0.6 // rose pink
	RoleActive  = 0.7 // soft red
	RoleWarning = 0.8 // orange
	RoleSuccess = 1.0 // bright yellow
)

func (t *Theme) BG() lipgloss.Color      { return t.Color(RoleBG) }
func (t *Theme) Surface() lipgloss.Color { return t.Color(RoleSurface) }
func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Cursor() lipgloss.Color  { return t.Color(RoleCursor) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// Velocity colors a MIDI velocity along the palette
func (t *Theme) Velocity(v uint8) lipgloss.Color {
	return t.Color(0.3 + 0.7*float64(v)/127)
}
