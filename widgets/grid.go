package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-arrange/theme"
)

var (
	current *theme.Theme
	symbols = theme.DefaultSymbols()
)

// SetTheme sets the colors and glyphs used by every widget. A nil theme
// renders plain glyphs.
func SetTheme(t *theme.Theme) {
	current = t
	if t != nil {
		symbols = t.Symbols
	} else {
		symbols = theme.DefaultSymbols()
	}
}

func paint(s string, role float64) string {
	if current == nil || s == "" {
		return s
	}
	return lipgloss.NewStyle().Foreground(current.Color(role)).Render(s)
}

func glyph(r rune, role float64) string { return paint(string(r), role) }

// StepChar renders one drum grid cell
func StepChar(on, cursor, playhead bool) string {
	switch {
	case cursor && playhead:
		return glyph(symbols.CursorPlayhead, theme.RoleCursor)
	case cursor && on:
		return glyph(symbols.CursorActive, theme.RoleCursor)
	case cursor:
		return glyph(symbols.CursorEmpty, theme.RoleCursor)
	case playhead:
		return glyph(symbols.StepPlayhead, theme.RoleSuccess)
	case on:
		return glyph(symbols.StepActive, theme.RoleActive)
	}
	return glyph(symbols.StepEmpty, theme.RoleMuted)
}

// Piano roll cell kinds, in the order the roll reports them
const (
	rollEmpty = iota
	rollStart
	rollHold
	rollOverlap
	rollSelected
	rollBeyond
)

// RollChar renders one piano roll cell
func RollChar(cell int, playhead bool) string {
	switch cell {
	case rollStart:
		return glyph(symbols.NoteStart, theme.RoleActive)
	case rollHold:
		return glyph(symbols.NoteHold, theme.RoleActive)
	case rollOverlap:
		return glyph(symbols.NoteOverlap, theme.RoleWarning)
	case rollSelected:
		return glyph(symbols.NoteSelected, theme.RoleCursor)
	case rollBeyond:
		return glyph(symbols.RollBeyond, theme.RoleSurface)
	}
	if playhead {
		return glyph(symbols.Playhead, theme.RoleSuccess)
	}
	return glyph(symbols.RollEmpty, theme.RoleMuted)
}

// ClipChar renders one step of a track lane in the arrangement
func ClipChar(on, playhead, barStart bool) string {
	switch {
	case playhead:
		return glyph(symbols.Playhead, theme.RoleSuccess)
	case on:
		return glyph(symbols.Clip, theme.RoleAccent)
	case barStart:
		return glyph(symbols.BarLine, theme.RoleMuted)
	}
	return glyph(symbols.Gap, theme.RoleSurface)
}

// Meter renders v (0-1) as a bar of width cells
func Meter(v float64, width int) string {
	v = max(0, min(1, v))
	n := int(v*float64(width) + 0.5)
	return paint(strings.Repeat(string(symbols.MeterOn), n), theme.RoleAccent) +
		paint(strings.Repeat(string(symbols.MeterOff), width-n), theme.RoleMuted)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
