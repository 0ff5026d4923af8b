package sequencer

import (
	"errors"
	"fmt"
	"strings"

	"go-arrange/debug"
	"go-arrange/midi"
	"go-arrange/widgets"
)

const (
	DefaultSteps = 16
	MaxSteps     = 64
)

var ErrRowOutOfRange = errors.New("drum row out of range")

// DrumMachine edits a drum track as a rows x steps grid. Each row is a
// sampler track; a cell is on when that track has a note at the row's
// base note starting exactly on the step.
type DrumMachine struct {
	project *Project
	trackID string
	player  NotePlayer

	row      int // selected row
	cursor   int // selected step
	playhead int64
}

// NewDrumMachine binds a drum machine to a drum track
func NewDrumMachine(p *Project, trackID string, player NotePlayer) (*DrumMachine, error) {
	if _, err := p.drum(trackID); err != nil {
		return nil, err
	}
	return &DrumMachine{project: p, trackID: trackID, player: player, playhead: -1}, nil
}

func (d *DrumMachine) Name() string { return "drum" }

// Track is the drum track being edited
func (d *DrumMachine) Track() *Track { return d.project.Track(d.trackID) }

func (d *DrumMachine) settings() *DrumSettings {
	ds, err := d.project.drum(d.trackID)
	if err != nil {
		return &DrumSettings{}
	}
	return ds
}

// Rows is the number of rows
func (d *DrumMachine) Rows() int { return len(d.settings().Rows) }

// Steps is the grid width
func (d *DrumMachine) Steps() int {
	if s := d.settings().Steps; s > 0 {
		return s
	}
	return DefaultSteps
}

// StepTicks is the width of one cell
func (d *DrumMachine) StepTicks() int64 { return d.project.Clock().StepTicks() }

// Kit is the drum kit new rows are taken from
func (d *DrumMachine) Kit() DrumKit { return GetKit(d.settings().Kit) }

// RowTrack returns the sampler track behind a row
func (d *DrumMachine) RowTrack(row int) (*Track, error) {
	rows := d.settings().Rows
	if row < 0 || row >= len(rows) {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	return d.project.track(rows[row])
}

func (d *DrumMachine) rowSampler(row int) (*Track, *SamplerSettings, error) {
	t, err := d.RowTrack(row)
	if err != nil {
		return nil, nil, err
	}
	ss, ok := t.Settings.(*SamplerSettings)
	if !ok {
		return nil, nil, fmt.Errorf("drum row %d: track %s is %s, not sampler", row, t.ID, t.Kind())
	}
	return t, ss, nil
}

// BaseNote is the pitch a row's cells play
func (d *DrumMachine) BaseNote(row int) (int, error) {
	_, ss, err := d.rowSampler(row)
	if err != nil {
		return 0, err
	}
	return ss.BaseNote, nil
}

// Cell reports whether a note at the row's base note starts exactly on
// the step. Notes off the grid or at other pitches do not light a cell.
func (d *DrumMachine) Cell(row, col int) bool {
	_, ss, err := d.rowSampler(row)
	if err != nil {
		return false
	}
	return ss.Notes.FindAt(int64(col)*d.StepTicks(), ss.BaseNote) >= 0
}

// Cells derives the whole grid from the rows' notes
func (d *DrumMachine) Cells() [][]bool {
	steps := d.Steps()
	stepTicks := d.StepTicks()
	grid := make([][]bool, d.Rows())
	for r := range grid {
		grid[r] = make([]bool, steps)
		_, ss, err := d.rowSampler(r)
		if err != nil {
			continue
		}
		for _, n := range ss.Notes {
			if n.Row != ss.BaseNote || n.Column%stepTicks != 0 {
				continue
			}
			if col := n.Column / stepTicks; col < int64(steps) {
				grid[r][col] = true
			}
		}
	}
	return grid
}

// Toggle turns a cell on by adding a one-step note, or off by removing
// the first note that starts exactly on the step at the row's base note.
func (d *DrumMachine) Toggle(row, col int) error {
	if col < 0 || col >= d.Steps() {
		return fmt.Errorf("drum step %d out of range 0-%d", col, d.Steps()-1)
	}
	t, ss, err := d.rowSampler(row)
	if err != nil {
		return err
	}
	stepTicks := d.StepTicks()
	tick := int64(col) * stepTicks

	if ss.Notes.FindAt(tick, ss.BaseNote) >= 0 {
		debug.Log("drum", "toggle off row=%d col=%d tick=%d", row, col, tick)
		return d.project.RemoveNote(t.ID, tick, ss.BaseNote)
	}
	debug.Log("drum", "toggle on row=%d col=%d tick=%d", row, col, tick)
	return d.project.AddNote(t.ID, Note{Row: ss.BaseNote, Column: tick, Length: stepTicks})
}

// AddRow creates a sampler track for a kit slot and appends it as a row
func (d *DrumMachine) AddRow(slot KitSlot) (*Track, error) {
	ds, err := d.project.drum(d.trackID)
	if err != nil {
		return nil, err
	}
	child := NewTrack(slot.Name, &SamplerSettings{
		Sample:   slot.Sample,
		BaseNote: int(slot.Note),
	})

	// rows sit right after the drum track and its existing rows
	index := d.project.TrackIndex(d.trackID) + 1
	for _, id := range ds.Rows {
		if i := d.project.TrackIndex(id); i >= index {
			index = i + 1
		}
	}

	rows := append(append([]string(nil), ds.Rows...), child.ID)
	err = d.project.Do(&Batch{Label: "add drum row", Commands: []Command{
		&addTrack{track: child, index: index},
		&setDrumRows{id: d.trackID, before: ds.Rows, after: rows},
	}})
	if err != nil {
		return nil, err
	}
	return child, nil
}

// NextSlot is the kit slot the next added row uses
func (d *DrumMachine) NextSlot() KitSlot {
	kit := d.Kit()
	return kit.Slots[d.Rows()%len(kit.Slots)]
}

// RemoveRow deletes a row and its sampler track
func (d *DrumMachine) RemoveRow(row int) error {
	t, err := d.RowTrack(row)
	if err != nil {
		return err
	}
	if err := d.project.RemoveTrack(t.ID); err != nil {
		return err
	}
	if d.row >= d.Rows() && d.row > 0 {
		d.row--
	}
	return nil
}

// ClearRow removes every note of a row
func (d *DrumMachine) ClearRow(row int) error {
	t, err := d.RowTrack(row)
	if err != nil {
		return err
	}
	if len(t.Notes()) == 0 {
		return nil
	}
	return d.project.SetNotes(t.ID, nil)
}

// SetSteps changes the grid width. Notes past the end are kept, just
// not shown.
func (d *DrumMachine) SetSteps(n int) error {
	if n < 1 || n > MaxSteps {
		return fmt.Errorf("drum steps must be between 1 and %d, got %d", MaxSteps, n)
	}
	ds := d.settings()
	if n == ds.Steps {
		return nil
	}
	if d.cursor >= n {
		d.cursor = n - 1
	}
	return d.project.Do(&setDrumSteps{id: d.trackID, before: ds.Steps, after: n})
}

// SetKit changes which kit new rows come from
func (d *DrumMachine) SetKit(name string) error {
	if _, ok := Kits[name]; !ok {
		return fmt.Errorf("unknown drum kit %q", name)
	}
	ds := d.settings()
	if ds.Kit == name {
		return nil
	}
	return d.project.Do(&setDrumKit{id: d.trackID, before: ds.Kit, after: name})
}

// Preview plays a row's sound once
func (d *DrumMachine) Preview(row int) error {
	t, ss, err := d.rowSampler(row)
	if err != nil {
		return err
	}
	if d.player == nil || ss.BaseNote < 0 || ss.BaseNote > 127 {
		return nil
	}
	previewNote(d.player, d.project.Voice(t), uint8(ss.BaseNote), DefaultVelocity)
	return nil
}

func (d *DrumMachine) SetPlayhead(tick int64) { d.playhead = tick }

// Cursor returns the selected row and step
func (d *DrumMachine) Cursor() (row, step int) { return d.row, d.cursor }

func (d *DrumMachine) HandleKey(key string) error {
	switch key {
	case "h", "left":
		if d.cursor > 0 {
			d.cursor--
		}
	case "l", "right":
		if d.cursor < d.Steps()-1 {
			d.cursor++
		}
	case "j", "down":
		if d.row < d.Rows()-1 {
			d.row++
		}
	case "k", "up":
		if d.row > 0 {
			d.row--
		}
	case " ":
		if err := d.Toggle(d.row, d.cursor); err != nil {
			return err
		}
		if d.Cell(d.row, d.cursor) {
			return d.Preview(d.row)
		}
	case "[":
		if d.Steps() > 1 {
			return d.SetSteps(d.Steps() - 1)
		}
	case "]":
		if d.Steps() < MaxSteps {
			return d.SetSteps(d.Steps() + 1)
		}
	case "c":
		return d.ClearRow(d.row)
	case "a":
		_, err := d.AddRow(d.NextSlot())
		if err == nil {
			d.row = d.Rows() - 1
		}
		return err
	case "d":
		if d.Rows() > 0 {
			return d.RemoveRow(d.row)
		}
	case "p":
		return d.Preview(d.row)
	}
	return nil
}

func (d *DrumMachine) View() string {
	var out strings.Builder
	steps := d.Steps()
	name := ""
	if t := d.Track(); t != nil {
		name = t.Name
	}
	out.WriteString(fmt.Sprintf("DRUM  %s  Kit %s  Step %d/%d\n\n", name, d.Kit().Name, d.cursor+1, steps))

	playStep := -1
	if d.playhead >= 0 {
		playStep = int(d.playhead/d.StepTicks()) % steps
	}

	grid := d.Cells()
	for r, cells := range grid {
		label := "?"
		if t, err := d.RowTrack(r); err == nil {
			label = t.Name
		}
		if base, err := d.BaseNote(r); err == nil {
			label = fmt.Sprintf("%-10s %-4s", label, midi.NoteName(base))
		}
		if len(label) > 15 {
			label = label[:15]
		}
		out.WriteString(fmt.Sprintf("%-15s ", label))
		for s, on := range cells {
			out.WriteString(widgets.StepChar(on, r == d.row && s == d.cursor, s == playStep))
		}
		out.WriteString("\n")
	}
	if len(grid) == 0 {
		out.WriteString("  (no rows, press a to add one)\n")
	}

	out.WriteString("\n")
	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Title: "Grid", Keys: []widgets.KeyBinding{
			{Key: "h / l", Desc: "move cursor left/right through steps"},
			{Key: "j / k", Desc: "select row down/up"},
			{Key: "space", Desc: "toggle step on/off"},
			{Key: "[ / ]", Desc: "fewer/more steps"},
		}},
		{Title: "Rows", Keys: []widgets.KeyBinding{
			{Key: "a / d", Desc: "add/delete row"},
			{Key: "c", Desc: "clear row"},
			{Key: "p", Desc: "preview row"},
		}},
	}))
	return out.String()
}
