package sequencer

import (
	"fmt"
	"strings"

	"go-arrange/midi"
	"go-arrange/timeline"
	"go-arrange/widgets"
)

// View scales: ticks per column (8 levels)
var ViewScales = []int64{
	timeline.PPQ / 32, // super zoomed
	timeline.PPQ / 16,
	timeline.PPQ / 8,
	timeline.PPQ / 4,
	timeline.PPQ / 2,
	timeline.PPQ,
	2 * timeline.PPQ,
	4 * timeline.PPQ, // zoomed out
}

// Edit grid: how far a move or resize goes, and what new notes snap to
var EditHorizSteps = []int64{
	timeline.PPQ / 16,
	timeline.PPQ / 8,
	timeline.PPQ / 4,
	timeline.PPQ / 2,
	timeline.PPQ,
}

var EditVertSteps = []int{1, 12} // semitone, octave

// RollCell is what one piano roll cell shows
type RollCell int

const (
	CellEmpty RollCell = iota
	CellStart
	CellHold
	CellOverlap
	CellSelected
	CellBeyond
)

type dragMode int

const (
	dragMove dragMode = iota
	dragResize
)

type noteDrag struct {
	mode      dragMode
	note      Note
	fromTick  int64
	fromPitch int
	preview   Note
}

// PianoRoll edits the notes of one MIDI or sampler track
type PianoRoll struct {
	project *Project
	trackID string
	player  NotePlayer

	CenterTick  int64
	CenterPitch int
	ViewScale   int // index into ViewScales
	ViewRows    int
	EditHoriz   int // index into EditHorizSteps
	EditVert    int // index into EditVertSteps

	selected  string
	drag      *noteDrag
	playhead  int64
	recording bool
	pending   map[uint8]Note // held keys while recording
}

// NewPianoRoll binds a piano roll to a note track
func NewPianoRoll(p *Project, trackID string, player NotePlayer) (*PianoRoll, error) {
	if _, err := p.notes(trackID); err != nil {
		return nil, err
	}
	return &PianoRoll{
		project:     p,
		trackID:     trackID,
		player:      player,
		CenterPitch: 60,
		ViewScale:   3,
		ViewRows:    ViewSpread,
		EditHoriz:   2,
		playhead:    -1,
		pending:     make(map[uint8]Note),
	}, nil
}

func (r *PianoRoll) Name() string { return "piano" }

// Track is the track being edited
func (r *PianoRoll) Track() *Track { return r.project.Track(r.trackID) }

func (r *PianoRoll) notes() Notes {
	ref, err := r.project.notes(r.trackID)
	if err != nil {
		return nil
	}
	return *ref
}

// Grid is the snap grid in ticks
func (r *PianoRoll) Grid() int64 { return EditHorizSteps[r.EditHoriz] }

// Selected returns the selected note
func (r *PianoRoll) Selected() (Note, bool) {
	ns := r.notes()
	if i := ns.Index(r.selected); i >= 0 {
		return ns[i], true
	}
	return Note{}, false
}

// Select selects a note by ID, empty clears the selection
func (r *PianoRoll) Select(noteID string) {
	r.selected = noteID
	r.centerOnSelection()
}

// CreateAt adds a one-grid note at the snapped tick and selects it
func (r *PianoRoll) CreateAt(tick int64, pitch int) (Note, error) {
	if tick < 0 {
		tick = 0
	}
	n := NewNote(pitch, timeline.SnapFloor(tick, r.Grid()), r.Grid())
	if err := r.project.AddNote(r.trackID, n); err != nil {
		return Note{}, err
	}
	r.Select(n.ID)
	r.preview(n)
	return n, nil
}

// MoveSelected shifts the selected note, clamped to the valid range
func (r *PianoRoll) MoveSelected(dTicks int64, dPitch int) error {
	n, ok := r.Selected()
	if !ok {
		return nil
	}
	col := n.Column + dTicks
	if col < 0 {
		col = 0
	}
	row := n.Row + dPitch
	if row < 0 || row > 127 {
		return nil
	}
	if err := r.project.MoveNote(r.trackID, n.ID, col, row); err != nil {
		return err
	}
	r.centerOnSelection()
	if row != n.Row {
		r.preview(Note{Row: row, Velocity: n.Velocity})
	}
	return nil
}

// ResizeSelected grows or shrinks the selected note. It never shrinks a
// note to nothing.
func (r *PianoRoll) ResizeSelected(dTicks int64) error {
	n, ok := r.Selected()
	if !ok {
		return nil
	}
	length := n.Length + dTicks
	if length <= 0 {
		return nil
	}
	return r.project.ResizeNote(r.trackID, n.ID, length)
}

// DeleteSelected removes the selected note and selects its neighbour
func (r *PianoRoll) DeleteSelected() error {
	ns := r.notes()
	i := ns.Index(r.selected)
	if i < 0 {
		return nil
	}
	if err := r.project.DeleteNote(r.trackID, r.selected); err != nil {
		return err
	}
	ns = r.notes()
	switch {
	case len(ns) == 0:
		r.selected = ""
	case i < len(ns):
		r.selected = ns[i].ID
	default:
		r.selected = ns[len(ns)-1].ID
	}
	r.centerOnSelection()
	return nil
}

// Clear removes every note of the track
func (r *PianoRoll) Clear() error {
	r.selected = ""
	if len(r.notes()) == 0 {
		return nil
	}
	return r.project.SetNotes(r.trackID, nil)
}

// BeginDrag grabs the note sounding at tick and pitch. With resize set the
// drag changes its length, otherwise its position. Reports whether a note
// was hit.
func (r *PianoRoll) BeginDrag(tick int64, pitch int, resize bool) bool {
	ns := r.notes()
	hits := ns.At(tick, pitch)
	if len(hits) == 0 {
		r.drag = nil
		return false
	}
	n := ns[hits[len(hits)-1]]
	mode := dragMove
	if resize {
		mode = dragResize
	}
	r.drag = &noteDrag{mode: mode, note: n, fromTick: tick, fromPitch: pitch, preview: n}
	r.selected = n.ID
	return true
}

// DragTo updates the pending drag. Nothing is committed until EndDrag.
func (r *PianoRoll) DragTo(tick int64, pitch int) Note {
	if r.drag == nil {
		return Note{}
	}
	d := r.drag
	delta := timeline.Snap(tick-d.fromTick, r.Grid())
	p := d.note
	switch d.mode {
	case dragMove:
		p.Column = max(0, d.note.Column+delta)
		p.Row = min(127, max(0, d.note.Row+pitch-d.fromPitch))
	case dragResize:
		p.Length = max(r.Grid(), d.note.Length+delta)
	}
	d.preview = p
	return p
}

// EndDrag commits the drag as one move or resize
func (r *PianoRoll) EndDrag() error {
	d := r.drag
	r.drag = nil
	if d == nil || d.preview == d.note {
		return nil
	}
	switch d.mode {
	case dragResize:
		return r.project.ResizeNote(r.trackID, d.note.ID, d.preview.Length)
	default:
		return r.project.MoveNote(r.trackID, d.note.ID, d.preview.Column, d.preview.Row)
	}
}

// CancelDrag drops a pending drag
func (r *PianoRoll) CancelDrag() { r.drag = nil }

// Dragging reports whether a drag is in progress
func (r *PianoRoll) Dragging() bool { return r.drag != nil }

// ToggleRecording arms or disarms recording from the keyboard
func (r *PianoRoll) ToggleRecording() {
	r.recording = !r.recording
	r.pending = make(map[uint8]Note)
}

func (r *PianoRoll) IsRecording() bool { return r.recording }

// Record takes live keyboard input at the given transport tick. Key
// presses are held until their release, then added snapped to the grid.
func (r *PianoRoll) Record(ev midi.NoteEvent, tick int64) error {
	if !r.recording {
		return nil
	}
	grid := r.Grid()
	if ev.Velocity > 0 {
		n := NewNote(int(ev.Note), timeline.Snap(tick, grid), grid)
		n.Velocity = ev.Velocity
		r.pending[ev.Note] = n
		return nil
	}
	n, ok := r.pending[ev.Note]
	if !ok {
		return nil
	}
	delete(r.pending, ev.Note)
	if end := timeline.Snap(tick, grid); end-n.Column > grid {
		n.Length = end - n.Column
	}
	return r.project.AddNote(r.trackID, n)
}

func (r *PianoRoll) SetPlayhead(tick int64) { r.playhead = tick }

func (r *PianoRoll) preview(n Note) {
	t := r.Track()
	if r.player == nil || t == nil {
		return
	}
	previewNote(r.player, r.project.Voice(t), uint8(n.Row), n.Velocity)
}

func (r *PianoRoll) centerOnSelection() {
	if n, ok := r.Selected(); ok {
		r.CenterTick = n.Column
		r.CenterPitch = n.Row
	}
}

func (r *PianoRoll) selectNoteByTime(direction int) {
	ns := r.notes()
	if len(ns) == 0 {
		return
	}
	i := ns.Index(r.selected) + direction
	if r.selected == "" || ns.Index(r.selected) < 0 {
		i = 0
	}
	if i < 0 {
		i = len(ns) - 1
	} else if i >= len(ns) {
		i = 0
	}
	r.Select(ns[i].ID)
}

func (r *PianoRoll) selectNoteByPitch(direction int) {
	ns := r.notes()
	if len(ns) == 0 {
		return
	}
	cur, ok := r.Selected()
	if !ok {
		r.Select(ns[0].ID)
		return
	}

	best := -1
	var bestDist int64
	for pitch := cur.Row + direction; pitch >= 0 && pitch <= 127; pitch += direction {
		for i, n := range ns {
			if n.Row != pitch {
				continue
			}
			dist := n.Column - cur.Column
			if dist < 0 {
				dist = -dist
			}
			if best < 0 || dist < bestDist {
				best, bestDist = i, dist
			}
		}
		if best >= 0 {
			break
		}
	}
	if best >= 0 {
		r.Select(ns[best].ID)
	}
}

// Window returns the first tick and the top pitch of a cols x rows view
// centred on the viewport.
func (r *PianoRoll) Window(cols, rows int) (startTick int64, topPitch int) {
	scale := ViewScales[r.ViewScale]
	startTick = r.CenterTick - int64(cols/2)*scale
	if startTick < 0 {
		startTick = 0
	}
	startTick = timeline.SnapFloor(startTick, scale)
	return startTick, r.CenterPitch + rows/2
}

// Cells renders the viewport into a rows x cols grid, top row highest
// pitch. A pending drag is shown in place of the dragged note.
func (r *PianoRoll) Cells(cols, rows int) [][]RollCell {
	scale := ViewScales[r.ViewScale]
	start, top := r.Window(cols, rows)

	ns := r.notes()
	if r.drag != nil {
		ns = ns.Clone()
		if i := ns.Index(r.drag.note.ID); i >= 0 {
			ns[i] = r.drag.preview
		}
	}

	grid := make([][]RollCell, rows)
	for row := range grid {
		grid[row] = make([]RollCell, cols)
		pitch := top - row
		if pitch < 0 || pitch > 127 {
			for col := range grid[row] {
				grid[row][col] = CellBeyond
			}
			continue
		}
		for col := range grid[row] {
			from := start + int64(col)*scale
			to := from + scale
			cell := CellEmpty
			count := 0
			for _, n := range ns {
				if n.Row != pitch || n.Column >= to || n.End() <= from {
					continue
				}
				count++
				if n.Column >= from {
					if n.ID == r.selected {
						cell = CellSelected
					} else if cell != CellSelected {
						cell = CellStart
					}
				}
			}
			if cell == CellEmpty && count > 0 {
				cell = CellHold
				if count > 1 {
					cell = CellOverlap
				}
			}
			grid[row][col] = cell
		}
	}
	return grid
}

func (r *PianoRoll) HandleKey(key string) error {
	editH := EditHorizSteps[r.EditHoriz]
	editV := EditVertSteps[r.EditVert]

	switch key {
	case "h", "left":
		r.selectNoteByTime(-1)
	case "l", "right":
		r.selectNoteByTime(1)
	case "j", "down":
		r.selectNoteByPitch(-1)
	case "k", "up":
		r.selectNoteByPitch(1)

	case "y":
		return r.MoveSelected(-editH, 0)
	case "o":
		return r.MoveSelected(editH, 0)
	case "u":
		return r.MoveSelected(0, -editV)
	case "i":
		return r.MoveSelected(0, editV)

	case "n":
		return r.ResizeSelected(-editH)
	case "m":
		return r.ResizeSelected(editH)

	case "q":
		if r.ViewScale < len(ViewScales)-1 {
			r.ViewScale++
		}
	case "w":
		if r.ViewScale > 0 {
			r.ViewScale--
		}
	case "a":
		r.ViewRows = ViewSmushed
	case "s":
		r.ViewRows = ViewSpread

	case "d":
		if r.EditHoriz < len(EditHorizSteps)-1 {
			r.EditHoriz++
		}
	case "f":
		if r.EditHoriz > 0 {
			r.EditHoriz--
		}
	case "e":
		if r.EditVert < len(EditVertSteps)-1 {
			r.EditVert++
		}
	case "r":
		if r.EditVert > 0 {
			r.EditVert--
		}

	case " ":
		_, err := r.CreateAt(r.CenterTick, r.CenterPitch)
		return err
	case "x":
		return r.DeleteSelected()
	case "c":
		return r.Clear()
	case "R":
		r.ToggleRecording()
	}
	return nil
}

// formatTicks formats a tick count as a fraction of a beat
func formatTicks(ticks int64) string {
	switch {
	case ticks >= timeline.PPQ && ticks%timeline.PPQ == 0:
		return fmt.Sprintf("%d", ticks/timeline.PPQ)
	case ticks > 0 && timeline.PPQ%ticks == 0:
		return fmt.Sprintf("1/%d", timeline.PPQ/ticks)
	default:
		return fmt.Sprintf("%dt", ticks)
	}
}

const rollCols = 48

func (r *PianoRoll) View() string {
	var out strings.Builder
	name := ""
	if t := r.Track(); t != nil {
		name = t.Name
	}
	rec := ""
	if r.recording {
		rec = "  [REC]"
	}
	vertMode := "spread"
	if r.ViewRows == ViewSmushed {
		vertMode = "smushed"
	}
	out.WriteString(fmt.Sprintf("PIANO  %s%s\n", name, rec))
	out.WriteString(fmt.Sprintf("View: %s beat/col %s  Edit: %s beat horiz, %d semi vert\n\n",
		formatTicks(ViewScales[r.ViewScale]), vertMode, formatTicks(r.Grid()), EditVertSteps[r.EditVert]))

	scale := ViewScales[r.ViewScale]
	start, top := r.Window(rollCols, r.ViewRows)
	playCol := -1
	if r.playhead >= start {
		playCol = int((r.playhead - start) / scale)
	}

	for row, cells := range r.Cells(rollCols, r.ViewRows) {
		pitch := top - row
		if pitch < 0 || pitch > 127 {
			continue
		}
		out.WriteString(fmt.Sprintf("%4s ", midi.NoteName(pitch)))
		for col, c := range cells {
			out.WriteString(widgets.RollChar(int(c), col == playCol))
		}
		out.WriteString("\n")
	}

	if n, ok := r.Selected(); ok {
		out.WriteString(fmt.Sprintf("\nSelected: %s  start:%d  len:%d  vel:%d",
			midi.NoteName(n.Row), n.Column, n.Length, n.Velocity))
	}

	out.WriteString("\n\n")
	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Title: "Select", Keys: []widgets.KeyBinding{
			{Key: "hjkl", Desc: "select notes"},
		}},
		{Title: "Move", Keys: []widgets.KeyBinding{
			{Key: "yuio", Desc: "move note"},
			{Key: "n / m", Desc: "shorter / longer"},
		}},
		{Title: "Notes", Keys: []widgets.KeyBinding{
			{Key: "space", Desc: "add note"},
			{Key: "x", Desc: "delete note"},
			{Key: "c", Desc: "clear"},
			{Key: "R", Desc: "record from keyboard"},
		}},
		{Title: "View", Keys: []widgets.KeyBinding{
			{Key: "q / w", Desc: "zoom out/in"},
			{Key: "a / s", Desc: "smushed/spread"},
		}},
		{Title: "Grid", Keys: []widgets.KeyBinding{
			{Key: "d / f", Desc: "horiz coarse/fine"},
			{Key: "e / r", Desc: "vert coarse/fine"},
		}},
	}))
	return out.String()
}
