package sequencer

import (
	"fmt"
	"math"
	"strings"

	"go-arrange/timeline"
	"go-arrange/widgets"
)

// volumeStep is how far - and + move the fader
const volumeStep = 0.05

// Arrangement is the track list and timeline: tracks are placed by
// dragging, mixed, added and removed here.
type Arrangement struct {
	project *Project
	snapper timeline.Snapper

	cursor int // selected track
	drag   *timeline.Drag
	dragID string

	playhead int64

	// OnOpen is called when the selected track is opened for editing
	OnOpen func(t *Track)
}

// NewArrangement creates an arrangement view. Drags snap to one step
// and to lanes of the given height.
func NewArrangement(p *Project, laneHeight float64) *Arrangement {
	s := timeline.NewSnapper(p.Clock())
	if laneHeight > 0 {
		s.LaneHeight = laneHeight
	}
	return &Arrangement{project: p, snapper: s, playhead: -1}
}

func (a *Arrangement) Name() string { return "arrange" }

// Snapper returns the drag snapping in use
func (a *Arrangement) Snapper() timeline.Snapper {
	s := a.snapper
	s.Clock = a.project.Clock()
	return s
}

// SetSnap sets the horizontal snap grid in ticks, 0 for free movement
func (a *Arrangement) SetSnap(grid int64) { a.snapper.Grid = grid }

// Selected returns the track under the cursor
func (a *Arrangement) Selected() *Track {
	if a.cursor < 0 || a.cursor >= len(a.project.Tracks) {
		return nil
	}
	return a.project.Tracks[a.cursor]
}

// SelectTrack moves the cursor to a track
func (a *Arrangement) SelectTrack(id string) {
	if i := a.project.TrackIndex(id); i >= 0 {
		a.cursor = i
	}
}

// AddTrack creates an empty track of a kind on the next free lane
func (a *Arrangement) AddTrack(kind TrackKind) (*Track, error) {
	var settings Settings
	var name string
	n := len(a.project.Tracks) + 1
	switch kind {
	case KindMIDI:
		settings = &MIDISettings{Instrument: ProgramInstrument(0)}
		name = fmt.Sprintf("MIDI %d", n)
	case KindSampler:
		settings = &SamplerSettings{BaseNote: 60}
		name = fmt.Sprintf("Sampler %d", n)
	case KindDrum:
		settings = &DrumSettings{Steps: DefaultSteps, Kit: DefaultKit}
		name = fmt.Sprintf("Drums %d", n)
	default:
		return nil, fmt.Errorf("cannot add an empty %s track", kind)
	}
	return a.add(NewTrack(name, settings))
}

// AddAudio creates an audio clip track for a probed file
func (a *Arrangement) AddAudio(name, file string, duration float64) (*Track, error) {
	return a.add(NewTrack(name, &AudioSettings{File: file, Duration: duration}))
}

func (a *Arrangement) add(t *Track) (*Track, error) {
	t.Position.Y = a.Snapper().LaneY(a.nextLane())
	if err := a.project.AddTrack(t); err != nil {
		return nil, err
	}
	a.cursor = a.project.TrackIndex(t.ID)
	return t, nil
}

func (a *Arrangement) nextLane() int {
	s := a.Snapper()
	lane := 0
	for _, t := range a.project.Tracks {
		if l := s.Lane(t.Position.Y) + 1; l > lane {
			lane = l
		}
	}
	return lane
}

// RemoveSelected deletes the selected track
func (a *Arrangement) RemoveSelected() error {
	t := a.Selected()
	if t == nil {
		return nil
	}
	if err := a.project.RemoveTrack(t.ID); err != nil {
		return err
	}
	if a.cursor >= len(a.project.Tracks) && a.cursor > 0 {
		a.cursor = len(a.project.Tracks) - 1
	}
	return nil
}

// BeginDrag grabs a track at a pointer position
func (a *Arrangement) BeginDrag(trackID string, pointer timeline.Position) error {
	t, err := a.project.track(trackID)
	if err != nil {
		return err
	}
	a.drag = timeline.BeginDrag(a.Snapper(), t.Position, pointer)
	a.dragID = trackID
	a.SelectTrack(trackID)
	return nil
}

// DragTo returns where the dragged track would land
func (a *Arrangement) DragTo(pointer timeline.Position) timeline.Position {
	if a.drag == nil {
		return timeline.Position{}
	}
	return a.drag.Move(pointer)
}

// EndDrag commits the drag as one move
func (a *Arrangement) EndDrag() error {
	if a.drag == nil {
		return nil
	}
	d, id := a.drag, a.dragID
	a.drag, a.dragID = nil, ""
	if !d.Moved() {
		d.End()
		return nil
	}
	return a.project.MoveTrack(id, d.End())
}

// CancelDrag drops a drag without moving anything
func (a *Arrangement) CancelDrag() {
	if a.drag != nil {
		a.drag.Cancel()
	}
	a.drag, a.dragID = nil, ""
}

// Nudge moves the selected track by whole grid steps and lanes
func (a *Arrangement) Nudge(steps, lanes int) error {
	t := a.Selected()
	if t == nil {
		return nil
	}
	s := a.Snapper()
	grid := s.Grid
	if grid <= 0 {
		grid = s.Clock.StepTicks()
	}
	tick := s.Clock.PixelToTick(t.Position.X) + int64(steps)*grid
	if tick < 0 {
		tick = 0
	}
	lane := s.Lane(t.Position.Y) + lanes
	if lane < 0 {
		lane = 0
	}
	pos := s.Snap(timeline.Position{X: s.Clock.TickToPixel(tick), Y: s.LaneY(lane)})
	return a.project.MoveTrack(t.ID, pos)
}

// ToggleMute flips mute on the selected track
func (a *Arrangement) ToggleMute() error {
	return a.editMix(func(m *Mix) { m.Mute = !m.Mute })
}

// ToggleSolo flips solo on the selected track
func (a *Arrangement) ToggleSolo() error {
	return a.editMix(func(m *Mix) { m.Solo = !m.Solo })
}

// AdjustVolume moves the fader, clamped to 0-1
func (a *Arrangement) AdjustVolume(delta float64) error {
	return a.editMix(func(m *Mix) { m.Volume = clamp(round2(m.Volume+delta), 0, 1) })
}

// AdjustPan moves the pan, clamped to -1-1
func (a *Arrangement) AdjustPan(delta float64) error {
	return a.editMix(func(m *Mix) { m.Pan = clamp(round2(m.Pan+delta), -1, 1) })
}

func (a *Arrangement) editMix(f func(m *Mix)) error {
	t := a.Selected()
	if t == nil {
		return nil
	}
	mix := t.Mix
	f(&mix)
	return a.project.SetMix(t.ID, mix)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (a *Arrangement) SetPlayhead(tick int64) { a.playhead = tick }

func (a *Arrangement) HandleKey(key string) error {
	switch key {
	case "j", "down":
		if a.cursor < len(a.project.Tracks)-1 {
			a.cursor++
		}
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
	case "h", "left":
		return a.Nudge(-1, 0)
	case "l", "right":
		return a.Nudge(1, 0)
	case "H":
		return a.Nudge(-int(a.project.Clock().BarTicks()/a.project.Clock().StepTicks()), 0)
	case "L":
		return a.Nudge(int(a.project.Clock().BarTicks()/a.project.Clock().StepTicks()), 0)
	case "J":
		return a.Nudge(0, 1)
	case "K":
		return a.Nudge(0, -1)
	case "m":
		return a.ToggleMute()
	case "s":
		return a.ToggleSolo()
	case "-":
		return a.AdjustVolume(-volumeStep)
	case "+", "=":
		return a.AdjustVolume(volumeStep)
	case "<", ",":
		return a.AdjustPan(-0.1)
	case ">", ".":
		return a.AdjustPan(0.1)
	case "1":
		_, err := a.AddTrack(KindMIDI)
		return err
	case "2":
		_, err := a.AddTrack(KindSampler)
		return err
	case "3":
		_, err := a.AddTrack(KindDrum)
		return err
	case "x":
		return a.RemoveSelected()
	case "enter":
		if t := a.Selected(); t != nil && a.OnOpen != nil {
			a.OnOpen(t)
		}
	}
	return nil
}

// Layout of View: the strip has one character per step and starts at
// stripX; track lines start at headerLines.
const (
	stripCols   = 64
	stripX      = 36
	headerLines = 2
)

// PointerAt maps a character cell of View to a timeline pointer. Each
// line down is one lane down, so dragging across lines changes lanes.
// trackID is the track on that line, if any.
func (a *Arrangement) PointerAt(col, line int) (trackID string, pointer timeline.Position) {
	c := a.project.Clock()
	pointer = timeline.Position{
		X: float64(col-stripX) * c.TickToPixel(c.StepTicks()),
		Y: a.Snapper().LaneY(line - headerLines),
	}
	if i := line - headerLines; i >= 0 && i < len(a.project.Tracks) && col >= stripX {
		trackID = a.project.Tracks[i].ID
	}
	return trackID, pointer
}

// Dragging reports whether a track is being dragged
func (a *Arrangement) Dragging() bool { return a.drag != nil }

func (a *Arrangement) View() string {
	var out strings.Builder
	p := a.project
	c := p.Clock()
	bar, beat, _ := c.BarBeat(max(a.playhead, 0))
	out.WriteString(fmt.Sprintf("ARRANGE  %s  %.1f bpm  %s  %d.%d\n\n", p.Name, p.BPM, p.TimeSignature, bar, beat))

	stepTicks := c.StepTicks()
	playCol := -1
	if a.playhead >= 0 {
		playCol = int(a.playhead / stepTicks)
	}

	for i, t := range p.Tracks {
		prefix := "  "
		if i == a.cursor {
			prefix = "> "
		}
		name := t.Name
		if parent := p.DrumParent(t.ID); parent != nil {
			name = "  " + name
		}
		if len(name) > 14 {
			name = name[:13] + "~"
		}
		flags := ""
		if t.Mix.Mute {
			flags += "M"
		}
		if t.Mix.Solo {
			flags += "S"
		}
		if !p.Audible(t) {
			flags += "-"
		}
		out.WriteString(fmt.Sprintf("%s%-14s %-7s %-3s %s ", prefix, name, t.Kind(), flags, widgets.Meter(t.Mix.Volume, 6)))

		start := p.TrackOffset(t) / stepTicks
		end := (p.TrackOffset(t) + t.Length(c) + stepTicks - 1) / stepTicks
		for col := int64(0); col < stripCols; col++ {
			out.WriteString(widgets.ClipChar(col >= start && col < end, int(col) == playCol, col%int64(c.BarTicks()/stepTicks) == 0))
		}
		out.WriteString("\n")
	}
	if len(p.Tracks) == 0 {
		out.WriteString("  (no tracks yet)\n")
	}

	if t := a.Selected(); t != nil {
		bar, beat, _ := c.BarBeat(p.TrackOffset(t))
		out.WriteString(fmt.Sprintf("\nSelected: %s  at %d.%d  lane %d  vol %.2f  pan %+.1f\n",
			t.Name, bar, beat, a.Snapper().Lane(t.Position.Y), t.Mix.Volume, t.Mix.Pan))
	}

	out.WriteString("\n")
	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Title: "Tracks", Keys: []widgets.KeyBinding{
			{Key: "j / k", Desc: "select track"},
			{Key: "1 / 2 / 3", Desc: "add midi/sampler/drum track"},
			{Key: "x", Desc: "delete track"},
			{Key: "enter", Desc: "open editor"},
		}},
		{Title: "Place", Keys: []widgets.KeyBinding{
			{Key: "h / l", Desc: "move one step"},
			{Key: "H / L", Desc: "move one bar"},
			{Key: "J / K", Desc: "lane down/up"},
		}},
		{Title: "Mix", Keys: []widgets.KeyBinding{
			{Key: "m / s", Desc: "mute/solo"},
			{Key: "- / +", Desc: "volume"},
			{Key: "< / >", Desc: "pan"},
		}},
	}))
	return out.String()
}
