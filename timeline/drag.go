package timeline

import "math"

// Position is a point in timeline pixel space. X is time, Y is the lane.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Snapper snaps positions to the tick grid horizontally and to lanes
// vertically.
type Snapper struct {
	Clock      Clock
	Grid       int64 // ticks, 0 = free
	LaneHeight float64
}

// NewSnapper snaps to one drum step and the default lane height
func NewSnapper(c Clock) Snapper {
	return Snapper{Clock: c, Grid: c.StepTicks(), LaneHeight: DefaultLaneHeight}
}

func (s Snapper) laneHeight() float64 {
	if s.LaneHeight <= 0 {
		return DefaultLaneHeight
	}
	return s.LaneHeight
}

// SnapX snaps a horizontal pixel offset to the grid, clamped at 0
func (s Snapper) SnapX(x float64) float64 {
	if x < 0 {
		x = 0
	}
	if s.Grid <= 0 {
		return x
	}
	tick := Snap(s.Clock.PixelToTick(x), s.Grid)
	return s.Clock.TickToPixel(tick)
}

// SnapY snaps a vertical pixel offset to the top of its lane
func (s Snapper) SnapY(y float64) float64 {
	if y < 0 {
		return 0
	}
	h := s.laneHeight()
	return math.Round(y/h) * h
}

// Snap snaps both axes
func (s Snapper) Snap(p Position) Position {
	return Position{X: s.SnapX(p.X), Y: s.SnapY(p.Y)}
}

// Lane returns the lane index for a y offset
func (s Snapper) Lane(y float64) int {
	if y < 0 {
		return 0
	}
	return int(math.Round(y / s.laneHeight()))
}

// LaneY returns the y offset of a lane
func (s Snapper) LaneY(lane int) float64 {
	if lane < 0 {
		lane = 0
	}
	return float64(lane) * s.laneHeight()
}

// Drag tracks one pointer drag of an item. The item keeps its offset
// from the pointer; Move returns the snapped position the item would be
// dropped at.
type Drag struct {
	snapper Snapper
	pointer Position // where the pointer went down
	origin  Position // item position at drag start
	current Position
	active  bool
}

// BeginDrag starts a drag of an item at origin grabbed at pointer
func BeginDrag(s Snapper, origin, pointer Position) *Drag {
	return &Drag{
		snapper: s,
		pointer: pointer,
		origin:  origin,
		current: origin,
		active:  true,
	}
}

// Move updates the drag with a new pointer position
func (d *Drag) Move(pointer Position) Position {
	if !d.active {
		return d.current
	}
	raw := Position{
		X: d.origin.X + (pointer.X - d.pointer.X),
		Y: d.origin.Y + (pointer.Y - d.pointer.Y),
	}
	d.current = d.snapper.Snap(raw)
	return d.current
}

// End finishes the drag and returns the final position
func (d *Drag) End() Position {
	d.active = false
	return d.current
}

// Cancel finishes the drag and returns the origin
func (d *Drag) Cancel() Position {
	d.active = false
	d.current = d.origin
	return d.origin
}

// Origin is the item position before the drag
func (d *Drag) Origin() Position { return d.origin }

// Active reports whether the drag is still in progress
func (d *Drag) Active() bool { return d.active }

// Moved reports whether the item ends up somewhere else
func (d *Drag) Moved() bool { return d.current != d.origin }
