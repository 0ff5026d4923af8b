package timeline

import (
	"errors"
	"fmt"
	"math"
)

// PPQ is the editor resolution in ticks per quarter note
const PPQ = 480

// Defaults used when a Clock field is left zero
const (
	DefaultBPM           = 120.0
	DefaultPixelsPerBeat = 48.0
	DefaultStepsPerBeat  = 4
	DefaultLaneHeight    = 64.0
)

var (
	ErrInvalidBPM           = errors.New("timeline: bpm must be greater than 0")
	ErrInvalidTimeSignature = errors.New("timeline: time signature must be [numerator, denominator] with positive values")
	ErrInvalidSteps         = errors.New("timeline: steps per beat must divide the tick resolution")
)

// ValidSteps reports whether n steps per beat give a whole number of
// ticks per step
func ValidSteps(n int) bool {
	return n >= 1 && n <= PPQ && PPQ%n == 0
}

// TimeSignature is [numerator, denominator]
type TimeSignature struct {
	Num int `json:"num" yaml:"num"`
	Den int `json:"den" yaml:"den"`
}

// CommonTime is 4/4
var CommonTime = TimeSignature{Num: 4, Den: 4}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Num, ts.Den)
}

// Validate checks both parts are positive
func (ts TimeSignature) Validate() error {
	if ts.Num <= 0 || ts.Den <= 0 {
		return ErrInvalidTimeSignature
	}
	return nil
}

// Clock converts between pixels, ticks and seconds for one tempo.
// A beat is a quarter note; a bar is Num beats.
type Clock struct {
	BPM           float64
	TimeSignature TimeSignature
	PixelsPerBeat float64
	StepsPerBeat  int
}

// NewClock returns a clock with default zoom and grid
func NewClock(bpm float64, ts TimeSignature) Clock {
	return Clock{
		BPM:           bpm,
		TimeSignature: ts,
		PixelsPerBeat: DefaultPixelsPerBeat,
		StepsPerBeat:  DefaultStepsPerBeat,
	}
}

// Validate reports whether the clock can convert anything. A zero
// StepsPerBeat means the default.
func (c Clock) Validate() error {
	if c.BPM <= 0 || math.IsNaN(c.BPM) || math.IsInf(c.BPM, 0) {
		return ErrInvalidBPM
	}
	if c.StepsPerBeat != 0 && !ValidSteps(c.StepsPerBeat) {
		return fmt.Errorf("%w: %d", ErrInvalidSteps, c.StepsPerBeat)
	}
	return c.TimeSignature.Validate()
}

func (c Clock) bpm() float64 {
	if c.BPM <= 0 {
		return DefaultBPM
	}
	return c.BPM
}

func (c Clock) pixelsPerBeat() float64 {
	if c.PixelsPerBeat <= 0 {
		return DefaultPixelsPerBeat
	}
	return c.PixelsPerBeat
}

func (c Clock) stepsPerBeat() int {
	if !ValidSteps(c.StepsPerBeat) {
		return DefaultStepsPerBeat
	}
	return c.StepsPerBeat
}

func (c Clock) beatsPerBar() int {
	if c.TimeSignature.Num <= 0 {
		return CommonTime.Num
	}
	return c.TimeSignature.Num
}

// SecondsPerBeat is 60/bpm
func (c Clock) SecondsPerBeat() float64 {
	return 60.0 / c.bpm()
}

// SecondsPerBar is the length of one bar in seconds
func (c Clock) SecondsPerBar() float64 {
	return c.SecondsPerBeat() * float64(c.beatsPerBar())
}

// StepTicks is the drum grid step size in ticks
func (c Clock) StepTicks() int64 {
	return int64(PPQ / c.stepsPerBeat())
}

// BarTicks is the length of one bar in ticks
func (c Clock) BarTicks() int64 {
	return int64(PPQ * c.beatsPerBar())
}

// BarPixels is the length of one bar in pixels
func (c Clock) BarPixels() float64 {
	return c.pixelsPerBeat() * float64(c.beatsPerBar())
}

// PixelToTime converts a horizontal pixel offset to seconds
func (c Clock) PixelToTime(px float64) float64 {
	return (px / c.pixelsPerBeat()) * c.SecondsPerBeat()
}

// TimeToPixel converts seconds to a horizontal pixel offset
func (c Clock) TimeToPixel(sec float64) float64 {
	return sec / c.SecondsPerBeat() * c.pixelsPerBeat()
}

// TickToTime converts ticks to seconds
func (c Clock) TickToTime(tick int64) float64 {
	return float64(tick) / PPQ * c.SecondsPerBeat()
}

// TimeToTick converts seconds to the nearest tick
func (c Clock) TimeToTick(sec float64) int64 {
	return int64(math.Round(sec / c.SecondsPerBeat() * PPQ))
}

// PixelToTick converts a pixel offset to the nearest tick
func (c Clock) PixelToTick(px float64) int64 {
	return int64(math.Round(px / c.pixelsPerBeat() * PPQ))
}

// TickToPixel converts ticks to a pixel offset
func (c Clock) TickToPixel(tick int64) float64 {
	return float64(tick) / PPQ * c.pixelsPerBeat()
}

// BarBeat returns the 1-based bar and beat and the remaining ticks
// inside the beat for a tick position.
func (c Clock) BarBeat(tick int64) (bar, beat int, rem int64) {
	if tick < 0 {
		tick = 0
	}
	bars := tick / c.BarTicks()
	inBar := tick % c.BarTicks()
	return int(bars) + 1, int(inBar/PPQ) + 1, inBar % PPQ
}

// Snap rounds tick to the nearest multiple of grid. A grid <= 0 disables
// snapping.
func Snap(tick, grid int64) int64 {
	if grid <= 0 {
		return tick
	}
	q := tick / grid
	r := tick % grid
	if r < 0 {
		q--
		r += grid
	}
	if r*2 >= grid {
		q++
	}
	return q * grid
}

// SnapFloor rounds tick down to a multiple of grid
func SnapFloor(tick, grid int64) int64 {
	if grid <= 0 {
		return tick
	}
	q := tick / grid
	if tick%grid < 0 {
		q--
	}
	return q * grid
}
