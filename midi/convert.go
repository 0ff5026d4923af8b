package midi

import (
	"math"

	"go-arrange/timeline"
)

// TickNote is a note in editor ticks
type TickNote struct {
	Pitch    uint8
	Start    int64
	Length   int64
	Velocity uint8 // 1-127
}

// FromTicks converts editor notes to seconds. offset is added to every
// start, which is how a track's timeline position shifts its notes.
func FromTicks(notes []TickNote, clock timeline.Clock, offset int64) []Note {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		out = append(out, Note{
			Pitch:    n.Pitch,
			Time:     clock.TickToTime(n.Start + offset),
			Duration: clock.TickToTime(n.Length),
			Velocity: float64(n.Velocity) / 127,
		})
	}
	return out
}

// ToTicks converts seconds back to editor ticks. Notes shorter than one
// tick after rounding get a length of one tick.
func ToTicks(notes []Note, clock timeline.Clock) []TickNote {
	out := make([]TickNote, 0, len(notes))
	for _, n := range notes {
		start := clock.TimeToTick(n.Time)
		end := clock.TimeToTick(n.Time + n.Duration)
		length := end - start
		if length < 1 {
			length = 1
		}
		out = append(out, TickNote{
			Pitch:    n.Pitch,
			Start:    start,
			Length:   length,
			Velocity: VelocityToMIDI(n.Velocity),
		})
	}
	return out
}

// VelocityToMIDI maps 0-1 to 1-127
func VelocityToMIDI(v float64) uint8 {
	vel := int(math.Round(v * 127))
	if vel < 1 {
		vel = 1
	}
	if vel > 127 {
		vel = 127
	}
	return uint8(vel)
}
