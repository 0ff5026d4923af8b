package midi

import (
	"sort"

	"go-arrange/timeline"
)

// Data is a song in wall-clock units, the shape MIDI files are loaded into
type Data struct {
	Tracks        []Track                `json:"tracks"`
	BPM           float64                `json:"bpm"`
	TimeSignature timeline.TimeSignature `json:"timeSignature"`
}

// Track is one MIDI track with a flat list of timed notes
type Track struct {
	Name       string `json:"name"`
	Channel    uint8  `json:"channel"`    // 0-15
	Instrument uint8  `json:"instrument"` // GM program number
	Notes      []Note `json:"notes"`
}

// Note times are in seconds, velocity is normalized 0-1
type Note struct {
	Pitch    uint8   `json:"pitch"`
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
	Velocity float64 `json:"velocity"`
}

// Validation errors
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNotMIDI              Error = "midi: not a standard MIDI file"
	ErrSMPTE                Error = "midi: SMPTE time format is not supported"
	ErrInvalidTempo         Error = "midi: tempo must be greater than 0"
	ErrInvalidTimeSignature Error = "midi: time signature must be [numerator, denominator] with positive values"
	ErrInvalidPitch         Error = "midi: pitch must be between 0 and 127"
	ErrInvalidVelocity      Error = "midi: velocity must be between 0 and 1"
	ErrInvalidChannel       Error = "midi: channel must be between 0 and 15"
	ErrInvalidTime          Error = "midi: time and duration must be non-negative"
)

// Validate checks tempo, meter and every note
func (d *Data) Validate() error {
	if d.BPM <= 0 {
		return ErrInvalidTempo
	}
	if d.TimeSignature.Validate() != nil {
		return ErrInvalidTimeSignature
	}
	for _, t := range d.Tracks {
		if t.Channel > 15 {
			return ErrInvalidChannel
		}
		for _, n := range t.Notes {
			if err := n.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks one note
func (n Note) Validate() error {
	if n.Pitch > 127 {
		return ErrInvalidPitch
	}
	if n.Velocity < 0 || n.Velocity > 1 {
		return ErrInvalidVelocity
	}
	if n.Time < 0 || n.Duration < 0 {
		return ErrInvalidTime
	}
	return nil
}

// Duration is the end time of the last note in seconds
func (d *Data) Duration() float64 {
	end := 0.0
	for _, t := range d.Tracks {
		for _, n := range t.Notes {
			if e := n.Time + n.Duration; e > end {
				end = e
			}
		}
	}
	return end
}

// Clock returns a clock for the song tempo and meter
func (d *Data) Clock() timeline.Clock {
	return timeline.NewClock(d.BPM, d.TimeSignature)
}

// SortNotes orders notes by time then pitch
func (t *Track) SortNotes() {
	sort.SliceStable(t.Notes, func(i, j int) bool {
		if t.Notes[i].Time != t.Notes[j].Time {
			return t.Notes[i].Time < t.Notes[j].Time
		}
		return t.Notes[i].Pitch < t.Notes[j].Pitch
	})
}
