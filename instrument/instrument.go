// Package instrument fronts the synthesis engine that turns notes into
// sound. The engine is an external synth reached over MIDI, an in-process
// SoundFont synthesizer, or a recorder for tests.
package instrument

import "errors"

var ErrDisposed = errors.New("instrument: disposed")

// Spec describes the instrument a track needs
type Spec struct {
	TrackID  string
	Kind     string // track kind: midi, sampler
	Channel  uint8
	Program  uint8
	GM       bool   // Program is a General MIDI program
	Sample   string // sampler source, if any
	BaseNote int
}

// Engine creates instruments
type Engine interface {
	CreateInstrument(spec Spec) (Instrument, error)
}

// Instrument plays notes for one track
type Instrument interface {
	PlayNote(pitch, velocity uint8) error
	StopNote(pitch uint8) error
	Dispose() error
}
