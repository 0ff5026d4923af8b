package instrument

import (
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-arrange/midi"
)

// ccAllNotesOff is the channel mode message that silences a channel
const ccAllNotesOff = 123

// MIDIOutEngine plays through an external synthesizer on a MIDI output
type MIDIOutEngine struct {
	send midi.Sender
}

// NewMIDIOutEngine sends every instrument's messages through send
func NewMIDIOutEngine(send midi.Sender) *MIDIOutEngine {
	return &MIDIOutEngine{send: send}
}

// CreateInstrument selects the GM program on the spec's channel
func (e *MIDIOutEngine) CreateInstrument(spec Spec) (Instrument, error) {
	if spec.GM {
		if err := e.send(gomidi.ProgramChange(spec.Channel, spec.Program)); err != nil {
			return nil, err
		}
	}
	return &midiInstrument{send: e.send, channel: spec.Channel, held: make(map[uint8]bool)}, nil
}

type midiInstrument struct {
	mu       sync.Mutex
	send     midi.Sender
	channel  uint8
	held     map[uint8]bool
	disposed bool
}

func (i *midiInstrument) PlayNote(pitch, velocity uint8) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}
	i.held[pitch] = true
	return i.send(gomidi.NoteOn(i.channel, pitch, velocity))
}

func (i *midiInstrument) StopNote(pitch uint8) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}
	delete(i.held, pitch)
	return i.send(gomidi.NoteOff(i.channel, pitch))
}

// Dispose releases held notes. Channels are shared between tracks, so
// all-notes-off is only sent when something is still sounding.
func (i *midiInstrument) Dispose() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return nil
	}
	i.disposed = true
	if len(i.held) == 0 {
		return nil
	}
	i.held = nil
	return i.send(gomidi.ControlChange(i.channel, ccAllNotesOff, 0))
}
