package instrument

import (
	"fmt"
	"sync"
)

// Op is a recorded instrument call
type Op string

const (
	OpCreate  Op = "create"
	OpPlay    Op = "play"
	OpStop    Op = "stop"
	OpDispose Op = "dispose"
)

// Call is one recorded instrument call
type Call struct {
	TrackID  string
	Op       Op
	Channel  uint8
	Pitch    uint8
	Velocity uint8
}

func (c Call) String() string {
	switch c.Op {
	case OpPlay:
		return fmt.Sprintf("%s %s ch=%d %d/%d", c.TrackID, c.Op, c.Channel, c.Pitch, c.Velocity)
	case OpStop:
		return fmt.Sprintf("%s %s ch=%d %d", c.TrackID, c.Op, c.Channel, c.Pitch)
	}
	return fmt.Sprintf("%s %s ch=%d", c.TrackID, c.Op, c.Channel)
}

// RecordingEngine makes silent instruments that log every call. It backs
// headless runs and tests.
type RecordingEngine struct {
	mu    sync.Mutex
	calls []Call
}

func NewRecordingEngine() *RecordingEngine { return &RecordingEngine{} }

func (e *RecordingEngine) record(c Call) {
	e.mu.Lock()
	e.calls = append(e.calls, c)
	e.mu.Unlock()
}

// Calls returns a copy of everything recorded so far
func (e *RecordingEngine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// Reset forgets recorded calls
func (e *RecordingEngine) Reset() {
	e.mu.Lock()
	e.calls = nil
	e.mu.Unlock()
}

func (e *RecordingEngine) CreateInstrument(spec Spec) (Instrument, error) {
	e.record(Call{TrackID: spec.TrackID, Op: OpCreate, Channel: spec.Channel})
	return &recorded{engine: e, spec: spec}, nil
}

type recorded struct {
	engine   *RecordingEngine
	spec     Spec
	disposed bool
}

func (r *recorded) PlayNote(pitch, velocity uint8) error {
	if r.disposed {
		return ErrDisposed
	}
	r.engine.record(Call{TrackID: r.spec.TrackID, Op: OpPlay, Channel: r.spec.Channel, Pitch: pitch, Velocity: velocity})
	return nil
}

func (r *recorded) StopNote(pitch uint8) error {
	if r.disposed {
		return ErrDisposed
	}
	r.engine.record(Call{TrackID: r.spec.TrackID, Op: OpStop, Channel: r.spec.Channel, Pitch: pitch})
	return nil
}

func (r *recorded) Dispose() error {
	if !r.disposed {
		r.disposed = true
		r.engine.record(Call{TrackID: r.spec.TrackID, Op: OpDispose, Channel: r.spec.Channel})
	}
	return nil
}
