package instrument

import (
	"sync"

	"go-arrange/debug"
	"go-arrange/sequencer"
)

type slot struct {
	spec Spec
	inst Instrument
	held map[uint8]bool
}

// Manager keeps one instrument per track, recreating it when the track's
// settings change. It is the note player for editors and the transport,
// so note calls only look at the voice they are given; the project is
// read by Sync alone, on the goroutine that edits it.
type Manager struct {
	mu      sync.Mutex
	engine  Engine
	project *sequencer.Project
	slots   map[string]*slot
}

// NewManager creates a manager playing tracks of p through engine
func NewManager(engine Engine, p *sequencer.Project) *Manager {
	return &Manager{engine: engine, project: p, slots: make(map[string]*slot)}
}

// SetProject switches to another document and disposes every instrument
func (m *Manager) SetProject(p *sequencer.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposeAll()
	m.project = p
}

// SetEngine swaps the engine, e.g. when the output port changes
func (m *Manager) SetEngine(e Engine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposeAll()
	m.engine = e
}

// SpecFor describes the instrument a voice plays through
func SpecFor(v sequencer.Voice) Spec {
	t := v.Track
	spec := Spec{TrackID: t.ID, Kind: string(t.Kind()), Channel: v.Channel}
	switch s := t.Settings.(type) {
	case *sequencer.MIDISettings:
		spec.Program, spec.GM = sequencer.ParseProgram(s.Instrument)
	case *sequencer.SamplerSettings:
		spec.Sample = s.Sample
		spec.BaseNote = s.BaseNote
	}
	return spec
}

func (m *Manager) instrument(v sequencer.Voice) (*slot, error) {
	spec := SpecFor(v)
	if s, ok := m.slots[spec.TrackID]; ok {
		if s.spec == spec {
			return s, nil
		}
		m.dispose(spec.TrackID)
	}
	inst, err := m.engine.CreateInstrument(spec)
	if err != nil {
		return nil, err
	}
	s := &slot{spec: spec, inst: inst, held: make(map[uint8]bool)}
	m.slots[spec.TrackID] = s
	debug.Log("instrument", "created track=%s kind=%s ch=%d", spec.TrackID, spec.Kind, spec.Channel)
	return s, nil
}

// NoteOn starts a note on a track's instrument. Playback must not stop
// for one failing instrument, so errors are logged.
func (m *Manager) NoteOn(v sequencer.Voice, pitch, velocity uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.instrument(v)
	if err != nil {
		debug.Warn("instrument", err, "track", v.Track.ID)
		return
	}
	if err := s.inst.PlayNote(pitch, velocity); err != nil {
		debug.Warn("instrument", err, "track", v.Track.ID, "pitch", pitch)
		return
	}
	s.held[pitch] = true
}

// NoteOff stops a note
func (m *Manager) NoteOff(v sequencer.Voice, pitch uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := v.Track.ID
	s, ok := m.slots[id]
	if !ok {
		return
	}
	delete(s.held, pitch)
	if err := s.inst.StopNote(pitch); err != nil {
		debug.Warn("instrument", err, "track", id, "pitch", pitch)
	}
}

// StopAll stops every sounding note and keeps the instruments
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.slots {
		for pitch := range s.held {
			if err := s.inst.StopNote(pitch); err != nil {
				debug.Warn("instrument", err, "track", id, "pitch", pitch)
			}
		}
		s.held = make(map[uint8]bool)
	}
}

// Dispose frees the instrument of a removed track
func (m *Manager) Dispose(trackID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispose(trackID)
}

// Sync disposes instruments whose tracks are no longer in the project
func (m *Manager) Sync() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.slots {
		if m.project == nil || m.project.Track(id) == nil {
			m.dispose(id)
		}
	}
}

// Len returns how many instruments are alive
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

// Close disposes every instrument
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposeAll()
}

func (m *Manager) dispose(id string) {
	s, ok := m.slots[id]
	if !ok {
		return
	}
	delete(m.slots, id)
	if err := s.inst.Dispose(); err != nil {
		debug.Warn("instrument", err, "track", id)
	}
}

func (m *Manager) disposeAll() {
	for id := range m.slots {
		m.dispose(id)
	}
}
