package sequencer

import (
	"context"
	"sync"
	"time"

	"go-arrange/debug"
	"go-arrange/midi"
	"go-arrange/timeline"
)

// PlayState is the transport state
type PlayState int

const (
	Stopped PlayState = iota
	Playing
	Paused
)

func (s PlayState) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Releaser is implemented by players that can silence everything at once
type Releaser interface {
	StopAll()
}

type heldKey struct {
	trackID string
	pitch   uint8
}

// Manager is the transport. Play snapshots the project into a schedule
// and cloned tracks, and a dispatch goroutine sends each event to the
// player at its wall clock time. The goroutine never touches the live
// project. Edits made while playing are heard on the next Play.
type Manager struct {
	mu      sync.Mutex
	project *Project
	player  NotePlayer

	state    PlayState
	position int64 // tick while paused or stopped

	// current run
	clock     timeline.Clock
	startTick int64
	t0        time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	held      map[heldKey]Voice

	// Notify TUI of state changes the user did not trigger
	UpdateChan chan struct{}
}

// NewManager creates a stopped transport for a project
func NewManager(p *Project, player NotePlayer) *Manager {
	return &Manager{
		project:    p,
		player:     player,
		held:       make(map[heldKey]Voice),
		UpdateChan: make(chan struct{}, 1),
	}
}

// SetProject stops playback and switches to another project
func (m *Manager) SetProject(p *Project) {
	m.Stop()
	m.mu.Lock()
	m.project = p
	m.mu.Unlock()
}

// Play starts playback from the current position
func (m *Manager) Play(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Playing {
		return nil
	}
	if err := m.project.Clock().Validate(); err != nil {
		return err
	}

	events := Schedule(m.project, m.position)
	tracks := make(map[string]*Track, len(m.project.Tracks))
	for _, t := range m.project.Tracks {
		tracks[t.ID] = t.Clone()
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.clock = m.project.Clock()
	m.startTick = m.position
	m.t0 = time.Now()
	m.cancel = cancel
	m.done = done
	m.state = Playing

	debug.Log("transport", "play from tick=%d events=%d", m.position, len(events))
	go m.dispatch(runCtx, events, tracks, m.clock.TickToTime(m.startTick), m.t0, done)
	return nil
}

// Pause stops playback and keeps the position
func (m *Manager) Pause() {
	m.mu.Lock()
	if m.state != Playing {
		m.mu.Unlock()
		return
	}
	pos := m.currentTick()
	m.mu.Unlock()

	m.halt()

	m.mu.Lock()
	m.position = pos
	m.state = Paused
	m.mu.Unlock()
	debug.Log("transport", "pause at tick=%d", pos)
}

// Stop stops playback, releases held notes and rewinds to the start
func (m *Manager) Stop() {
	m.halt()
	m.mu.Lock()
	m.position = 0
	m.state = Stopped
	m.mu.Unlock()
}

// Seek moves the playhead. While playing, playback restarts there.
func (m *Manager) Seek(ctx context.Context, tick int64) error {
	if tick < 0 {
		tick = 0
	}
	m.mu.Lock()
	playing := m.state == Playing
	m.mu.Unlock()

	if !playing {
		m.mu.Lock()
		m.position = tick
		m.mu.Unlock()
		return nil
	}
	m.halt()
	m.mu.Lock()
	m.position = tick
	m.state = Paused
	m.mu.Unlock()
	return m.Play(ctx)
}

// Position is the playhead in ticks
func (m *Manager) Position() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Playing {
		return m.currentTick()
	}
	return m.position
}

// State returns the transport state
func (m *Manager) State() PlayState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// currentTick needs m.mu held
func (m *Manager) currentTick() int64 {
	return m.startTick + m.clock.TimeToTick(time.Since(m.t0).Seconds())
}

// halt cancels the dispatch goroutine, waits for it and silences held notes
func (m *Manager) halt() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	m.releaseAll()
}

func (m *Manager) releaseAll() {
	m.mu.Lock()
	held := m.held
	m.held = make(map[heldKey]Voice)
	m.mu.Unlock()

	if m.player == nil {
		return
	}
	for k, v := range held {
		m.player.NoteOff(v, k.pitch)
	}
	if r, ok := m.player.(Releaser); ok {
		r.StopAll()
	}
}

func (m *Manager) dispatch(ctx context.Context, events []ScheduledEvent, tracks map[string]*Track, startSec float64, t0 time.Time, done chan struct{}) {
	defer close(done)

	for _, ev := range events {
		at := t0.Add(time.Duration((ev.Time - startSec) * float64(time.Second)))
		if wait := time.Until(at); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return
		}

		t := tracks[ev.TrackID]
		if t == nil || m.player == nil {
			continue
		}
		v := Voice{Track: t, Channel: ev.Channel}
		key := heldKey{trackID: ev.TrackID, pitch: ev.Note}
		m.mu.Lock()
		if ev.Type == midi.NoteOn {
			m.held[key] = v
		} else {
			delete(m.held, key)
		}
		m.mu.Unlock()

		if ev.Type == midi.NoteOn {
			m.player.NoteOn(v, ev.Note, ev.Velocity)
		} else {
			m.player.NoteOff(v, ev.Note)
		}
		debug.Log("dispatch", "track=%s tick=%d %s", ev.TrackID, ev.Tick, ev.Event)
	}

	// reached the end of the song
	m.mu.Lock()
	if m.done == done {
		m.cancel()
		m.cancel, m.done = nil, nil
		m.state = Stopped
		m.position = 0
	}
	m.mu.Unlock()
	debug.Log("transport", "end of song")
	m.notifyUpdate()
}

func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}
