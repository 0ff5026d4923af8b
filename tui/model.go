package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-arrange/api"
	"go-arrange/auth"
	"go-arrange/config"
	"go-arrange/debug"
	"go-arrange/instrument"
	"go-arrange/midi"
	"go-arrange/sequencer"
	"go-arrange/theme"
)

type view int

const (
	viewArrange view = iota
	viewEditor
	viewSettings
	viewProjects
	numViews
)

var viewNames = [numViews]string{"arrange", "editor", "settings", "projects"}

// headerLines is how many lines View prints above the active editor
const headerLines = 3

const playheadRate = 50 * time.Millisecond

// Options wires the model to the rest of the program. Devices, Session
// and Client may be nil.
type Options struct {
	Context     context.Context
	Project     *sequencer.Project
	Config      *config.Config
	Library     *sequencer.Library
	Instruments *instrument.Manager
	Devices     *midi.DeviceManager
	Session     *auth.Session
	Client      *api.Client
	Theme       *theme.Theme
	OutPorts    []string
}

type Model struct {
	ctx         context.Context
	project     *sequencer.Project
	cfg         *config.Config
	library     *sequencer.Library
	transport   *sequencer.Manager
	instruments *instrument.Manager
	devices     *midi.DeviceManager
	session     *auth.Session
	client      *api.Client
	theme       *theme.Theme

	arrange  *sequencer.Arrangement
	editor   sequencer.Editor
	settings *sequencer.SettingsEditor
	browser  *sequencer.Browser

	view     view
	err      error
	status   string
	profile  *auth.Profile
	quitting bool
}

type tickMsg time.Time

type transportMsg struct{}

type deviceMsg midi.DeviceEvent

type noteMsg struct {
	ev     midi.NoteEvent
	source midi.Controller
}

type pushedMsg struct{ err error }

type profileMsg struct{ profile *auth.Profile }

// NewModel builds the front-end around an open project
func NewModel(o Options) *Model {
	m := &Model{
		ctx:         o.Context,
		project:     o.Project,
		cfg:         o.Config,
		library:     o.Library,
		instruments: o.Instruments,
		devices:     o.Devices,
		session:     o.Session,
		client:      o.Client,
		theme:       o.Theme,
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.cfg == nil {
		m.cfg = config.DefaultConfig()
	}
	if m.theme == nil {
		m.theme = theme.New(nil)
	}
	if m.instruments == nil {
		m.instruments = instrument.NewManager(instrument.NewRecordingEngine(), m.project)
	}
	m.transport = sequencer.NewManager(m.project, m.instruments)
	m.settings = sequencer.NewSettingsEditor(m.project)
	m.settings.SetMIDIPorts(o.OutPorts)
	m.settings.Output = m.cfg.MIDI.OutputPort
	m.settings.OnOutput = m.selectOutput
	if m.library != nil {
		m.browser = sequencer.NewBrowser(m.library, func() *sequencer.Project { return m.project })
		m.browser.OnLoad = m.loadProject
	}
	m.resetArrangement()
	return m
}

func (m *Model) resetArrangement() {
	m.arrange = sequencer.NewArrangement(m.project, m.cfg.Timeline.LaneHeight)
	if !m.cfg.Timeline.Snap {
		m.arrange.SetSnap(0)
	}
	m.arrange.OnOpen = m.openTrack
}

// Transport exposes playback for callers that drive the model directly
func (m *Model) Transport() *sequencer.Manager { return m.transport }

// Project is the open document
func (m *Model) Project() *sequencer.Project { return m.project }

func listenTransport(t *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-t.UpdateChan
		return transportMsg{}
	}
}

func listenDevices(dm *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-dm.Events()
		if !ok {
			return nil
		}
		return deviceMsg(ev)
	}
}

func listenNotes(c midi.Controller) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-c.NoteEvents()
		if !ok {
			return nil
		}
		return noteMsg{ev: ev, source: c}
	}
}

func tickPlayhead() tea.Cmd {
	return tea.Tick(playheadRate, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) fetchProfile() tea.Cmd {
	if m.session == nil || !m.session.SignedIn() {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg { return profileMsg{m.session.Profile(ctx)} }
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{listenTransport(m.transport), m.fetchProfile()}
	if m.devices != nil {
		cmds = append(cmds, listenDevices(m.devices))
	}
	return tea.Batch(cmds...)
}

func (m *Model) active() sequencer.Editor {
	switch m.view {
	case viewEditor:
		if m.editor != nil {
			return m.editor
		}
	case viewSettings:
		return m.settings
	case viewProjects:
		if m.browser != nil {
			return m.browser
		}
	}
	return m.arrange
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tickMsg:
		m.setPlayhead(m.transport.Position())
		if m.transport.State() == sequencer.Playing {
			return m, tickPlayhead()
		}

	case transportMsg:
		m.setPlayhead(-1)
		return m, listenTransport(m.transport)

	case deviceMsg:
		ev := midi.DeviceEvent(msg)
		var cmd tea.Cmd
		switch ev.Type {
		case midi.DeviceConnected:
			m.status = "connected " + ev.ID
			cmd = listenNotes(ev.Controller)
		case midi.DeviceDisconnected:
			m.status = "disconnected " + ev.ID
		}
		return m, tea.Batch(cmd, listenDevices(m.devices))

	case noteMsg:
		m.handleNote(msg.ev)
		return m, listenNotes(msg.source)

	case pushedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("upload: %w", msg.err)
		} else {
			m.status = "uploaded " + m.project.Name
		}

	case profileMsg:
		m.profile = msg.profile
	}
	return m, nil
}

func (m *Model) handleKey(key string) tea.Cmd {
	m.err = nil

	if m.view == viewProjects && m.browser != nil && m.browser.IsInputMode() && key != "ctrl+c" {
		m.fail(m.browser.HandleKey(key))
		return nil
	}

	switch key {
	case "ctrl+c":
		return m.quit()
	case "q":
		if m.view == viewArrange {
			return m.quit()
		}
	case "ctrl+z":
		m.fail(m.project.Undo())
		m.afterEdit()
		return nil
	case "ctrl+y":
		m.fail(m.project.Redo())
		m.afterEdit()
		return nil
	case "ctrl+p":
		return m.togglePlay()
	case "ctrl+x":
		m.transport.Stop()
		m.setPlayhead(-1)
		return nil
	case "ctrl+s":
		m.quickSave()
		return nil
	case "ctrl+u":
		return m.push()
	case "tab":
		next := (m.view + 1) % numViews
		m.setView(next)
		if m.view != next {
			// no editor for the selection
			m.setView((next + 1) % numViews)
		}
		return nil
	case "f1":
		m.setView(viewArrange)
		return nil
	case "f2":
		m.setView(viewEditor)
		return nil
	case "f3":
		m.setView(viewSettings)
		return nil
	case "f4":
		m.setView(viewProjects)
		return nil
	case "esc":
		m.setView(viewArrange)
		return nil
	}

	m.fail(m.active().HandleKey(key))
	m.afterEdit()
	return nil
}

func (m *Model) fail(err error) {
	if err != nil {
		m.err = err
		debug.Log("tui", "error: %v", err)
	}
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.transport.Stop()
	return tea.Quit
}

func (m *Model) setView(v view) {
	if v == viewEditor && m.editor == nil {
		if t := m.arrange.Selected(); t != nil {
			m.openTrack(t)
		}
		if m.editor == nil {
			return
		}
	}
	if v == viewProjects && m.browser != nil {
		m.fail(m.browser.Refresh())
	}
	if v == viewSettings {
		if t := m.arrange.Selected(); t != nil {
			m.settings.SetTrack(t.ID)
		}
	}
	m.view = v
}

type trackEditor interface {
	Track() *sequencer.Track
}

// afterEdit drops editors whose track went away and frees instruments
// of removed tracks.
func (m *Model) afterEdit() {
	if te, ok := m.editor.(trackEditor); ok && te.Track() == nil {
		m.editor = nil
		if m.view == viewEditor {
			m.view = viewArrange
		}
	}
	m.instruments.Sync()
}

func (m *Model) openTrack(t *sequencer.Track) {
	var (
		ed  sequencer.Editor
		err error
	)
	switch t.Kind() {
	case sequencer.KindDrum:
		ed, err = sequencer.NewDrumMachine(m.project, t.ID, m.instruments)
	case sequencer.KindMIDI, sequencer.KindSampler:
		ed, err = sequencer.NewPianoRoll(m.project, t.ID, m.instruments)
	default:
		m.status = fmt.Sprintf("%s tracks have no editor", t.Kind())
		return
	}
	if err != nil {
		m.fail(err)
		return
	}
	m.editor = ed
	m.settings.SetTrack(t.ID)
	m.view = viewEditor
}

func (m *Model) loadProject(p *sequencer.Project) {
	m.transport.SetProject(p)
	m.instruments.SetProject(p)
	m.project = p
	m.editor = nil
	m.settings = sequencer.NewSettingsEditor(p)
	m.settings.SetMIDIPorts(m.settingsPorts())
	m.settings.Output = m.cfg.MIDI.OutputPort
	m.settings.OnOutput = m.selectOutput
	m.resetArrangement()
	m.view = viewArrange
	m.status = "opened " + p.Name
}

func (m *Model) settingsPorts() []string {
	if m.devices == nil {
		return nil
	}
	return midi.OutPorts()
}

func (m *Model) selectOutput(port string) {
	if m.devices == nil {
		return
	}
	send, err := m.devices.Sender(port)
	if err != nil {
		m.fail(err)
		return
	}
	m.instruments.SetEngine(instrument.NewMIDIOutEngine(send))
	m.cfg.MIDI.OutputPort = port
	if err := m.cfg.Save(); err != nil {
		debug.Warn("tui", err)
	}
	m.status = "output " + port
}

func (m *Model) togglePlay() tea.Cmd {
	if m.transport.State() == sequencer.Playing {
		m.transport.Pause()
		return nil
	}
	if err := m.transport.Play(m.ctx); err != nil {
		m.fail(err)
		return nil
	}
	return tickPlayhead()
}

func (m *Model) setPlayhead(tick int64) {
	if m.transport.State() == sequencer.Stopped {
		tick = -1
	}
	m.arrange.SetPlayhead(tick)
	if ph, ok := m.editor.(sequencer.Playhead); ok {
		ph.SetPlayhead(m.editorTick(tick))
	}
}

// editorTick moves a song position into the open editor's track, whose
// notes are relative to the track start. Positions before the start
// hide the playhead.
func (m *Model) editorTick(tick int64) int64 {
	ed, ok := m.editor.(trackEditor)
	if tick < 0 || !ok || ed.Track() == nil {
		return tick
	}
	rel := tick - m.project.TrackOffset(ed.Track())
	if rel < 0 {
		return -1
	}
	return rel
}

func (m *Model) quickSave() {
	if m.library == nil {
		m.fail(errors.New("no project library"))
		return
	}
	info, err := m.library.Save(m.project, "")
	if err != nil {
		m.fail(err)
		return
	}
	m.status = "saved " + info.Filename
}

func (m *Model) push() tea.Cmd {
	if m.client == nil || m.session == nil || !m.session.SignedIn() {
		m.fail(fmt.Errorf("%w: run 'go-arrange login' first", auth.ErrSignedOut))
		return nil
	}
	dto := api.ProjectToDTO(m.project)
	client, ctx := m.client, m.ctx
	m.status = "uploading..."
	return func() tea.Msg { return pushedMsg{client.PushDTO(ctx, dto)} }
}

// handleNote records keyboard notes into an armed piano roll, otherwise
// it plays them through the selected track.
func (m *Model) handleNote(ev midi.NoteEvent) {
	if roll, ok := m.editor.(*sequencer.PianoRoll); ok && m.view == viewEditor && roll.IsRecording() {
		m.fail(roll.Record(ev, m.transport.Position()))
		return
	}
	t := m.arrange.Selected()
	if t == nil {
		return
	}
	v := m.project.Voice(t)
	if ev.Velocity == 0 {
		m.instruments.NoteOff(v, ev.Note)
	} else {
		m.instruments.NoteOn(v, ev.Note, ev.Velocity)
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.view != viewArrange {
		return
	}
	line := msg.Y - headerLines
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		id, pointer := m.arrange.PointerAt(msg.X, line)
		if id != "" {
			m.fail(m.arrange.BeginDrag(id, pointer))
		}
	case msg.Action == tea.MouseActionMotion && m.arrange.Dragging():
		_, pointer := m.arrange.PointerAt(msg.X, line)
		m.arrange.DragTo(pointer)
	case msg.Action == tea.MouseActionRelease && m.arrange.Dragging():
		_, pointer := m.arrange.PointerAt(msg.X, line)
		m.arrange.DragTo(pointer)
		m.fail(m.arrange.EndDrag())
	}
}

func (m *Model) header() string {
	p := m.project
	c := p.Clock()
	bar, beat, _ := c.BarBeat(m.transport.Position())
	parts := []string{
		"go-arrange",
		p.Name,
		fmt.Sprintf("%s %d.%d", strings.ToUpper(m.transport.State().String()), bar, beat),
		fmt.Sprintf("%.0fbpm %s", p.BPM, p.TimeSignature),
	}
	if h := p.History(); h.CanUndo() {
		parts = append(parts, "undo: "+h.UndoName())
	}
	if m.profile != nil {
		parts = append(parts, m.profile.Email)
	} else if m.session != nil && m.session.SignedIn() {
		parts = append(parts, m.session.Subject())
	}
	return strings.Join(parts, "  ")
}

func (m *Model) tabs() string {
	active := lipgloss.NewStyle().Foreground(m.theme.Accent()).Bold(true)
	dim := lipgloss.NewStyle().Foreground(m.theme.Muted())
	var out []string
	for v := view(0); v < numViews; v++ {
		label := fmt.Sprintf("F%d %s", v+1, viewNames[v])
		if v == m.view {
			out = append(out, active.Render(label))
		} else {
			out = append(out, dim.Render(label))
		}
	}
	return strings.Join(out, "  ")
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.theme.Muted())
	errStyle := lipgloss.NewStyle().
		Foreground(m.theme.BG()).
		Background(m.theme.Warning()).
		Padding(0, 1)

	var out strings.Builder
	out.WriteString(headerStyle.Render(m.header()))
	out.WriteString("\n")
	out.WriteString(m.tabs())
	out.WriteString("\n\n")
	out.WriteString(m.active().View())
	out.WriteString("\n\n")

	if m.err != nil {
		out.WriteString(errStyle.Render("error: " + m.err.Error()))
		out.WriteString("\n")
	} else if m.status != "" {
		out.WriteString(dimStyle.Render(m.status))
		out.WriteString("\n")
	}
	out.WriteString(dimStyle.Render("tab/F1-F4:view  ctrl+p:play/pause  ctrl+x:stop  ctrl+z/y:undo/redo  ctrl+s:save  ctrl+u:upload  ctrl+c:quit"))
	return out.String()
}
