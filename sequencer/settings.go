package sequencer

import (
	"fmt"
	"strings"

	"go-arrange/widgets"
)

// settings rows
const (
	rowTempo = iota
	rowBeats
	rowBeatUnit
	rowChannel
	rowInstrument
	rowKit
	rowOutput
	numSettingsRows
)

var settingsLabels = [numSettingsRows]string{
	"Tempo", "Beats per bar", "Beat unit", "Channel", "Instrument", "Kit", "MIDI out",
}

// SettingsEditor edits project tempo and meter, the selected track's
// output settings, and which MIDI port is played to.
type SettingsEditor struct {
	project *Project
	trackID string
	cursor  int

	outputs []string
	Output  string

	// OnOutput is called when the MIDI output port changes
	OnOutput func(port string)
}

// NewSettingsEditor creates a settings editor
func NewSettingsEditor(p *Project) *SettingsEditor {
	return &SettingsEditor{project: p}
}

func (s *SettingsEditor) Name() string { return "settings" }

// SetTrack selects whose track settings are shown
func (s *SettingsEditor) SetTrack(id string) { s.trackID = id }

// SetMIDIPorts updates the list of available MIDI output ports
func (s *SettingsEditor) SetMIDIPorts(outputs []string) { s.outputs = outputs }

func (s *SettingsEditor) track() *Track { return s.project.Track(s.trackID) }

// Adjust changes the value on a row by delta
func (s *SettingsEditor) Adjust(row, delta int) error {
	p := s.project
	switch row {
	case rowTempo:
		bpm := p.BPM + float64(delta)
		if bpm < 20 {
			bpm = 20
		}
		if bpm > 300 {
			bpm = 300
		}
		if bpm == p.BPM {
			return nil
		}
		return p.SetTempo(bpm)
	case rowBeats:
		ts := p.TimeSignature
		ts.Num += delta
		if ts.Num < 1 || ts.Num > 16 {
			return nil
		}
		return p.SetTimeSignature(ts)
	case rowBeatUnit:
		ts := p.TimeSignature
		switch {
		case delta > 0 && ts.Den < 16:
			ts.Den *= 2
		case delta < 0 && ts.Den > 1:
			ts.Den /= 2
		default:
			return nil
		}
		return p.SetTimeSignature(ts)
	case rowChannel:
		t := s.track()
		if t == nil {
			return nil
		}
		ms, ok := t.Settings.(*MIDISettings)
		if !ok {
			return nil
		}
		ch := int(ms.Channel) + delta
		if ch < 0 || ch > 15 {
			return nil
		}
		return p.SetChannel(t.ID, uint8(ch))
	case rowInstrument:
		t := s.track()
		if t == nil {
			return nil
		}
		ms, ok := t.Settings.(*MIDISettings)
		if !ok {
			return nil
		}
		prog, _ := ParseProgram(ms.Instrument)
		next := int(prog) + delta
		if next < 0 || next > 127 {
			return nil
		}
		return p.SetInstrument(t.ID, ProgramInstrument(uint8(next)))
	case rowKit:
		t := s.track()
		if t == nil {
			return nil
		}
		ds, ok := t.Settings.(*DrumSettings)
		if !ok {
			return nil
		}
		names := KitNames()
		i := indexOf(names, ds.Kit)
		next := names[(i+delta+len(names))%len(names)]
		return p.Do(&setDrumKit{id: t.ID, before: ds.Kit, after: next})
	case rowOutput:
		if len(s.outputs) == 0 {
			return nil
		}
		i := indexOf(s.outputs, s.Output)
		s.Output = s.outputs[(i+delta+len(s.outputs))%len(s.outputs)]
		if s.OnOutput != nil {
			s.OnOutput(s.Output)
		}
	}
	return nil
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return 0
}

func (s *SettingsEditor) HandleKey(key string) error {
	switch key {
	case "j", "down":
		if s.cursor < numSettingsRows-1 {
			s.cursor++
		}
	case "k", "up":
		if s.cursor > 0 {
			s.cursor--
		}
	case "h", "left":
		return s.Adjust(s.cursor, -1)
	case "l", "right":
		return s.Adjust(s.cursor, 1)
	case "H":
		return s.Adjust(s.cursor, -10)
	case "L":
		return s.Adjust(s.cursor, 10)
	}
	return nil
}

func (s *SettingsEditor) value(row int) string {
	p := s.project
	t := s.track()
	switch row {
	case rowTempo:
		return fmt.Sprintf("%.0f bpm", p.BPM)
	case rowBeats:
		return fmt.Sprintf("%d", p.TimeSignature.Num)
	case rowBeatUnit:
		return fmt.Sprintf("%d", p.TimeSignature.Den)
	case rowChannel:
		if t != nil {
			if ms, ok := t.Settings.(*MIDISettings); ok {
				return fmt.Sprintf("%d", ms.Channel+1)
			}
		}
	case rowInstrument:
		if t != nil {
			if ms, ok := t.Settings.(*MIDISettings); ok {
				return ms.Instrument
			}
		}
	case rowKit:
		if t != nil {
			if ds, ok := t.Settings.(*DrumSettings); ok {
				return GetKit(ds.Kit).Name
			}
		}
	case rowOutput:
		if s.Output == "" {
			return "(default)"
		}
		return s.Output
	}
	return "-"
}

func (s *SettingsEditor) View() string {
	var out strings.Builder
	track := "(no track)"
	if t := s.track(); t != nil {
		track = t.Name
	}
	out.WriteString(fmt.Sprintf("SETTINGS  %s  Track: %s\n\n", s.project.Name, track))

	for row := 0; row < numSettingsRows; row++ {
		prefix := "  "
		if row == s.cursor {
			prefix = "> "
		}
		out.WriteString(fmt.Sprintf("%s%-14s %s\n", prefix, settingsLabels[row], s.value(row)))
	}

	out.WriteString("\n")
	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "j / k", Desc: "select setting"},
			{Key: "h / l", Desc: "change value"},
			{Key: "H / L", Desc: "change value by 10"},
		}},
	}))
	return out.String()
}
