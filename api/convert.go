package api

import (
	"fmt"
	"sort"

	"go-arrange/sequencer"
	"go-arrange/timeline"
)

func notesToDTO(ns sequencer.Notes) []NoteDTO {
	out := make([]NoteDTO, len(ns))
	for i, n := range ns {
		out[i] = NoteDTO{ID: n.ID, Row: n.Row, Column: n.Column, Length: n.Length, Velocity: n.Velocity}
	}
	return out
}

func notesFromDTO(ns []NoteDTO) sequencer.Notes {
	if len(ns) == 0 {
		return nil
	}
	out := make(sequencer.Notes, len(ns))
	for i, n := range ns {
		out[i] = sequencer.Note{ID: n.ID, Row: n.Row, Column: n.Column, Length: n.Length, Velocity: n.Velocity}
	}
	out.Sort()
	return out
}

func mixToDTO(t *sequencer.Track) MixDTO {
	return MixDTO{
		X: t.Position.X, Y: t.Position.Y,
		Volume: t.Mix.Volume, Pan: t.Mix.Pan, Mute: t.Mix.Mute, Solo: t.Mix.Solo,
	}
}

func (m MixDTO) apply(t *sequencer.Track) {
	t.Position = timeline.Position{X: m.X, Y: m.Y}
	t.Mix = sequencer.Mix{Volume: m.Volume, Pan: m.Pan, Mute: m.Mute, Solo: m.Solo}
}

// ProjectToDTO splits a document into the backend's track resources.
// Order keeps the track list order across resource kinds.
func ProjectToDTO(p *sequencer.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:            p.ID,
		Name:          p.Name,
		BPM:           p.BPM,
		TimeSignature: []int{p.TimeSignature.Num, p.TimeSignature.Den},
		Tracks:        []TrackDTO{},
		DrumTracks:    []DrumTrackDTO{},
		SamplerTracks: []SamplerTrackDTO{},
	}
	for i, t := range p.Tracks {
		switch s := t.Settings.(type) {
		case *sequencer.AudioSettings:
			dto.Tracks = append(dto.Tracks, TrackDTO{
				ID: t.ID, ProjectID: p.ID, Order: i, Name: t.Name, Type: string(sequencer.KindAudio),
				MixDTO: mixToDTO(t), AudioFile: s.File, Duration: s.Duration,
			})
		case *sequencer.MIDISettings:
			dto.Tracks = append(dto.Tracks, TrackDTO{
				ID: t.ID, ProjectID: p.ID, Order: i, Name: t.Name, Type: string(sequencer.KindMIDI),
				MixDTO: mixToDTO(t), Instrument: s.Instrument, Channel: s.Channel, Notes: notesToDTO(s.Notes),
			})
		case *sequencer.SamplerSettings:
			dto.SamplerTracks = append(dto.SamplerTracks, SamplerTrackDTO{
				ID: t.ID, ProjectID: p.ID, Order: i, Name: t.Name, MixDTO: mixToDTO(t),
				Sample: s.Sample, BaseNote: s.BaseNote, Attack: s.Attack, Release: s.Release,
				Notes: notesToDTO(s.Notes),
			})
		case *sequencer.DrumSettings:
			dto.DrumTracks = append(dto.DrumTracks, DrumTrackDTO{
				ID: t.ID, ProjectID: p.ID, Order: i, Name: t.Name, Steps: s.Steps, Kit: s.Kit,
				SamplerTrackIDs: append([]string{}, s.Rows...), MixDTO: mixToDTO(t),
			})
		}
	}
	return dto
}

// ProjectFromDTO rebuilds a document. The result has an empty history.
func ProjectFromDTO(dto ProjectDTO) (*sequencer.Project, error) {
	if len(dto.TimeSignature) != 2 {
		return nil, fmt.Errorf("project %s: time signature must have 2 values, got %d", dto.ID, len(dto.TimeSignature))
	}
	p := sequencer.NewProject(dto.Name)
	p.ID = dto.ID
	p.BPM = dto.BPM
	p.TimeSignature = timeline.TimeSignature{Num: dto.TimeSignature[0], Den: dto.TimeSignature[1]}

	type ordered struct {
		order int
		track *sequencer.Track
	}
	var all []ordered
	add := func(order int, id, name string, mix MixDTO, s sequencer.Settings) {
		t := &sequencer.Track{ID: id, Name: name, Settings: s}
		mix.apply(t)
		all = append(all, ordered{order, t})
	}

	for _, d := range dto.Tracks {
		switch sequencer.TrackKind(d.Type) {
		case sequencer.KindAudio:
			add(d.Order, d.ID, d.Name, d.MixDTO, &sequencer.AudioSettings{File: d.AudioFile, Duration: d.Duration})
		case sequencer.KindMIDI:
			add(d.Order, d.ID, d.Name, d.MixDTO, &sequencer.MIDISettings{
				Instrument: d.Instrument, Channel: d.Channel, Notes: notesFromDTO(d.Notes),
			})
		default:
			return nil, fmt.Errorf("track %s: unknown type %q", d.ID, d.Type)
		}
	}
	for _, d := range dto.SamplerTracks {
		add(d.Order, d.ID, d.Name, d.MixDTO, &sequencer.SamplerSettings{
			Sample: d.Sample, BaseNote: d.BaseNote, Attack: d.Attack, Release: d.Release,
			Notes: notesFromDTO(d.Notes),
		})
	}
	for _, d := range dto.DrumTracks {
		add(d.Order, d.ID, d.Name, d.MixDTO, &sequencer.DrumSettings{
			Rows: append([]string(nil), d.SamplerTrackIDs...), Steps: d.Steps, Kit: d.Kit,
		})
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].order < all[j].order })
	for _, o := range all {
		p.Tracks = append(p.Tracks, o.track)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("project %s: %w", dto.ID, err)
	}
	return p, nil
}
