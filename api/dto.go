package api

import "time"

// Wire types of the project backend. Field names follow the server's
// snake_case schema.

type UserDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type NoteDTO struct {
	ID       string `json:"id"`
	Row      int    `json:"row"`
	Column   int64  `json:"column"`
	Length   int64  `json:"length"`
	Velocity uint8  `json:"velocity,omitempty"`
}

// MixDTO is shared by every track resource
type MixDTO struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Volume float64 `json:"volume"`
	Pan    float64 `json:"pan"`
	Mute   bool    `json:"mute"`
	Solo   bool    `json:"solo"`
}

// TrackDTO is an audio or MIDI track
type TrackDTO struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Order     int    `json:"order"`
	Name      string `json:"name"`
	Type      string `json:"type"` // audio | midi
	MixDTO

	AudioFile  string    `json:"audio_file,omitempty"`
	Duration   float64   `json:"duration,omitempty"`
	Instrument string    `json:"instrument,omitempty"`
	Channel    uint8     `json:"channel,omitempty"`
	Notes      []NoteDTO `json:"notes,omitempty"`
}

type DrumTrackDTO struct {
	ID              string   `json:"id"`
	ProjectID       string   `json:"project_id"`
	Order           int      `json:"order"`
	Name            string   `json:"name"`
	Steps           int      `json:"steps"`
	Kit             string   `json:"kit"`
	SamplerTrackIDs []string `json:"sampler_track_ids"`
	MixDTO
}

type SamplerTrackDTO struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Order     int    `json:"order"`
	Name      string `json:"name"`
	MixDTO

	Sample   string    `json:"sample"`
	BaseNote int       `json:"base_note"`
	Attack   float64   `json:"attack"`
	Release  float64   `json:"release"`
	Notes    []NoteDTO `json:"notes"`
}

type ProjectDTO struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id,omitempty"`
	Name          string            `json:"name"`
	BPM           float64           `json:"bpm"`
	TimeSignature []int             `json:"time_signature"` // [numerator, denominator]
	Tracks        []TrackDTO        `json:"tracks"`
	DrumTracks    []DrumTrackDTO    `json:"drum_tracks"`
	SamplerTracks []SamplerTrackDTO `json:"sampler_tracks"`
	UpdatedAt     time.Time         `json:"updated_at,omitempty"`
}

// ProjectSummary is one entry of the project list
type ProjectSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
