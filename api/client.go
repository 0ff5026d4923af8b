// Package api is a thin client for the project backend: accounts,
// projects and their track resources.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-arrange/auth"
	"go-arrange/debug"
	"go-arrange/sequencer"
)

var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrNotFound     = errors.New("api: not found")
)

// Error is a non-2xx response
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Unwrap lets errors.Is match the statuses callers act on
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Client talks to the backend. Token supplies the bearer token for each
// request; an empty token sends none.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Token   func() string
}

// New creates a client with a request timeout
func New(baseURL string, timeout time.Duration, token func() string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Token:   token,
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != nil {
		if tok := c.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	debug.Log("api", "%s %s -> %d", method, path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		var e errorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, &e) == nil {
			apiErr.Message = e.Message
			if apiErr.Message == "" {
				apiErr.Message = e.Error
			}
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

func escape(id string) string { return url.PathEscape(id) }

// Accounts. These satisfy auth.Backend.

func (c *Client) SignUp(ctx context.Context, cred auth.Credentials) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", cred, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// SignIn maps a rejected login to auth.ErrInvalidCredentials
func (c *Client) SignIn(ctx context.Context, cred auth.Credentials) (string, error) {
	var out tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/signin", cred, &out)
	if errors.Is(err, ErrUnauthorized) {
		return "", fmt.Errorf("%w: %w", auth.ErrInvalidCredentials, err)
	}
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/signout", nil, nil)
}

func (c *Client) Profile(ctx context.Context) (*auth.Profile, error) {
	u, err := c.Me(ctx)
	if err != nil {
		return nil, err
	}
	return &auth.Profile{ID: u.ID, Email: u.Email, Name: u.Name}, nil
}

// Users

func (c *Client) Me(ctx context.Context) (*UserDTO, error) {
	var u UserDTO
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateMe(ctx context.Context, u UserDTO) (*UserDTO, error) {
	var out UserDTO
	if err := c.do(ctx, http.MethodPut, "/users/me", u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMe(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/users/me", nil, nil)
}

// Projects

func (c *Client) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	var out []ProjectSummary
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*ProjectDTO, error) {
	var out ProjectDTO
	if err := c.do(ctx, http.MethodGet, "/projects/"+escape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProject(ctx context.Context, p ProjectDTO) (*ProjectDTO, error) {
	var out ProjectDTO
	if err := c.do(ctx, http.MethodPost, "/projects", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProject(ctx context.Context, p ProjectDTO) (*ProjectDTO, error) {
	var out ProjectDTO
	if err := c.do(ctx, http.MethodPut, "/projects/"+escape(p.ID), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+escape(id), nil, nil)
}

// Tracks (audio and MIDI)

func (c *Client) CreateTrack(ctx context.Context, projectID string, t TrackDTO) (*TrackDTO, error) {
	var out TrackDTO
	if err := c.do(ctx, http.MethodPost, "/projects/"+escape(projectID)+"/tracks", t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTrack(ctx context.Context, t TrackDTO) (*TrackDTO, error) {
	var out TrackDTO
	if err := c.do(ctx, http.MethodPut, "/tracks/"+escape(t.ID), t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTrack(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tracks/"+escape(id), nil, nil)
}

// Drum tracks

func (c *Client) CreateDrumTrack(ctx context.Context, projectID string, t DrumTrackDTO) (*DrumTrackDTO, error) {
	var out DrumTrackDTO
	if err := c.do(ctx, http.MethodPost, "/projects/"+escape(projectID)+"/drum-tracks", t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateDrumTrack(ctx context.Context, t DrumTrackDTO) (*DrumTrackDTO, error) {
	var out DrumTrackDTO
	if err := c.do(ctx, http.MethodPut, "/drum-tracks/"+escape(t.ID), t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDrumTrack(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/drum-tracks/"+escape(id), nil, nil)
}

// Sampler tracks

func (c *Client) CreateSamplerTrack(ctx context.Context, projectID string, t SamplerTrackDTO) (*SamplerTrackDTO, error) {
	var out SamplerTrackDTO
	if err := c.do(ctx, http.MethodPost, "/projects/"+escape(projectID)+"/sampler-tracks", t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSamplerTrack(ctx context.Context, t SamplerTrackDTO) (*SamplerTrackDTO, error) {
	var out SamplerTrackDTO
	if err := c.do(ctx, http.MethodPut, "/sampler-tracks/"+escape(t.ID), t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSamplerTrack(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sampler-tracks/"+escape(id), nil, nil)
}

// Documents

// Push uploads a whole project, creating it when the server has none
// with that id.
func (c *Client) Push(ctx context.Context, p *sequencer.Project) error {
	return c.PushDTO(ctx, ProjectToDTO(p))
}

// PushDTO is Push for a document already converted, so the conversion
// can happen on the goroutine that owns the document.
func (c *Client) PushDTO(ctx context.Context, dto ProjectDTO) error {
	_, err := c.UpdateProject(ctx, dto)
	if errors.Is(err, ErrNotFound) {
		_, err = c.CreateProject(ctx, dto)
	}
	return err
}

// Pull downloads a project as a document
func (c *Client) Pull(ctx context.Context, id string) (*sequencer.Project, error) {
	dto, err := c.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	return ProjectFromDTO(*dto)
}
