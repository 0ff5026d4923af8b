package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-arrange/auth"
	"go-arrange/sequencer"
)

// fakeServer keeps projects in memory and requires "Bearer good"
type fakeServer struct {
	mu       sync.Mutex
	projects map[string]ProjectDTO
	auths    []string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auths = append(f.auths, r.Header.Get("Authorization"))

	writeJSON := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	switch {
	case r.URL.Path == "/auth/signin":
		var c auth.Credentials
		json.NewDecoder(r.Body).Decode(&c)
		if c.Password != "pw" {
			writeJSON(http.StatusUnauthorized, errorResponse{Message: "wrong password"})
			return
		}
		writeJSON(http.StatusOK, tokenResponse{Token: "good"})
		return
	case r.URL.Path == "/auth/signout":
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Header.Get("Authorization") != "Bearer good" {
		writeJSON(http.StatusUnauthorized, errorResponse{Error: "missing token"})
		return
	}

	switch {
	case r.URL.Path == "/users/me":
		writeJSON(http.StatusOK, UserDTO{ID: "u1", Email: "a@b.c", Name: "Ann"})
	case r.URL.Path == "/projects" && r.Method == http.MethodGet:
		var out []ProjectSummary
		for _, p := range f.projects {
			out = append(out, ProjectSummary{ID: p.ID, Name: p.Name})
		}
		writeJSON(http.StatusOK, out)
	case r.URL.Path == "/projects" && r.Method == http.MethodPost:
		var p ProjectDTO
		json.NewDecoder(r.Body).Decode(&p)
		f.projects[p.ID] = p
		writeJSON(http.StatusCreated, p)
	case strings.HasPrefix(r.URL.Path, "/projects/"):
		id := strings.TrimPrefix(r.URL.Path, "/projects/")
		p, ok := f.projects[id]
		switch r.Method {
		case http.MethodGet:
			if !ok {
				writeJSON(http.StatusNotFound, errorResponse{Message: "no such project"})
				return
			}
			writeJSON(http.StatusOK, p)
		case http.MethodPut:
			if !ok {
				writeJSON(http.StatusNotFound, errorResponse{Message: "no such project"})
				return
			}
			json.NewDecoder(r.Body).Decode(&p)
			f.projects[id] = p
			writeJSON(http.StatusOK, p)
		case http.MethodDelete:
			delete(f.projects, id)
			w.WriteHeader(http.StatusNoContent)
		}
	case r.URL.Path == "/tracks/t1" && r.Method == http.MethodDelete:
		http.Error(w, "boom", http.StatusInternalServerError)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, token string) (*Client, *fakeServer) {
	f := &fakeServer{projects: map[string]ProjectDTO{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second, func() string { return token }), f
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, "")

	tok, err := c.SignIn(ctx, auth.Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "good", tok)

	_, err = c.SignIn(ctx, auth.Credentials{Email: "a@b.c", Password: "nope"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, c.SignOut(ctx))
}

func TestUnauthorized(t *testing.T) {
	c, f := newTestClient(t, "")
	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "missing token", apiErr.Message)
	assert.Equal(t, []string{""}, f.auths)
}

func TestBearerAndProfile(t *testing.T) {
	c, f := newTestClient(t, "good")
	p, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &auth.Profile{ID: "u1", Email: "a@b.c", Name: "Ann"}, p)
	assert.Equal(t, []string{"Bearer good"}, f.auths)
}

func TestPlainTextError(t *testing.T) {
	c, _ := newTestClient(t, "good")
	err := c.DeleteTrack(context.Background(), "t1")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Message)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestPushPull(t *testing.T) {
	ctx := context.Background()
	c, f := newTestClient(t, "good")

	p := sequencer.NewProject("song")
	lead := sequencer.NewTrack("lead", &sequencer.MIDISettings{Instrument: "gm:0"})
	require.NoError(t, p.AddTrack(lead))
	require.NoError(t, p.AddNote(lead.ID, sequencer.Note{ID: "n1", Row: 60, Column: 0, Length: 120}))

	require.NoError(t, c.Push(ctx, p), "creates on 404")
	require.Len(t, f.projects, 1)

	require.NoError(t, p.RenameTrack(lead.ID, "melody"))
	require.NoError(t, c.Push(ctx, p), "updates")
	assert.Equal(t, "melody", f.projects[p.ID].Tracks[0].Name)

	list, err := c.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ProjectSummary{{ID: p.ID, Name: "song"}}, list)

	got, err := c.Pull(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Tracks, got.Tracks)

	require.NoError(t, c.DeleteProject(ctx, p.ID))
	_, err = c.Pull(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
