package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go-arrange/debug"
)

// Credentials are what sign-up and sign-in forms collect
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (c Credentials) validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return fmt.Errorf("%w: email and password are required", ErrInvalidCredentials)
	}
	return nil
}

// Profile is the signed-in user
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Backend is the server side of authentication
type Backend interface {
	SignUp(ctx context.Context, c Credentials) (token string, err error)
	SignIn(ctx context.Context, c Credentials) (token string, err error)
	SignOut(ctx context.Context) error
	Profile(ctx context.Context) (*Profile, error)
}

// Session tracks who is signed in. Its Token method is the token source
// for authenticated requests.
type Session struct {
	mu      sync.Mutex
	backend Backend
	store   *Store
	token   *Token
	profile *Profile
	now     func() time.Time
}

func NewSession(backend Backend, store *Store) *Session {
	return &Session{backend: backend, store: store, now: time.Now}
}

// SetBackend attaches the server once it exists; the backend usually
// needs the session's Token to be built.
func (s *Session) SetBackend(b Backend) {
	s.mu.Lock()
	s.backend = b
	s.mu.Unlock()
}

// Restore loads a stored token. An expired or unreadable token is
// dropped and reported.
func (s *Session) Restore() error {
	raw, err := s.store.Load()
	if err != nil || raw == "" {
		return err
	}
	tok, err := Decode(raw)
	if err == nil && tok.Expired(s.now()) {
		err = ErrExpired
	}
	if err != nil {
		if cerr := s.store.Clear(); cerr != nil {
			debug.Warn("auth", cerr)
		}
		return err
	}
	s.mu.Lock()
	s.token = &tok
	s.mu.Unlock()
	return nil
}

// SignUp creates an account and signs in with it
func (s *Session) SignUp(ctx context.Context, c Credentials) error {
	if err := c.validate(); err != nil {
		return err
	}
	raw, err := s.backend.SignUp(ctx, c)
	if err != nil {
		return err
	}
	return s.accept(raw)
}

// SignIn exchanges credentials for a token
func (s *Session) SignIn(ctx context.Context, c Credentials) error {
	if err := c.validate(); err != nil {
		return err
	}
	raw, err := s.backend.SignIn(ctx, c)
	if err != nil {
		return err
	}
	return s.accept(raw)
}

func (s *Session) accept(raw string) error {
	tok, err := Decode(raw)
	if err != nil {
		return err
	}
	if tok.Expired(s.now()) {
		return ErrExpired
	}
	if err := s.store.Save(raw); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = &tok
	s.profile = nil
	s.mu.Unlock()
	debug.Log("auth", "signed in sub=%s", tok.Subject)
	return nil
}

// SignOut tells the server and forgets the token. The local token is
// cleared even when the server call fails; that failure is returned.
// An expired token is forgotten without a server call.
func (s *Session) SignOut(ctx context.Context) error {
	var serverErr error
	if s.SignedIn() {
		serverErr = s.backend.SignOut(ctx)
	}
	s.mu.Lock()
	s.token = nil
	s.profile = nil
	s.mu.Unlock()
	if err := s.store.Clear(); err != nil {
		return err
	}
	return serverErr
}

// Token returns the raw bearer token, or "" when signed out or expired
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil || s.token.Expired(s.now()) {
		return ""
	}
	return s.token.Raw
}

// SignedIn reports whether a valid token is held
func (s *Session) SignedIn() bool { return s.Token() != "" }

// Subject is the user id from the token
func (s *Session) Subject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return ""
	}
	return s.token.Subject
}

// Profile fetches the user's profile once per sign-in. Fetch failures
// are logged and give a nil profile; the session carries on.
func (s *Session) Profile(ctx context.Context) *Profile {
	if !s.SignedIn() {
		return nil
	}
	s.mu.Lock()
	if s.profile != nil {
		p := s.profile
		s.mu.Unlock()
		return p
	}
	s.mu.Unlock()

	p, err := s.backend.Profile(ctx)
	if err != nil {
		debug.Warn("auth", fmt.Errorf("profile: %w", err))
		return nil
	}
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	return p
}
