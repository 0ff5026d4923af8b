package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func makeToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return raw
}

func TestDecode(t *testing.T) {
	raw := makeToken(t, "user-1", t0.Add(time.Hour))
	tok, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", tok.Subject)
	assert.True(t, tok.Expiry.Equal(t0.Add(time.Hour)))
	assert.False(t, tok.Expired(t0))
	assert.True(t, tok.Expired(t0.Add(time.Hour)))

	noExp, err := Decode(makeToken(t, "user-2", time.Time{}))
	require.NoError(t, err)
	assert.False(t, noExp.Expired(t0.Add(100*365*24*time.Hour)))
}

func TestDecodeIgnoresSignature(t *testing.T) {
	raw := makeToken(t, "user-1", t0.Add(time.Hour))
	forged := raw[:len(raw)-4] + "AAAA"
	tok, err := Decode(forged)
	require.NoError(t, err)
	assert.Equal(t, "user-1", tok.Subject)
}

func TestDecodeMalformed(t *testing.T) {
	for _, raw := range []string{"", "abc", "a.b.c"} {
		_, err := Decode(raw)
		assert.ErrorIs(t, err, ErrMalformedToken, raw)
	}
}

func TestStore(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nested", "token"))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Save("abc"))
	info, err := os.Stat(s.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
}

type fakeBackend struct {
	token      string
	signInErr  error
	signOutErr error
	profile    *Profile
	profileErr error

	profileCalls int
	signOuts     int
	got          Credentials
}

func (f *fakeBackend) SignUp(_ context.Context, c Credentials) (string, error) {
	f.got = c
	return f.token, nil
}

func (f *fakeBackend) SignIn(_ context.Context, c Credentials) (string, error) {
	f.got = c
	return f.token, f.signInErr
}

func (f *fakeBackend) SignOut(context.Context) error {
	f.signOuts++
	return f.signOutErr
}

func (f *fakeBackend) Profile(context.Context) (*Profile, error) {
	f.profileCalls++
	return f.profile, f.profileErr
}

func newSession(t *testing.T, b Backend) *Session {
	s := NewSession(b, NewStore(filepath.Join(t.TempDir(), "token")))
	s.now = func() time.Time { return t0 }
	return s
}

func TestSignInAndProfile(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{token: makeToken(t, "u1", t0.Add(time.Hour)), profile: &Profile{ID: "u1", Email: "a@b.c"}}
	s := newSession(t, b)

	assert.False(t, s.SignedIn())
	assert.Nil(t, s.Profile(ctx))

	require.NoError(t, s.SignIn(ctx, Credentials{Email: "a@b.c", Password: "pw"}))
	assert.True(t, s.SignedIn())
	assert.Equal(t, "u1", s.Subject())
	assert.Equal(t, b.token, s.Token())

	assert.Equal(t, "a@b.c", s.Profile(ctx).Email)
	s.Profile(ctx)
	assert.Equal(t, 1, b.profileCalls, "profile is cached")

	restored := NewSession(b, s.store)
	restored.now = s.now
	require.NoError(t, restored.Restore())
	assert.Equal(t, "u1", restored.Subject())
}

func TestSignInErrors(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{signInErr: ErrInvalidCredentials}
	s := newSession(t, b)

	assert.ErrorIs(t, s.SignIn(ctx, Credentials{Email: "", Password: "x"}), ErrInvalidCredentials)
	assert.ErrorIs(t, s.SignIn(ctx, Credentials{Email: "a@b.c", Password: "bad"}), ErrInvalidCredentials)
	assert.False(t, s.SignedIn())

	b.signInErr = nil
	b.token = makeToken(t, "u1", t0.Add(-time.Minute))
	assert.ErrorIs(t, s.SignIn(ctx, Credentials{Email: "a@b.c", Password: "pw"}), ErrExpired)
	assert.False(t, s.SignedIn())
}

func TestSignUp(t *testing.T) {
	b := &fakeBackend{token: makeToken(t, "new", time.Time{})}
	s := newSession(t, b)
	require.NoError(t, s.SignUp(context.Background(), Credentials{Email: "n@b.c", Password: "pw", Name: "N"}))
	assert.Equal(t, "N", b.got.Name)
	assert.Equal(t, "new", s.Subject())
}

func TestProfileFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{token: makeToken(t, "u1", t0.Add(time.Hour)), profileErr: errors.New("503")}
	s := newSession(t, b)
	require.NoError(t, s.SignIn(ctx, Credentials{Email: "a@b.c", Password: "pw"}))
	assert.Nil(t, s.Profile(ctx))
	assert.True(t, s.SignedIn())
}

func TestSignOutClearsEvenOnServerError(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{token: makeToken(t, "u1", t0.Add(time.Hour)), signOutErr: errors.New("offline")}
	s := newSession(t, b)
	require.NoError(t, s.SignIn(ctx, Credentials{Email: "a@b.c", Password: "pw"}))

	assert.EqualError(t, s.SignOut(ctx), "offline")
	assert.False(t, s.SignedIn())
	raw, err := s.store.Load()
	require.NoError(t, err)
	assert.Empty(t, raw)

	require.NoError(t, s.SignOut(ctx))
	assert.Equal(t, 1, b.signOuts)
}

func TestSignOutForgetsExpiredToken(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{token: makeToken(t, "u1", t0.Add(time.Minute))}
	s := newSession(t, b)
	require.NoError(t, s.SignIn(ctx, Credentials{Email: "a@b.c", Password: "pw"}))

	s.now = func() time.Time { return t0.Add(time.Hour) }
	require.NoError(t, s.SignOut(ctx))
	assert.Equal(t, 0, b.signOuts, "no server call for a dead token")
	assert.Empty(t, s.Subject())
	raw, err := s.store.Load()
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestRestoreDropsExpired(t *testing.T) {
	s := newSession(t, &fakeBackend{})
	require.NoError(t, s.store.Save(makeToken(t, "u1", t0.Add(-time.Second))))

	assert.ErrorIs(t, s.Restore(), ErrExpired)
	assert.False(t, s.SignedIn())
	raw, err := s.store.Load()
	require.NoError(t, err)
	assert.Empty(t, raw)

	require.NoError(t, s.Restore(), "nothing stored")
}
