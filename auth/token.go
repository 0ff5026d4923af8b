// Package auth keeps the signed-in user's bearer token and session.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrExpired            = errors.New("auth: token expired")
	ErrMalformedToken     = errors.New("auth: malformed token")
	ErrSignedOut          = errors.New("auth: not signed in")
)

// Token is a bearer token and the claims read from it
type Token struct {
	Raw     string
	Subject string
	Expiry  time.Time // zero when the token carries no exp
}

// Decode reads subject and expiry from a JWT payload. The signature is
// NOT verified: only the server can do that, and the client uses the
// claims for display and expiry checks alone.
func Decode(raw string) (Token, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	t := Token{Raw: raw, Subject: sub}
	if exp != nil {
		t.Expiry = exp.Time
	}
	return t, nil
}

// Expired reports whether exp is at or before now
func (t Token) Expired(now time.Time) bool {
	return !t.Expiry.IsZero() && !now.Before(t.Expiry)
}
