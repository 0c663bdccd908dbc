package remote

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned when an operation needs a token but the session
// is anonymous.
var ErrNoSession = errors.New("no session token")

// Session is the credential attached to backend calls. The zero value is an
// anonymous session. A Session is a value: changing credentials means
// building a new one, never mutating a shared one.
type Session struct {
	Token     string
	TokenType string
}

// NewSession creates a bearer-token session.
func NewSession(token string) Session {
	return Session{Token: token, TokenType: "bearer"}
}

// SessionFromAuth creates a session from a backend token grant.
func SessionFromAuth(a AuthResponse) Session {
	tt := a.TokenType
	if tt == "" {
		tt = "bearer"
	}
	return Session{Token: a.AccessToken, TokenType: tt}
}

// Anonymous reports whether the session carries no token.
func (s Session) Anonymous() bool { return s.Token == "" }

// ExpiresAt returns the token's exp claim. ok is false for anonymous
// sessions, opaque tokens, and JWTs without exp. The signature is not
// checked; only the backend can do that.
func (s Session) ExpiresAt() (t time.Time, ok bool) {
	if s.Anonymous() {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token's exp claim is at or before now.
// Tokens without a readable expiry never expire.
func (s Session) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && !now.Before(exp)
}

// authorization renders the Authorization header value. The backend grants
// lowercase "bearer", which is sent in its canonical form.
func (s Session) authorization() string {
	scheme := s.TokenType
	if scheme == "" || strings.EqualFold(scheme, "bearer") {
		scheme = "Bearer"
	}
	return scheme + " " + s.Token
}
