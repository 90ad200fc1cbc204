package supabase

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshMargin is how close to expiry a session is refreshed before use.
const refreshMargin = 10 * time.Second

// User is the GoTrue user object.
type User struct {
	ID               string                 `json:"id"`
	Aud              string                 `json:"aud,omitempty"`
	Role             string                 `json:"role,omitempty"`
	Email            string                 `json:"email"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at,omitempty"`
	UserMetadata     map[string]interface{} `json:"user_metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Session is an authenticated GoTrue session.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// SessionStore persists the current session across process restarts.
// Load returns (nil, nil) when nothing is stored.
type SessionStore interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context) error
}

// Expiry returns the absolute expiry time, or the zero time when unknown.
func (s *Session) Expiry() time.Time {
	if s == nil || s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

// ExpiresWithin reports whether the session expires before now+d. A session
// with an unknown expiry never does.
func (s *Session) ExpiresWithin(now time.Time, d time.Duration) bool {
	exp := s.Expiry()
	if exp.IsZero() {
		return false
	}
	return !now.Add(d).Before(exp)
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return &out
}

// normalize fills ExpiresAt from expires_in, falling back to the exp claim
// of the access token.
func (s *Session) normalize(now time.Time) {
	if s.ExpiresAt != 0 {
		return
	}
	if s.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
		return
	}
	if exp, ok := tokenExpiry(s.AccessToken); ok {
		s.ExpiresAt = exp.Unix()
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// token came straight from GoTrue over TLS.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
