package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// ErrNoSession is returned by operations that need a signed-in user.
var ErrNoSession = errors.New("auth session missing")

// AuthResponse is the result of SignUp. Session is nil when the project
// requires the address to be confirmed before the first sign-in.
type AuthResponse struct {
	User    *User
	Session *Session
}

type credentials struct {
	Email    string                 `json:"email"`
	Password string                 `json:"password"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// SignUp registers a new account. data is stored as user metadata. Any
// current session is dropped first, so without auto-confirm the client ends
// up signed out.
func (c *Client) SignUp(ctx context.Context, email, password string, data map[string]interface{}) (*AuthResponse, error) {
	if c.currentSession(ctx) != nil {
		c.clearSession(ctx)
		c.listeners.emit(EventSignedOut, nil)
	}

	req, err := c.newRequest(ctx, http.MethodPost, authPath+"/signup", nil,
		credentials{Email: email, Password: password, Data: data}, "")
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}

	// GoTrue answers with a session when auto-confirm is on, and with the
	// bare user object otherwise.
	var probe struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}

	if probe.AccessToken == "" {
		var user User
		if err := json.Unmarshal(raw, &user); err != nil {
			return nil, fmt.Errorf("decode signup user: %w", err)
		}
		if user.ID == "" {
			return &AuthResponse{}, nil
		}
		return &AuthResponse{User: &user}, nil
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode signup session: %w", err)
	}
	session.normalize(c.now())
	c.storeSession(ctx, &session)
	c.listeners.emit(EventSignedIn, &session)
	return &AuthResponse{User: session.User, Session: session.Clone()}, nil
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	query := url.Values{"grant_type": {"password"}}
	req, err := c.newRequest(ctx, http.MethodPost, authPath+"/token", query,
		credentials{Email: email, Password: password}, "")
	if err != nil {
		return nil, err
	}

	var session Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, errors.New("sign in: backend returned no session")
	}
	session.normalize(c.now())
	c.storeSession(ctx, &session)
	c.listeners.emit(EventSignedIn, &session)
	return session.Clone(), nil
}

// GetSession returns the current session, restoring a persisted one on
// first use and refreshing tokens that are about to expire. It returns
// (nil, nil) when nobody is signed in.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	s := c.currentSession(ctx)
	if s == nil {
		return nil, nil
	}
	if s.RefreshToken == "" || !s.ExpiresWithin(c.now(), refreshMargin) {
		return s, nil
	}
	return c.refresh(ctx, s.RefreshToken)
}

// RefreshSession forces a token refresh of the current session.
func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	s := c.currentSession(ctx)
	if s == nil || s.RefreshToken == "" {
		return nil, ErrNoSession
	}
	return c.refresh(ctx, s.RefreshToken)
}

// GetUser fetches the signed-in user from GoTrue. It returns (nil, nil)
// when there is no session.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	s, err := c.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, authPath+"/user", nil, nil, s.AccessToken)
	if err != nil {
		return nil, err
	}
	var user User
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut revokes the session on the server and forgets it locally.
// A session the server no longer knows is still removed locally.
func (c *Client) SignOut(ctx context.Context) error {
	s := c.currentSession(ctx)
	if s == nil {
		return nil
	}

	req, err := c.newRequest(ctx, http.MethodPost, authPath+"/logout", nil, nil, s.AccessToken)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil &&
		!IsStatus(err, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound) {
		return err
	}

	c.clearSession(ctx)
	c.listeners.emit(EventSignedOut, nil)
	return nil
}

// ResetPasswordForEmail sends a password-reset email. redirectTo is where
// the link in the email lands.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	query := url.Values{}
	if redirectTo != "" {
		query.Set("redirect_to", redirectTo)
	}
	req, err := c.newRequest(ctx, http.MethodPost, authPath+"/recover", query,
		map[string]string{"email": email}, "")
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	c.refreshMu.Lock()

	c.mu.Lock()
	current := c.session.Clone()
	c.mu.Unlock()

	if current == nil {
		c.refreshMu.Unlock()
		return nil, nil
	}
	// Someone else refreshed while we waited for the lock.
	if current.RefreshToken != refreshToken && !current.ExpiresWithin(c.now(), refreshMargin) {
		c.refreshMu.Unlock()
		return current, nil
	}

	query := url.Values{"grant_type": {"refresh_token"}}
	req, err := c.newRequest(ctx, http.MethodPost, authPath+"/token", query,
		map[string]string{"refresh_token": current.RefreshToken}, "")
	if err != nil {
		c.refreshMu.Unlock()
		return nil, err
	}

	var next Session
	if err := c.do(req, &next); err != nil {
		revoked := IsStatus(err, http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden)
		if revoked {
			c.clearSession(ctx)
		}
		c.refreshMu.Unlock()
		if revoked {
			c.log.Warn("refresh token rejected, session cleared", zap.Error(err))
			c.listeners.emit(EventSignedOut, nil)
		}
		return nil, err
	}

	next.normalize(c.now())
	if next.User == nil {
		next.User = current.User
	}
	c.storeSession(ctx, &next)
	c.refreshMu.Unlock()

	c.listeners.emit(EventTokenRefreshed, &next)
	return next.Clone(), nil
}

// currentSession returns a copy of the held session, loading the persisted
// one the first time it is asked for.
func (c *Client) currentSession(ctx context.Context) *Session {
	c.restoreMu.Lock()
	c.mu.Lock()
	restored := c.restored
	c.restored = true
	if restored {
		s := c.session.Clone()
		c.mu.Unlock()
		c.restoreMu.Unlock()
		return s
	}
	c.mu.Unlock()

	var loaded *Session
	if c.store != nil {
		s, err := c.store.Load(ctx)
		if err != nil {
			c.log.Warn("could not restore persisted session", zap.Error(err))
		} else {
			loaded = s
		}
	}

	c.mu.Lock()
	if c.session == nil && loaded != nil {
		c.session = loaded.Clone()
	}
	s := c.session.Clone()
	c.mu.Unlock()
	c.restoreMu.Unlock()

	c.listeners.emit(EventInitialSession, s)
	return s
}

func (c *Client) storeSession(ctx context.Context, s *Session) {
	c.mu.Lock()
	c.session = s.Clone()
	c.restored = true
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, s); err != nil {
		c.log.Warn("could not persist session", zap.Error(err))
	}
}

func (c *Client) clearSession(ctx context.Context) {
	c.mu.Lock()
	c.session = nil
	c.restored = true
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx); err != nil {
		c.log.Warn("could not delete persisted session", zap.Error(err))
	}
}

// accessToken returns the bearer for PostgREST calls: the user's token when
// signed in, otherwise empty (the anon key is used).
func (c *Client) accessToken(ctx context.Context) string {
	s, err := c.GetSession(ctx)
	if err != nil {
		c.log.Debug("no usable session for table request", zap.Error(err))
		return ""
	}
	if s == nil {
		return ""
	}
	return s.AccessToken
}
