package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tiagocruz3/Brainiacodelab/internal/db"
	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
	"github.com/Tiagocruz3/Brainiacodelab/internal/supabase"
)

type fakeBackend struct {
	mu        sync.Mutex
	signUp    *supabase.AuthResponse
	signIn    *supabase.Session
	user      *supabase.User
	err       error
	redirect  string
	signUpArg map[string]interface{}
	listeners []supabase.AuthChangeFunc
}

func (f *fakeBackend) SignUp(_ context.Context, _, _ string, data map[string]interface{}) (*supabase.AuthResponse, error) {
	f.signUpArg = data
	return f.signUp, f.err
}

func (f *fakeBackend) SignInWithPassword(context.Context, string, string) (*supabase.Session, error) {
	return f.signIn, f.err
}

func (f *fakeBackend) SignOut(context.Context) error { return f.err }

func (f *fakeBackend) GetUser(context.Context) (*supabase.User, error) { return f.user, f.err }

func (f *fakeBackend) GetSession(context.Context) (*supabase.Session, error) { return f.signIn, f.err }

func (f *fakeBackend) ResetPasswordForEmail(_ context.Context, _ string, redirectTo string) error {
	f.redirect = redirectTo
	return f.err
}

func (f *fakeBackend) OnAuthStateChange(fn supabase.AuthChangeFunc) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	idx := len(f.listeners) - 1
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listeners[idx] = nil
	}
}

func (f *fakeBackend) emit(event supabase.AuthChangeEvent, s *supabase.Session) {
	f.mu.Lock()
	fns := append([]supabase.AuthChangeFunc(nil), f.listeners...)
	f.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn(event, s)
		}
	}
}

type fakeProfiles struct {
	profiles map[string]*models.Profile
	err      error
	calls    atomic.Int32
	gate     chan struct{}
	updated  models.ProfileUpdate
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) Update(_ context.Context, _ string, u models.ProfileUpdate) error {
	f.updated = u
	return f.err
}

func strPtr(s string) *string { return &s }

func TestAuthService_NotInitialized(t *testing.T) {
	s := NewAuthService(nil, nil, "", zap.NewNop())
	ctx := context.Background()

	_, err := s.SignUp(ctx, models.SignUpRequest{Email: "a@b.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrClientNotInitialized)
	assert.Equal(t, "Supabase client not initialized", err.Error())

	_, err = s.SignIn(ctx, "a@b.com", "secret1")
	assert.ErrorIs(t, err, ErrClientNotInitialized)
	assert.ErrorIs(t, s.SignOut(ctx), ErrClientNotInitialized)
	_, err = s.GetCurrentUser(ctx)
	assert.ErrorIs(t, err, ErrClientNotInitialized)
	_, err = s.GetSession(ctx)
	assert.ErrorIs(t, err, ErrClientNotInitialized)
	assert.ErrorIs(t, s.UpdateProfile(ctx, "u1", models.ProfileUpdate{Username: strPtr("x")}), ErrClientNotInitialized)
	assert.ErrorIs(t, s.ResetPassword(ctx, "a@b.com"), ErrClientNotInitialized)

	unsubscribe := s.OnAuthStateChange(func(supabase.AuthChangeEvent, *models.User) {})
	assert.NotPanics(t, unsubscribe)
}

func TestAuthService_SignUpMergesProfile(t *testing.T) {
	backend := &fakeBackend{signUp: &supabase.AuthResponse{User: &supabase.User{ID: "u1", Email: "a@b.com"}}}
	profiles := &fakeProfiles{profiles: map[string]*models.Profile{
		"u1": {ID: "u1", Username: strPtr("ada"), FullName: strPtr("Ada Lovelace")},
	}}
	s := NewAuthService(backend, profiles, "", zap.NewNop())

	user, err := s.SignUp(context.Background(), models.SignUpRequest{Email: "a@b.com", Password: "secret1", Username: "ada"})
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: "u1", Email: "a@b.com", Username: "ada", FullName: "Ada Lovelace"}, user)
	assert.Equal(t, map[string]interface{}{"username": "ada"}, backend.signUpArg)
}

func TestAuthService_SignUpWithoutUser(t *testing.T) {
	s := NewAuthService(&fakeBackend{signUp: &supabase.AuthResponse{}}, nil, "", zap.NewNop())
	_, err := s.SignUp(context.Background(), models.SignUpRequest{Email: "a@b.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrSignUpFailed)
	assert.Equal(t, "Failed to create user", err.Error())
}

func TestAuthService_SignInProfileFailureStillSucceeds(t *testing.T) {
	backend := &fakeBackend{signIn: &supabase.Session{AccessToken: "at", User: &supabase.User{ID: "u1", Email: "a@b.com"}}}
	profiles := &fakeProfiles{err: errors.New("network down")}
	s := NewAuthService(backend, profiles, "", zap.NewNop())

	user, err := s.SignIn(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: "u1", Email: "a@b.com"}, user)
}

func TestAuthService_SignInBackendErrorPassesThrough(t *testing.T) {
	backendErr := &supabase.APIError{Status: 400, Code: "invalid_grant", Message: "Invalid login credentials"}
	s := NewAuthService(&fakeBackend{err: backendErr}, nil, "", zap.NewNop())

	_, err := s.SignIn(context.Background(), "a@b.com", "bad")
	assert.Same(t, backendErr, err)
}

func TestAuthService_SignInWithoutSession(t *testing.T) {
	s := NewAuthService(&fakeBackend{}, nil, "", zap.NewNop())
	_, err := s.SignIn(context.Background(), "a@b.com", "secret1")
	assert.ErrorIs(t, err, ErrSignInFailed)
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	backend := &fakeBackend{}
	s := NewAuthService(backend, &fakeProfiles{}, "", zap.NewNop())

	user, err := s.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)

	backend.user = &supabase.User{ID: "u1", Email: "a@b.com"}
	user, err = s.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Empty(t, user.Username)
}

func TestAuthService_UpdateProfileAndReset(t *testing.T) {
	backend := &fakeBackend{}
	profiles := &fakeProfiles{}
	s := NewAuthService(backend, profiles, "http://localhost:5173/auth/callback", zap.NewNop())

	require.NoError(t, s.UpdateProfile(context.Background(), "u1", models.ProfileUpdate{FullName: strPtr("Ada")}))
	assert.Equal(t, "Ada", *profiles.updated.FullName)

	require.NoError(t, s.ResetPassword(context.Background(), "a@b.com"))
	assert.Equal(t, "http://localhost:5173/auth/callback", backend.redirect)
}

func TestAuthService_OnAuthStateChangeResolvesProfileFirst(t *testing.T) {
	backend := &fakeBackend{}
	profiles := &fakeProfiles{profiles: map[string]*models.Profile{"u1": {ID: "u1", Username: strPtr("ada")}}}
	s := NewAuthService(backend, profiles, "", zap.NewNop())

	var got []*models.User
	unsubscribe := s.OnAuthStateChange(func(_ supabase.AuthChangeEvent, u *models.User) {
		got = append(got, u)
	})

	backend.emit(supabase.EventSignedIn, &supabase.Session{User: &supabase.User{ID: "u1", Email: "a@b.com"}})
	backend.emit(supabase.EventSignedOut, nil)
	unsubscribe()
	backend.emit(supabase.EventSignedIn, &supabase.Session{User: &supabase.User{ID: "u1"}})

	require.Len(t, got, 2)
	assert.Equal(t, "ada", got[0].Username)
	assert.Nil(t, got[1])
}

func TestAuthService_ConcurrentProfileLookupsShareOneRequest(t *testing.T) {
	backend := &fakeBackend{user: &supabase.User{ID: "u1", Email: "a@b.com"}}
	profiles := &fakeProfiles{
		profiles: map[string]*models.Profile{"u1": {ID: "u1", Username: strPtr("ada")}},
		gate:     make(chan struct{}),
	}
	s := NewAuthService(backend, profiles, "", zap.NewNop())

	const n = 5
	var wg sync.WaitGroup
	results := make([]*models.User, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.GetCurrentUser(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return profiles.calls.Load() >= 1 }, time.Second, time.Millisecond)
	// Give the other callers time to join the in-flight lookup.
	time.Sleep(20 * time.Millisecond)
	close(profiles.gate)
	wg.Wait()

	for _, u := range results {
		require.NotNil(t, u)
		assert.Equal(t, "ada", u.Username)
	}
	assert.Less(t, profiles.calls.Load(), int32(n))
}
