package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Tiagocruz3/Brainiacodelab/internal/db"
	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
	"github.com/Tiagocruz3/Brainiacodelab/internal/supabase"
)

// listenerProfileTimeout bounds the profile lookup done for each auth event.
const listenerProfileTimeout = 10 * time.Second

type authService struct {
	backend       AuthBackend
	profiles      db.ProfileRepository
	resetRedirect string
	log           *zap.Logger
	inflight      singleflight.Group
}

// NewAuthService creates an AuthService. A nil backend yields a service whose
// operations all fail with ErrClientNotInitialized. resetRedirect is where
// password-reset emails send the user.
func NewAuthService(backend AuthBackend, profiles db.ProfileRepository, resetRedirect string, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		backend:       backend,
		profiles:      profiles,
		resetRedirect: resetRedirect,
		log:           log.Named("auth"),
	}
}

func (s *authService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.User, error) {
	if s.backend == nil {
		return nil, ErrClientNotInitialized
	}

	data := map[string]interface{}{}
	if req.Username != "" {
		data["username"] = req.Username
	}
	if req.FullName != "" {
		data["full_name"] = req.FullName
	}

	resp, err := s.backend.SignUp(ctx, req.Email, req.Password, data)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.User == nil || resp.User.ID == "" {
		return nil, ErrSignUpFailed
	}
	return s.withProfile(ctx, resp.User.ID, resp.User.Email), nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	if s.backend == nil {
		return nil, ErrClientNotInitialized
	}

	session, err := s.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if session == nil || session.User == nil || session.User.ID == "" {
		return nil, ErrSignInFailed
	}
	return s.withProfile(ctx, session.User.ID, session.User.Email), nil
}

func (s *authService) SignOut(ctx context.Context) error {
	if s.backend == nil {
		return ErrClientNotInitialized
	}
	return s.backend.SignOut(ctx)
}

func (s *authService) GetCurrentUser(ctx context.Context) (*models.User, error) {
	if s.backend == nil {
		return nil, ErrClientNotInitialized
	}

	user, err := s.backend.GetUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if user == nil {
		return nil, nil
	}
	return s.withProfile(ctx, user.ID, user.Email), nil
}

func (s *authService) GetSession(ctx context.Context) (*supabase.Session, error) {
	if s.backend == nil {
		return nil, ErrClientNotInitialized
	}
	return s.backend.GetSession(ctx)
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) error {
	if s.backend == nil || s.profiles == nil {
		return ErrClientNotInitialized
	}
	if userID == "" {
		return errors.New("user id is required")
	}
	if update.IsEmpty() {
		return nil
	}
	return s.profiles.Update(ctx, userID, update)
}

func (s *authService) ResetPassword(ctx context.Context, email string) error {
	if s.backend == nil {
		return ErrClientNotInitialized
	}
	return s.backend.ResetPasswordForEmail(ctx, email, s.resetRedirect)
}

func (s *authService) OnAuthStateChange(fn UserChangeFunc) func() {
	if s.backend == nil || fn == nil {
		return func() {}
	}
	return s.backend.OnAuthStateChange(func(event supabase.AuthChangeEvent, session *supabase.Session) {
		if session == nil || session.User == nil {
			fn(event, nil)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), listenerProfileTimeout)
		defer cancel()
		fn(event, s.withProfile(ctx, session.User.ID, session.User.Email))
	})
}

// withProfile merges the profile row into the auth identity. A failed lookup
// is logged and leaves the profile fields empty.
func (s *authService) withProfile(ctx context.Context, userID, email string) *models.User {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		s.log.Warn("Error fetching profile", zap.String("user_id", userID), zap.Error(err))
	}
	return models.MergeProfile(userID, email, profile)
}

// profile collapses concurrent lookups of the same user into one request.
func (s *authService) profile(ctx context.Context, userID string) (*models.Profile, error) {
	if s.profiles == nil {
		return nil, nil
	}
	v, err, _ := s.inflight.Do(userID, func() (interface{}, error) {
		return s.profiles.GetByID(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Profile), nil
}
