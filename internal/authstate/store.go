// Package authstate holds the process-wide view of who is signed in and
// fans out every change to subscribers.
package authstate

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tiagocruz3/Brainiacodelab/internal/core"
	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
	"github.com/Tiagocruz3/Brainiacodelab/internal/supabase"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 16

// UserSource is where the store learns about the session. core.AuthService
// implements it.
type UserSource interface {
	GetCurrentUser(ctx context.Context) (*models.User, error)
	OnAuthStateChange(fn core.UserChangeFunc) func()
}

// Store is the auth state cell. Writes are last-write-wins. The zero value
// is not usable; create one with New.
type Store struct {
	mu          sync.RWMutex
	state       models.AuthState
	subscribers map[string]chan models.AuthState
	closed      bool

	initOnce sync.Once
	detach   func()

	log *zap.Logger
}

// New creates a store in the cold-start state (no user, loading).
func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		state:       models.InitialAuthState(),
		subscribers: make(map[string]chan models.AuthState),
		log:         log.Named("authstate"),
	}
}

// Get returns a copy of the current state.
func (s *Store) Get() models.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// CurrentUser returns the signed-in user, or false when nobody is.
func (s *Store) CurrentUser() (*models.User, bool) {
	st := s.Get()
	if !st.IsAuthenticated || st.User == nil {
		return nil, false
	}
	return st.User, true
}

// Set replaces the whole state.
func (s *Store) Set(state models.AuthState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.publishLocked()
}

// SetUser records user as signed in and stops loading. A nil user is the
// same as Clear.
func (s *Store) SetUser(user *models.User) {
	if user == nil {
		s.Clear()
		return
	}
	u := *user
	s.Set(models.AuthState{User: &u, IsAuthenticated: true, IsLoading: false})
}

// SetLoading flips the loading flag and keeps everything else.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.Clone()
	next.IsLoading = loading
	s.state = next
	s.publishLocked()
}

// Clear records that nobody is signed in.
func (s *Store) Clear() {
	s.Set(models.AuthState{User: nil, IsAuthenticated: false, IsLoading: false})
}

// Subscribe returns a channel that first receives the current state and then
// every change, plus an id for Unsubscribe. The subscription ends when ctx
// is cancelled. A subscriber that falls behind only loses intermediate
// states; the newest one is always delivered.
func (s *Store) Subscribe(ctx context.Context) (<-chan models.AuthState, string) {
	subID := uuid.New().String()
	ch := make(chan models.AuthState, subscriberBufferSize)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, subID
	}
	s.subscribers[subID] = ch
	ch <- s.state.Clone()
	s.mu.Unlock()

	s.log.Debug("subscriber added", zap.String("sub_id", subID))

	go func() {
		<-ctx.Done()
		s.Unsubscribe(subID)
	}()
	return ch, subID
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(subID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.subscribers[subID]
	if !ok {
		return
	}
	delete(s.subscribers, subID)
	close(ch)
	s.log.Debug("subscriber removed", zap.String("sub_id", subID))
}

// Initialize seeds the store from source and then follows its change
// notifications. Only the first call does anything. A failed lookup seeds
// the signed-out state.
func (s *Store) Initialize(ctx context.Context, source UserSource) {
	s.initOnce.Do(func() {
		user, err := source.GetCurrentUser(ctx)
		if err != nil {
			s.log.Warn("Failed to restore session", zap.Error(err))
			user = nil
		}
		s.SetUser(user)

		detach := source.OnAuthStateChange(func(_ supabase.AuthChangeEvent, u *models.User) {
			s.SetUser(u)
		})

		s.mu.Lock()
		s.detach = detach
		s.mu.Unlock()
	})
}

// Close stops following the auth source and closes every subscriber channel.
func (s *Store) Close() {
	s.mu.Lock()
	detach := s.detach
	s.detach = nil
	s.closed = true
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.mu.Unlock()

	if detach != nil {
		detach()
	}
}

// publishLocked delivers the current state without blocking. Callers hold mu.
func (s *Store) publishLocked() {
	for id, ch := range s.subscribers {
		st := s.state.Clone()
		select {
		case ch <- st:
			continue
		default:
		}
		// Full: drop the oldest queued state to make room for the newest.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
			s.log.Debug("dropped state for slow subscriber", zap.String("sub_id", id))
		}
	}
}
