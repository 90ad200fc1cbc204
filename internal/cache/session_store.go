package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Tiagocruz3/Brainiacodelab/internal/crypto"
	"github.com/Tiagocruz3/Brainiacodelab/internal/supabase"
)

// SessionTTL bounds how long a persisted session outlives the process.
// GoTrue refresh tokens are long lived; this only keeps stale keys from piling up.
const SessionTTL = 30 * 24 * time.Hour

// SessionStore persists the signed-in Supabase session in a Cache as JSON.
type SessionStore struct {
	cache  Cache
	key    string
	sealer *crypto.Sealer
	log    *zap.Logger
}

var _ supabase.SessionStore = (*SessionStore)(nil)

// NewSessionStore stores the session under "<prefix>:session".
func NewSessionStore(c Cache, prefix string) *SessionStore {
	key := "session"
	if prefix != "" {
		key = prefix + ":session"
	}
	return &SessionStore{cache: c, key: key, log: zap.NewNop()}
}

// WithLogger sets the logger used for entries that cannot be cleaned up.
func (s *SessionStore) WithLogger(log *zap.Logger) *SessionStore {
	if log != nil {
		s.log = log.Named("session_store")
	}
	return s
}

// WithSealer encrypts the stored session with sealer. Entries written
// without it, or with another key, read back as signed out.
func (s *SessionStore) WithSealer(sealer *crypto.Sealer) *SessionStore {
	s.sealer = sealer
	return s
}

// Key returns the cache key the session is stored under.
func (s *SessionStore) Key() string { return s.key }

// Load returns (nil, nil) when no session is stored.
func (s *SessionStore) Load(ctx context.Context) (*supabase.Session, error) {
	raw, err := s.cache.Get(ctx, s.key)
	if errors.Is(err, ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if s.sealer != nil {
		if raw, err = s.sealer.Open(raw); err != nil {
			s.discard(ctx, "sealed session cannot be opened")
			return nil, nil
		}
	}

	var session supabase.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		// A corrupt entry is treated as signed out.
		s.discard(ctx, "stored session is not valid JSON")
		return nil, nil
	}
	if session.AccessToken == "" {
		return nil, nil
	}
	return &session, nil
}

// discard drops an unreadable entry. Load still reports signed out when the
// delete fails; the entry is then overwritten by the next Save.
func (s *SessionStore) discard(ctx context.Context, reason string) {
	s.log.Warn("Discarding unreadable session", zap.String("key", s.key), zap.String("reason", reason))
	if err := s.cache.Delete(ctx, s.key); err != nil {
		s.log.Error("Error deleting unreadable session", zap.String("key", s.key), zap.Error(err))
	}
}

// Save overwrites the stored session. Saving nil deletes it.
func (s *SessionStore) Save(ctx context.Context, session *supabase.Session) error {
	if session == nil {
		return s.Delete(ctx)
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if s.sealer != nil {
		if raw, err = s.sealer.Seal(raw); err != nil {
			return fmt.Errorf("seal session: %w", err)
		}
	}
	if err := s.cache.Set(ctx, s.key, raw, SessionTTL); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes the stored session.
func (s *SessionStore) Delete(ctx context.Context) error {
	if err := s.cache.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
