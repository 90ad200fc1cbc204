package supabase

import "sync"

// AuthChangeEvent names a session transition.
type AuthChangeEvent string

const (
	EventInitialSession AuthChangeEvent = "INITIAL_SESSION"
	EventSignedIn       AuthChangeEvent = "SIGNED_IN"
	EventSignedOut      AuthChangeEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthChangeEvent = "TOKEN_REFRESHED"
	EventUserUpdated    AuthChangeEvent = "USER_UPDATED"
)

// AuthChangeFunc receives a transition and the session after it (nil when signed out).
type AuthChangeFunc func(event AuthChangeEvent, session *Session)

type listenerEntry struct {
	id uint64
	fn AuthChangeFunc
}

type listenerSet struct {
	mu      sync.Mutex
	nextID  uint64
	entries []listenerEntry
}

func (l *listenerSet) add(fn AuthChangeFunc) func() {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, listenerEntry{id: id, fn: fn})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *listenerSet) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// emit calls every listener in registration order. The lock is not held
// during the calls so listeners may use the client.
func (l *listenerSet) emit(event AuthChangeEvent, session *Session) {
	l.mu.Lock()
	targets := make([]AuthChangeFunc, len(l.entries))
	for i, e := range l.entries {
		targets[i] = e.fn
	}
	l.mu.Unlock()

	for _, fn := range targets {
		fn(event, session.Clone())
	}
}

// OnAuthStateChange registers fn for every future session transition and
// returns a function that removes it. Calling the returned function more
// than once is harmless.
func (c *Client) OnAuthStateChange(fn AuthChangeFunc) func() {
	return c.listeners.add(fn)
}
