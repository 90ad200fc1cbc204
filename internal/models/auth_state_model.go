package models

// AuthState is the in-memory view of the current session. It is never
// persisted; a fresh process starts with InitialAuthState.
type AuthState struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
	IsLoading       bool  `json:"isLoading"`
}

// InitialAuthState is the cold-start state: nobody signed in, still loading.
func InitialAuthState() AuthState {
	return AuthState{User: nil, IsAuthenticated: false, IsLoading: true}
}

// Clone returns a copy that shares no memory with s.
func (s AuthState) Clone() AuthState {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
