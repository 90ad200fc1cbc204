package core

import "errors"

// Errors surfaced to callers. The messages are shown to users as-is.
var (
	// ErrClientNotInitialized is returned by every operation when the
	// backend URL or anon key is missing.
	ErrClientNotInitialized = errors.New("Supabase client not initialized")
	// ErrNotAuthenticated is returned by sync operations without a signed-in user.
	ErrNotAuthenticated = errors.New("User not authenticated")

	ErrSignUpFailed        = errors.New("Failed to create user")
	ErrSignInFailed        = errors.New("Failed to sign in")
	ErrCreateProjectFailed = errors.New("Failed to create project")
	ErrSaveChatFailed      = errors.New("Failed to save chat")
)
