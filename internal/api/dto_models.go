package api

import (
	"github.com/Tiagocruz3/Brainiacodelab/internal/middleware"
	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
	"github.com/Tiagocruz3/Brainiacodelab/internal/supabase"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse = middleware.ErrorResponse

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// UserResponse wraps the user returned by the auth endpoints.
// ConfirmationRequired is set after a sign-up that has no session yet.
type UserResponse struct {
	User                 *models.User `json:"user"`
	ConfirmationRequired bool         `json:"confirmationRequired,omitempty"`
}

// SessionResponse is the body of GET /auth/session. Session is null when
// nobody is signed in.
type SessionResponse struct {
	Session *supabase.Session `json:"session"`
}

// ChatListResponse is the body of GET /chats.
type ChatListResponse struct {
	Chats []models.ChatHistoryItem `json:"chats"`
}

// AutoSyncResponse is returned when a background sync has been queued.
type AutoSyncResponse struct {
	OperationID string `json:"operationId"`
}
