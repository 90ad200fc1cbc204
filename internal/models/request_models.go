package models

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
	Username        string `json:"username,omitempty"`
	FullName        string `json:"full_name,omitempty"`
}

// SignInRequest is the body of POST /auth/signin.
type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CreateProjectRequest is the body of POST /projects.
type CreateProjectRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description *string  `json:"description,omitempty"`
	IsPublic    bool     `json:"is_public"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

// SaveChatRequest is the body of POST /chats.
type SaveChatRequest struct {
	ChatID      string    `json:"chatId" binding:"required"`
	Messages    []Message `json:"messages"`
	Description string    `json:"description"`
	ProjectID   string    `json:"projectId,omitempty"`
}

// SyncChatRequest is the body of PUT /chats/sync and POST /chats/autosync.
// SupabaseID is the backend chat id recorded by a previous save, if any.
type SyncChatRequest struct {
	ChatID      string    `json:"chatId" binding:"required"`
	Messages    []Message `json:"messages"`
	Description string    `json:"description"`
	SupabaseID  string    `json:"supabaseId,omitempty"`
	ProjectID   string    `json:"projectId,omitempty"`
}

// SaveFileRequest is the body of PUT /projects/:projectId/files.
type SaveFileRequest struct {
	Path     string   `json:"path" binding:"required"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata,omitempty"`
}
