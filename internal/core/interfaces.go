package core

import (
	"context"

	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
	"github.com/Tiagocruz3/Brainiacodelab/internal/supabase"
)

// AuthBackend is the subset of the Supabase client the auth service needs.
// *supabase.Client implements it.
type AuthBackend interface {
	SignUp(ctx context.Context, email, password string, data map[string]interface{}) (*supabase.AuthResponse, error)
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	SignOut(ctx context.Context) error
	GetUser(ctx context.Context) (*supabase.User, error)
	GetSession(ctx context.Context) (*supabase.Session, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	OnAuthStateChange(fn supabase.AuthChangeFunc) func()
}

// UserChangeFunc receives the user after a session transition, nil when signed out.
type UserChangeFunc func(event supabase.AuthChangeEvent, user *models.User)

// AuthService defines account and session operations.
type AuthService interface {
	// SignUp creates an account. The user is returned even when email
	// confirmation is pending and no session exists yet.
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context) error
	// GetCurrentUser returns (nil, nil) when nobody is signed in.
	GetCurrentUser(ctx context.Context) (*models.User, error)
	GetSession(ctx context.Context) (*supabase.Session, error)
	UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) error
	ResetPassword(ctx context.Context, email string) error
	// OnAuthStateChange registers fn for every session transition. The
	// profile is resolved before fn runs. The returned func unsubscribes.
	OnAuthStateChange(fn UserChangeFunc) func()
}

// StorageService is the CRUD facade over projects, chats and files.
type StorageService interface {
	CreateProject(ctx context.Context, project models.ProjectInsert) (*models.Project, error)
	GetProject(ctx context.Context, projectID string) (*models.Project, error)
	GetUserProjects(ctx context.Context, userID string) ([]*models.Project, error)
	UpdateProject(ctx context.Context, projectID string, update models.ProjectUpdate) (*models.Project, error)
	DeleteProject(ctx context.Context, projectID string) error

	CreateChat(ctx context.Context, chat models.ChatInsert) (*models.Chat, error)
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)
	GetProjectChats(ctx context.Context, projectID string) ([]*models.Chat, error)
	UpdateChat(ctx context.Context, chatID string, update models.ChatUpdate) (*models.Chat, error)
	DeleteChat(ctx context.Context, chatID string) error

	SaveFile(ctx context.Context, file models.FileInsert) (*models.File, error)
	GetFile(ctx context.Context, fileID string) (*models.File, error)
	GetProjectFiles(ctx context.Context, projectID string) ([]*models.File, error)
	DeleteFile(ctx context.Context, fileID string) error
	DeleteProjectFiles(ctx context.Context, projectID string) error
}
