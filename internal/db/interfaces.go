package db

import (
	"context"
	"errors"

	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
)

// ErrNotFound is returned when the requested row or document does not exist.
var ErrNotFound = errors.New("record not found")

// Table and collection names shared by both backends.
const (
	profilesTable = "profiles"
	projectsTable = "projects"
	chatsTable    = "chats"
	filesTable    = "files"
)

// ProfileRepository defines storage operations for user profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, userID string, update models.ProfileUpdate) error
}

// ProjectRepository defines storage operations for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project models.ProjectInsert) (*models.Project, error)
	GetByID(ctx context.Context, projectID string) (*models.Project, error)
	// GetByUserID returns the user's projects, most recently updated first.
	GetByUserID(ctx context.Context, userID string) ([]*models.Project, error)
	Update(ctx context.Context, projectID string, update models.ProjectUpdate) (*models.Project, error)
	Delete(ctx context.Context, projectID string) error
}

// ChatRepository defines storage operations for chats.
type ChatRepository interface {
	// Create fails with ErrNotFound unless chat.ProjectID names a project
	// owned by chat.UserID. The PostgREST backend leaves this to row level
	// security.
	Create(ctx context.Context, chat models.ChatInsert) (*models.Chat, error)
	GetByID(ctx context.Context, chatID string) (*models.Chat, error)
	// GetByProjectID returns the project's chats, most recently updated first.
	GetByProjectID(ctx context.Context, projectID string) ([]*models.Chat, error)
	Update(ctx context.Context, chatID string, update models.ChatUpdate) (*models.Chat, error)
	Delete(ctx context.Context, chatID string) error
}

// FileRepository defines storage operations for project files.
type FileRepository interface {
	// Upsert inserts the file or overwrites the one with the same (project_id, path).
	// Like ChatRepository.Create it requires a project owned by file.UserID.
	Upsert(ctx context.Context, file models.FileInsert) (*models.File, error)
	GetByID(ctx context.Context, fileID string) (*models.File, error)
	GetByProjectID(ctx context.Context, projectID string) ([]*models.File, error)
	Delete(ctx context.Context, fileID string) error
	DeleteByProjectID(ctx context.Context, projectID string) error
}

// Repositories bundles one implementation of every repository.
type Repositories struct {
	Profiles ProfileRepository
	Projects ProjectRepository
	Chats    ChatRepository
	Files    FileRepository
}
