package core

import (
	"context"

	"github.com/Tiagocruz3/Brainiacodelab/internal/db"
	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
)

type storageService struct {
	repos *db.Repositories
}

// NewStorageService creates a StorageService. Nil repositories yield a
// service whose operations all fail with ErrClientNotInitialized.
func NewStorageService(repos *db.Repositories) StorageService {
	return &storageService{repos: repos}
}

func (s *storageService) ready() bool {
	return s.repos != nil && s.repos.Projects != nil && s.repos.Chats != nil && s.repos.Files != nil
}

// ============= Projects =============

func (s *storageService) CreateProject(ctx context.Context, project models.ProjectInsert) (*models.Project, error) {
	if !s.ready() {
		return nil, ErrClientNotInitialized
	}
	return s.repos.Projects.Create(ctx, project)
}

func (s *storageService) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	if !s.ready() {
		return nil, ErrClientNotInitialized
	}
	return s.repos.Projects.GetByID(ctx, projectID)
}

func (s *storageService) GetUserProjects(ctx context.Context, userID string) ([]*models.Project, error) {
	if !s.ready() {
		return []*models.Project{}, ErrClientNotInitialized
	}
	projects, err := s.repos.Projects.GetByUserID(ctx, userID)
	if err != nil {
		return []*models.Project{}, err
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	return projects, nil
}

func (s *storageService) UpdateProject(ctx context.Context, projectID string, update models.ProjectUpdate) (*models.Project, error) {
	if !s.ready() {
		return nil, ErrClientNotInitialized
	}
	if update.IsEmpty() {
		return s.repos.Projects.GetByID(ctx, projectID)
	}
	return s.repos.Projects.Update(ctx, projectID, update)
}

func (s *storageService) DeleteProject(ctx context.Context, projectID string) error {
	if !s.ready() {
		return ErrClientNotInitialized
	}
	return s.repos.Projects.Delete(ctx, projectID)
}

// ============= Chats =============

func (s *storageService) CreateChat(ctx context.Context, chat models.ChatInsert) (*models.Chat, error) {
	if !s.ready() {
		return nil, ErrClientNotInitialized
	}
	return s.repos.Chats.Create(ctx, chat)
}

func (s *storageService) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	if !s.ready() {
		return nil, ErrClientNotInitialized
	}
	return s.repos.Chats.GetByID(ctx, chatID)
}

func (s *storageService) GetProjectChats(ctx context.Context, projectID string) ([]*models.Chat, error) {
	if !s.ready() {
		return []*models.Chat{}, ErrClientNotInitialized
	}
	chats, err := s.repos.Chats.GetByProjectID(ctx, projectID)
	if err != nil {
		return []*models.Chat{}, err
	}
	if chats == nil {
		chats = []*models.Chat{}
	}
	return chats, nil
}

func (s *storageService) UpdateChat(ctx context.Context, chatID string, update models.ChatUpdate) (*models.Chat, error) {
	if !s.ready() {
		return nil, ErrClientNotInitialized
	}
	if update.IsEmpty() {
		return s.repos.Chats.GetByID(ctx, chatID)
	}
	return s.repos.Chats.Update(ctx, chatID, update)
}

func (s *storageService) DeleteChat(ctx context.Context, chatID string) error {
	if !s.ready() {
		return ErrClientNotInitialized
	}
	return s.repos.Chats.Delete(ctx, chatID)
}

// ============= Files =============

// SaveFile overwrites an existing file with the same project and path.
func (s *storageService) SaveFile(ctx context.Context, file models.FileInsert) (*models.File, error) {
	if !s.ready() {
		return nil, ErrClientNotInitialized
	}
	return s.repos.Files.Upsert(ctx, file.Normalize())
}

func (s *storageService) GetFile(ctx context.Context, fileID string) (*models.File, error) {
	if !s.ready() {
		return nil, ErrClientNotInitialized
	}
	return s.repos.Files.GetByID(ctx, fileID)
}

func (s *storageService) GetProjectFiles(ctx context.Context, projectID string) ([]*models.File, error) {
	if !s.ready() {
		return []*models.File{}, ErrClientNotInitialized
	}
	files, err := s.repos.Files.GetByProjectID(ctx, projectID)
	if err != nil {
		return []*models.File{}, err
	}
	if files == nil {
		files = []*models.File{}
	}
	return files, nil
}

func (s *storageService) DeleteFile(ctx context.Context, fileID string) error {
	if !s.ready() {
		return ErrClientNotInitialized
	}
	return s.repos.Files.Delete(ctx, fileID)
}

func (s *storageService) DeleteProjectFiles(ctx context.Context, projectID string) error {
	if !s.ready() {
		return ErrClientNotInitialized
	}
	return s.repos.Files.DeleteByProjectID(ctx, projectID)
}
