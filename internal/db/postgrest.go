package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
	"github.com/Tiagocruz3/Brainiacodelab/internal/supabase"
)

// NewPostgrestRepositories returns repositories backed by the Supabase
// PostgREST API. Row-level security scopes every query to the signed-in user.
func NewPostgrestRepositories(client *supabase.Client) *Repositories {
	return &Repositories{
		Profiles: &postgrestProfileRepository{client: client},
		Projects: &postgrestProjectRepository{client: client},
		Chats:    &postgrestChatRepository{client: client},
		Files:    &postgrestFileRepository{client: client},
	}
}

// notFound maps the PostgREST "no rows" error for single-row requests.
func notFound(err error, what, id string) error {
	if supabase.IsNoRows(err) {
		return fmt.Errorf("%s '%s' not found: %w", what, id, ErrNotFound)
	}
	return err
}

type postgrestProfileRepository struct {
	client *supabase.Client
}

func (r *postgrestProfileRepository) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	var profile models.Profile
	err := r.client.From(profilesTable).Select("*").Eq("id", userID).Single().Execute(ctx, &profile)
	if err != nil {
		return nil, notFound(err, "profile", userID)
	}
	return &profile, nil
}

func (r *postgrestProfileRepository) Update(ctx context.Context, userID string, update models.ProfileUpdate) error {
	if userID == "" {
		return errors.New("userID cannot be empty for Update operation")
	}
	return r.client.From(profilesTable).Update(update).Eq("id", userID).Execute(ctx, nil)
}

type postgrestProjectRepository struct {
	client *supabase.Client
}

func (r *postgrestProjectRepository) Create(ctx context.Context, project models.ProjectInsert) (*models.Project, error) {
	var out models.Project
	if err := r.client.From(projectsTable).Insert(project).Select("*").Single().Execute(ctx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgrestProjectRepository) GetByID(ctx context.Context, projectID string) (*models.Project, error) {
	var out models.Project
	err := r.client.From(projectsTable).Select("*").Eq("id", projectID).Single().Execute(ctx, &out)
	if err != nil {
		return nil, notFound(err, "project", projectID)
	}
	return &out, nil
}

func (r *postgrestProjectRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Project, error) {
	var out []*models.Project
	err := r.client.From(projectsTable).Select("*").Eq("user_id", userID).Order("updated_at", false).Execute(ctx, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgrestProjectRepository) Update(ctx context.Context, projectID string, update models.ProjectUpdate) (*models.Project, error) {
	var out models.Project
	err := r.client.From(projectsTable).Update(update).Eq("id", projectID).Select("*").Single().Execute(ctx, &out)
	if err != nil {
		return nil, notFound(err, "project", projectID)
	}
	return &out, nil
}

func (r *postgrestProjectRepository) Delete(ctx context.Context, projectID string) error {
	return r.client.From(projectsTable).Delete().Eq("id", projectID).Execute(ctx, nil)
}

type postgrestChatRepository struct {
	client *supabase.Client
}

func (r *postgrestChatRepository) Create(ctx context.Context, chat models.ChatInsert) (*models.Chat, error) {
	if chat.Messages == nil {
		chat.Messages = []models.Message{}
	}
	var out models.Chat
	if err := r.client.From(chatsTable).Insert(chat).Select("*").Single().Execute(ctx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgrestChatRepository) GetByID(ctx context.Context, chatID string) (*models.Chat, error) {
	var out models.Chat
	err := r.client.From(chatsTable).Select("*").Eq("id", chatID).Single().Execute(ctx, &out)
	if err != nil {
		return nil, notFound(err, "chat", chatID)
	}
	return &out, nil
}

func (r *postgrestChatRepository) GetByProjectID(ctx context.Context, projectID string) ([]*models.Chat, error) {
	var out []*models.Chat
	err := r.client.From(chatsTable).Select("*").Eq("project_id", projectID).Order("updated_at", false).Execute(ctx, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgrestChatRepository) Update(ctx context.Context, chatID string, update models.ChatUpdate) (*models.Chat, error) {
	var out models.Chat
	err := r.client.From(chatsTable).Update(update).Eq("id", chatID).Select("*").Single().Execute(ctx, &out)
	if err != nil {
		return nil, notFound(err, "chat", chatID)
	}
	return &out, nil
}

func (r *postgrestChatRepository) Delete(ctx context.Context, chatID string) error {
	return r.client.From(chatsTable).Delete().Eq("id", chatID).Execute(ctx, nil)
}

type postgrestFileRepository struct {
	client *supabase.Client
}

func (r *postgrestFileRepository) Upsert(ctx context.Context, file models.FileInsert) (*models.File, error) {
	var out models.File
	err := r.client.From(filesTable).Upsert(file.Normalize(), "project_id,path").Select("*").Single().Execute(ctx, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgrestFileRepository) GetByID(ctx context.Context, fileID string) (*models.File, error) {
	var out models.File
	err := r.client.From(filesTable).Select("*").Eq("id", fileID).Single().Execute(ctx, &out)
	if err != nil {
		return nil, notFound(err, "file", fileID)
	}
	return &out, nil
}

func (r *postgrestFileRepository) GetByProjectID(ctx context.Context, projectID string) ([]*models.File, error) {
	var out []*models.File
	err := r.client.From(filesTable).Select("*").Eq("project_id", projectID).Order("updated_at", false).Execute(ctx, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgrestFileRepository) Delete(ctx context.Context, fileID string) error {
	return r.client.From(filesTable).Delete().Eq("id", fileID).Execute(ctx, nil)
}

func (r *postgrestFileRepository) DeleteByProjectID(ctx context.Context, projectID string) error {
	return r.client.From(filesTable).Delete().Eq("project_id", projectID).Execute(ctx, nil)
}
