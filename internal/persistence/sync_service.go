// Package persistence mirrors local chats into backend projects and chats
// through a serialized write queue.
package persistence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Tiagocruz3/Brainiacodelab/internal/authstate"
	"github.com/Tiagocruz3/Brainiacodelab/internal/core"
	"github.com/Tiagocruz3/Brainiacodelab/internal/db"
	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
)

const (
	untitledProject = "Untitled Project"
	untitledChat    = "Untitled Chat"
)

// ChatInput is a local chat to persist. SupabaseID is the backend chat id
// recorded by an earlier save; empty means the chat was never saved.
type ChatInput struct {
	ChatID      string
	Messages    []models.Message
	Description string
	ProjectID   string
	SupabaseID  string
}

// Service saves, syncs, loads and deletes chats for the signed-in user.
type Service struct {
	storage core.StorageService
	auth    *authstate.Store
	queue   *Queue
	log     *zap.Logger
	now     func() time.Time
}

// NewService wires the chat sync service. Writes queued by AutoSync run on queue.
func NewService(storage core.StorageService, auth *authstate.Store, queue *Queue, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		storage: storage,
		auth:    auth,
		queue:   queue,
		log:     log.Named("chat_sync"),
		now:     time.Now,
	}
}

func (s *Service) currentUser() (*models.User, error) {
	user, ok := s.auth.CurrentUser()
	if !ok {
		return nil, core.ErrNotAuthenticated
	}
	return user, nil
}

func (s *Service) chatMetadata(chatID string) models.Metadata {
	return models.Metadata{
		models.ChatMetaLocalID:     chatID,
		models.ChatMetaLastUpdated: s.now().UTC().Format(time.RFC3339Nano),
	}
}

// ownedProject loads the project and reports one owned by another user as
// not found.
func (s *Service) ownedProject(ctx context.Context, user *models.User, projectID string) (*models.Project, error) {
	project, err := s.storage.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil || project.UserID != user.ID {
		return nil, fmt.Errorf("project '%s' not found: %w", projectID, db.ErrNotFound)
	}
	return project, nil
}

func (s *Service) ownedChat(ctx context.Context, user *models.User, chatID string) (*models.Chat, error) {
	chat, err := s.storage.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil || chat.UserID != user.ID {
		return nil, fmt.Errorf("chat '%s' not found: %w", chatID, db.ErrNotFound)
	}
	return chat, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// SaveChat creates the chat, first creating a project for it when in has no
// ProjectID.
func (s *Service) SaveChat(ctx context.Context, in ChatInput) (*models.Chat, error) {
	user, err := s.currentUser()
	if err != nil {
		return nil, err
	}

	projectID := in.ProjectID
	if projectID != "" {
		if _, err := s.ownedProject(ctx, user, projectID); err != nil {
			return nil, err
		}
	} else {
		description := fmt.Sprintf("Project created from chat %s", in.ChatID)
		project, err := s.storage.CreateProject(ctx, models.ProjectInsert{
			UserID:      user.ID,
			Name:        orDefault(in.Description, untitledProject),
			Description: &description,
			IsPublic:    false,
			Metadata: models.Metadata{
				models.ChatMetaLocalID: in.ChatID,
				"createdFrom":          "chat",
			},
		})
		if err != nil {
			return nil, err
		}
		if project == nil {
			return nil, core.ErrCreateProjectFailed
		}
		projectID = project.ID
	}

	messages := in.Messages
	if messages == nil {
		messages = []models.Message{}
	}
	chat, err := s.storage.CreateChat(ctx, models.ChatInsert{
		ProjectID: projectID,
		UserID:    user.ID,
		Title:     orDefault(in.Description, untitledChat),
		Messages:  messages,
		Metadata:  s.chatMetadata(in.ChatID),
	})
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, core.ErrSaveChatFailed
	}
	return chat, nil
}

// SyncChat updates the backend chat when in.SupabaseID is known and
// otherwise takes the SaveChat path.
func (s *Service) SyncChat(ctx context.Context, in ChatInput) (*models.Chat, error) {
	user, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	if in.SupabaseID == "" {
		return s.SaveChat(ctx, in)
	}
	if _, err := s.ownedChat(ctx, user, in.SupabaseID); err != nil {
		return nil, err
	}

	title := orDefault(in.Description, untitledChat)
	messages := in.Messages
	if messages == nil {
		messages = []models.Message{}
	}
	return s.storage.UpdateChat(ctx, in.SupabaseID, models.ChatUpdate{
		Title:    &title,
		Messages: &messages,
		Metadata: s.chatMetadata(in.ChatID),
	})
}

// LoadUserChats returns every chat of the signed-in user as history items,
// newest first. A project whose chats cannot be loaded is logged and skipped.
func (s *Service) LoadUserChats(ctx context.Context) ([]models.ChatHistoryItem, error) {
	user, err := s.currentUser()
	if err != nil {
		return []models.ChatHistoryItem{}, err
	}

	projects, err := s.storage.GetUserProjects(ctx, user.ID)
	if err != nil {
		return []models.ChatHistoryItem{}, err
	}

	items := []models.ChatHistoryItem{}
	for _, project := range projects {
		chats, err := s.storage.GetProjectChats(ctx, project.ID)
		if err != nil {
			s.log.Error("Error loading chats for project", zap.String("project_id", project.ID), zap.Error(err))
			continue
		}
		for _, chat := range chats {
			items = append(items, models.NewChatHistoryItem(chat, project))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	return items, nil
}

// DeleteChat removes the backend chat with the given id. A chat of another
// user is reported as not found.
func (s *Service) DeleteChat(ctx context.Context, supabaseID string) error {
	user, err := s.currentUser()
	if err != nil {
		return err
	}
	if _, err := s.ownedChat(ctx, user, supabaseID); err != nil {
		return err
	}
	return s.storage.DeleteChat(ctx, supabaseID)
}

// AutoSync queues a SyncChat and returns without waiting for it. The result
// is only visible through the queue status and the log.
func (s *Service) AutoSync(in ChatInput) (string, error) {
	in.Messages = append([]models.Message(nil), in.Messages...)
	return s.queue.Enqueue("sync chat "+in.ChatID, func(ctx context.Context) error {
		if _, err := s.SyncChat(ctx, in); err != nil {
			return fmt.Errorf("auto-sync of chat %s failed: %w", in.ChatID, err)
		}
		return nil
	})
}

// QueueStatus reports the state of the background write queue.
func (s *Service) QueueStatus() Status {
	return s.queue.Status()
}
