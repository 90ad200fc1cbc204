package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
)

// fileNamespace seeds the deterministic file document ids.
var fileNamespace = uuid.MustParse("6f1c5a8e-3b0d-4c67-9a43-2f6d0b7e9c15")

// fileDocID derives the document id of a file from its unique key, so saving
// the same (project, path) twice addresses the same document.
func fileDocID(projectID, path string) string {
	return uuid.NewSHA1(fileNamespace, []byte(projectID+"\x00"+path)).String()
}

// fetchDoc reads one document into T and lets setID copy the document id in.
func fetchDoc[T any](ctx context.Context, ref *firestore.DocumentRef, what string, setID func(*T, string)) (*T, error) {
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%s '%s' not found: %w", what, ref.ID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s '%s': %w", what, ref.ID, err)
	}
	var out T
	if err := snap.DataTo(&out); err != nil {
		return nil, fmt.Errorf("failed to decode %s '%s': %w", what, ref.ID, err)
	}
	setID(&out, snap.Ref.ID)
	return &out, nil
}

// collectDocs drains a query. Documents that fail to decode are logged and skipped.
func collectDocs[T any](iter *firestore.DocumentIterator, log *zap.Logger, what string, setID func(*T, string)) ([]*T, error) {
	defer iter.Stop()

	out := []*T{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate %s: %w", what, err)
		}
		var item T
		if err := doc.DataTo(&item); err != nil {
			log.Warn("Skipping undecodable document", zap.String("kind", what), zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}
		setID(&item, doc.Ref.ID)
		out = append(out, &item)
	}
	return out, nil
}

// updateDoc applies updates plus a fresh updated_at, mapping a missing document to ErrNotFound.
func updateDoc(ctx context.Context, ref *firestore.DocumentRef, what string, updates []firestore.Update) error {
	updates = append(updates, firestore.Update{Path: "updated_at", Value: firestore.ServerTimestamp})
	if _, err := ref.Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%s '%s' not found: %w", what, ref.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to update %s '%s': %w", what, ref.ID, err)
	}
	return nil
}

// requireOwnedProject reads the project inside tx and reports it as not
// found when it is missing or owned by someone else.
func requireOwnedProject(tx *firestore.Transaction, client *firestore.Client, projectID, userID string) error {
	if projectID == "" {
		return fmt.Errorf("project '' not found: %w", ErrNotFound)
	}
	snap, err := tx.Get(client.Collection(projectsTable).Doc(projectID))
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("project '%s' not found: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get project '%s': %w", projectID, err)
	}
	owner, err := snap.DataAt("user_id")
	if err != nil || owner != userID {
		return fmt.Errorf("project '%s' not found: %w", projectID, ErrNotFound)
	}
	return nil
}

func setProfileID(p *models.Profile, id string) { p.ID = id }
func setProjectID(p *models.Project, id string) { p.ID = id }
func setChatID(c *models.Chat, id string)       { c.ID = id }
func setFileID(f *models.File, id string)       { f.ID = id }

type firestoreProfileRepository struct {
	client *firestore.Client
}

func (r *firestoreProfileRepository) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	return fetchDoc(ctx, r.client.Collection(profilesTable).Doc(userID), "profile", setProfileID)
}

func (r *firestoreProfileRepository) Update(ctx context.Context, userID string, update models.ProfileUpdate) error {
	if userID == "" {
		return errors.New("userID cannot be empty for Update operation")
	}
	var updates []firestore.Update
	if update.Username != nil {
		updates = append(updates, firestore.Update{Path: "username", Value: *update.Username})
	}
	if update.FullName != nil {
		updates = append(updates, firestore.Update{Path: "full_name", Value: *update.FullName})
	}
	if update.AvatarURL != nil {
		updates = append(updates, firestore.Update{Path: "avatar_url", Value: *update.AvatarURL})
	}
	return updateDoc(ctx, r.client.Collection(profilesTable).Doc(userID), "profile", updates)
}

type firestoreProjectRepository struct {
	client *firestore.Client
	log    *zap.Logger
}

func (r *firestoreProjectRepository) Create(ctx context.Context, in models.ProjectInsert) (*models.Project, error) {
	ref := r.client.Collection(projectsTable).NewDoc()
	project := &models.Project{
		UserID:      in.UserID,
		Name:        in.Name,
		Description: in.Description,
		IsPublic:    in.IsPublic,
		Metadata:    in.Metadata,
	}
	if _, err := ref.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return fetchDoc(ctx, ref, "project", setProjectID)
}

func (r *firestoreProjectRepository) GetByID(ctx context.Context, projectID string) (*models.Project, error) {
	if projectID == "" {
		return nil, errors.New("projectID cannot be empty for GetByID operation")
	}
	return fetchDoc(ctx, r.client.Collection(projectsTable).Doc(projectID), "project", setProjectID)
}

func (r *firestoreProjectRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Project, error) {
	iter := r.client.Collection(projectsTable).
		Where("user_id", "==", userID).
		OrderBy("updated_at", firestore.Desc).
		Documents(ctx)
	return collectDocs(iter, r.log, "projects", setProjectID)
}

func (r *firestoreProjectRepository) Update(ctx context.Context, projectID string, update models.ProjectUpdate) (*models.Project, error) {
	if projectID == "" {
		return nil, errors.New("projectID cannot be empty for Update operation")
	}
	var updates []firestore.Update
	if update.Name != nil {
		updates = append(updates, firestore.Update{Path: "name", Value: *update.Name})
	}
	if update.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *update.Description})
	}
	if update.IsPublic != nil {
		updates = append(updates, firestore.Update{Path: "is_public", Value: *update.IsPublic})
	}
	if update.Metadata != nil {
		updates = append(updates, firestore.Update{Path: "metadata", Value: map[string]interface{}(update.Metadata)})
	}
	ref := r.client.Collection(projectsTable).Doc(projectID)
	if err := updateDoc(ctx, ref, "project", updates); err != nil {
		return nil, err
	}
	return fetchDoc(ctx, ref, "project", setProjectID)
}

// Delete removes the project document. Chats and files are separate
// collections and are left for the caller to clean up.
func (r *firestoreProjectRepository) Delete(ctx context.Context, projectID string) error {
	if projectID == "" {
		return errors.New("projectID cannot be empty for Delete operation")
	}
	if _, err := r.client.Collection(projectsTable).Doc(projectID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete project '%s': %w", projectID, err)
	}
	return nil
}

type firestoreChatRepository struct {
	client *firestore.Client
	log    *zap.Logger
}

func (r *firestoreChatRepository) Create(ctx context.Context, in models.ChatInsert) (*models.Chat, error) {
	messages := in.Messages
	if messages == nil {
		messages = []models.Message{}
	}
	ref := r.client.Collection(chatsTable).NewDoc()
	chat := &models.Chat{
		ProjectID: in.ProjectID,
		UserID:    in.UserID,
		Title:     in.Title,
		Messages:  messages,
		Metadata:  in.Metadata,
	}
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := requireOwnedProject(tx, r.client, in.ProjectID, in.UserID); err != nil {
			return err
		}
		return tx.Create(ref, chat)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return fetchDoc(ctx, ref, "chat", setChatID)
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, chatID string) (*models.Chat, error) {
	if chatID == "" {
		return nil, errors.New("chatID cannot be empty for GetByID operation")
	}
	return fetchDoc(ctx, r.client.Collection(chatsTable).Doc(chatID), "chat", setChatID)
}

func (r *firestoreChatRepository) GetByProjectID(ctx context.Context, projectID string) ([]*models.Chat, error) {
	iter := r.client.Collection(chatsTable).
		Where("project_id", "==", projectID).
		OrderBy("updated_at", firestore.Desc).
		Documents(ctx)
	return collectDocs(iter, r.log, "chats", setChatID)
}

func (r *firestoreChatRepository) Update(ctx context.Context, chatID string, update models.ChatUpdate) (*models.Chat, error) {
	if chatID == "" {
		return nil, errors.New("chatID cannot be empty for Update operation")
	}
	var updates []firestore.Update
	if update.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *update.Title})
	}
	if update.Messages != nil {
		updates = append(updates, firestore.Update{Path: "messages", Value: *update.Messages})
	}
	if update.Metadata != nil {
		updates = append(updates, firestore.Update{Path: "metadata", Value: map[string]interface{}(update.Metadata)})
	}
	ref := r.client.Collection(chatsTable).Doc(chatID)
	if err := updateDoc(ctx, ref, "chat", updates); err != nil {
		return nil, err
	}
	return fetchDoc(ctx, ref, "chat", setChatID)
}

func (r *firestoreChatRepository) Delete(ctx context.Context, chatID string) error {
	if chatID == "" {
		return errors.New("chatID cannot be empty for Delete operation")
	}
	if _, err := r.client.Collection(chatsTable).Doc(chatID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete chat '%s': %w", chatID, err)
	}
	return nil
}

type firestoreFileRepository struct {
	client *firestore.Client
	log    *zap.Logger
}

// Upsert keeps created_at of an existing document and overwrites the rest.
func (r *firestoreFileRepository) Upsert(ctx context.Context, in models.FileInsert) (*models.File, error) {
	if in.ProjectID == "" || in.Path == "" {
		return nil, errors.New("project_id and path are required to save a file")
	}
	in = in.Normalize()
	ref := r.client.Collection(filesTable).Doc(fileDocID(in.ProjectID, in.Path))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := requireOwnedProject(tx, r.client, in.ProjectID, in.UserID); err != nil {
			return err
		}
		_, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return tx.Create(ref, &models.File{
				ProjectID: in.ProjectID,
				UserID:    in.UserID,
				Path:      in.Path,
				Content:   in.Content,
				Size:      in.Size,
				Metadata:  in.Metadata,
			})
		}
		if err != nil {
			return err
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "user_id", Value: in.UserID},
			{Path: "content", Value: in.Content},
			{Path: "size", Value: in.Size},
			{Path: "metadata", Value: map[string]interface{}(in.Metadata)},
			{Path: "updated_at", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save file '%s': %w", in.Path, err)
	}
	return fetchDoc(ctx, ref, "file", setFileID)
}

func (r *firestoreFileRepository) GetByID(ctx context.Context, fileID string) (*models.File, error) {
	if fileID == "" {
		return nil, errors.New("fileID cannot be empty for GetByID operation")
	}
	return fetchDoc(ctx, r.client.Collection(filesTable).Doc(fileID), "file", setFileID)
}

func (r *firestoreFileRepository) GetByProjectID(ctx context.Context, projectID string) ([]*models.File, error) {
	iter := r.client.Collection(filesTable).
		Where("project_id", "==", projectID).
		OrderBy("updated_at", firestore.Desc).
		Documents(ctx)
	return collectDocs(iter, r.log, "files", setFileID)
}

func (r *firestoreFileRepository) Delete(ctx context.Context, fileID string) error {
	if fileID == "" {
		return errors.New("fileID cannot be empty for Delete operation")
	}
	if _, err := r.client.Collection(filesTable).Doc(fileID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete file '%s': %w", fileID, err)
	}
	return nil
}

func (r *firestoreFileRepository) DeleteByProjectID(ctx context.Context, projectID string) error {
	if projectID == "" {
		return errors.New("projectID cannot be empty for DeleteByProjectID operation")
	}
	iter := r.client.Collection(filesTable).Where("project_id", "==", projectID).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to iterate files of project '%s': %w", projectID, err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete file '%s': %w", doc.Ref.ID, err)
		}
	}
}
