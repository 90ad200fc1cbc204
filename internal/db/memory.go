package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
)

// memoryStore keeps all rows in process memory. Data is lost on restart.
type memoryStore struct {
	mu       sync.RWMutex
	last     time.Time
	profiles map[string]models.Profile
	projects map[string]models.Project
	chats    map[string]models.Chat
	files    map[string]models.File
}

// NewMemoryRepositories returns repositories that keep everything in memory.
func NewMemoryRepositories() *Repositories {
	s := &memoryStore{
		profiles: make(map[string]models.Profile),
		projects: make(map[string]models.Project),
		chats:    make(map[string]models.Chat),
		files:    make(map[string]models.File),
	}
	return &Repositories{
		Profiles: &memoryProfileRepository{s},
		Projects: &memoryProjectRepository{s},
		Chats:    &memoryChatRepository{s},
		Files:    &memoryFileRepository{s},
	}
}

// tick returns a timestamp strictly after the previous one so ordering by
// updated_at is total. Callers hold mu.
func (s *memoryStore) tick() time.Time {
	now := time.Now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func cloneMetadata(m models.Metadata) models.Metadata {
	if m == nil {
		return nil
	}
	out := make(models.Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneMessages(msgs []models.Message) []models.Message {
	if msgs == nil {
		return []models.Message{}
	}
	return append([]models.Message(nil), msgs...)
}

func notFoundErr(what, id string) error {
	return fmt.Errorf("%s '%s' not found: %w", what, id, ErrNotFound)
}

// requireOwnedProject reports a project that is missing or owned by someone
// else as not found. Callers hold s.mu.
func (s *memoryStore) requireOwnedProject(projectID, userID string) error {
	p, ok := s.projects[projectID]
	if !ok || p.UserID != userID {
		return notFoundErr("project", projectID)
	}
	return nil
}

type memoryProfileRepository struct{ s *memoryStore }

// Put inserts or replaces a profile. Used to seed the memory backend.
func (r *memoryProfileRepository) Put(p models.Profile) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.tick()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.s.profiles[p.ID] = p
}

func (r *memoryProfileRepository) GetByID(_ context.Context, userID string) (*models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, notFoundErr("profile", userID)
	}
	return &p, nil
}

func (r *memoryProfileRepository) Update(_ context.Context, userID string, update models.ProfileUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		// PostgREST updates zero rows without error; mirror that.
		return nil
	}
	if update.Username != nil {
		p.Username = update.Username
	}
	if update.FullName != nil {
		p.FullName = update.FullName
	}
	if update.AvatarURL != nil {
		p.AvatarURL = update.AvatarURL
	}
	p.UpdatedAt = r.s.tick()
	r.s.profiles[userID] = p
	return nil
}

type memoryProjectRepository struct{ s *memoryStore }

func (r *memoryProjectRepository) Create(_ context.Context, in models.ProjectInsert) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.tick()
	p := models.Project{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		Name:        in.Name,
		Description: in.Description,
		IsPublic:    in.IsPublic,
		Metadata:    cloneMetadata(in.Metadata),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.projects[p.ID] = p
	return &p, nil
}

func (r *memoryProjectRepository) GetByID(_ context.Context, projectID string) (*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[projectID]
	if !ok {
		return nil, notFoundErr("project", projectID)
	}
	return &p, nil
}

func (r *memoryProjectRepository) GetByUserID(_ context.Context, userID string) ([]*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.Project{}
	for _, p := range r.s.projects {
		if p.UserID == userID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memoryProjectRepository) Update(_ context.Context, projectID string, update models.ProjectUpdate) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[projectID]
	if !ok {
		return nil, notFoundErr("project", projectID)
	}
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Description != nil {
		p.Description = update.Description
	}
	if update.IsPublic != nil {
		p.IsPublic = *update.IsPublic
	}
	if update.Metadata != nil {
		p.Metadata = cloneMetadata(update.Metadata)
	}
	p.UpdatedAt = r.s.tick()
	r.s.projects[projectID] = p
	return &p, nil
}

// Delete cascades to the project's chats and files like the SQL schema does.
func (r *memoryProjectRepository) Delete(_ context.Context, projectID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.projects, projectID)
	for id, c := range r.s.chats {
		if c.ProjectID == projectID {
			delete(r.s.chats, id)
		}
	}
	for id, f := range r.s.files {
		if f.ProjectID == projectID {
			delete(r.s.files, id)
		}
	}
	return nil
}

type memoryChatRepository struct{ s *memoryStore }

func (r *memoryChatRepository) Create(_ context.Context, in models.ChatInsert) (*models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.requireOwnedProject(in.ProjectID, in.UserID); err != nil {
		return nil, err
	}
	now := r.s.tick()
	c := models.Chat{
		ID:        uuid.NewString(),
		ProjectID: in.ProjectID,
		UserID:    in.UserID,
		Title:     in.Title,
		Messages:  cloneMessages(in.Messages),
		Metadata:  cloneMetadata(in.Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.chats[c.ID] = c
	return &c, nil
}

func (r *memoryChatRepository) GetByID(_ context.Context, chatID string) (*models.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.chats[chatID]
	if !ok {
		return nil, notFoundErr("chat", chatID)
	}
	c.Messages = cloneMessages(c.Messages)
	return &c, nil
}

func (r *memoryChatRepository) GetByProjectID(_ context.Context, projectID string) ([]*models.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.Chat{}
	for _, c := range r.s.chats {
		if c.ProjectID == projectID {
			c := c
			c.Messages = cloneMessages(c.Messages)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memoryChatRepository) Update(_ context.Context, chatID string, update models.ChatUpdate) (*models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.chats[chatID]
	if !ok {
		return nil, notFoundErr("chat", chatID)
	}
	if update.Title != nil {
		c.Title = *update.Title
	}
	if update.Messages != nil {
		c.Messages = cloneMessages(*update.Messages)
	}
	if update.Metadata != nil {
		c.Metadata = cloneMetadata(update.Metadata)
	}
	c.UpdatedAt = r.s.tick()
	r.s.chats[chatID] = c
	return &c, nil
}

func (r *memoryChatRepository) Delete(_ context.Context, chatID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.chats, chatID)
	return nil
}

type memoryFileRepository struct{ s *memoryStore }

func (r *memoryFileRepository) Upsert(_ context.Context, in models.FileInsert) (*models.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.requireOwnedProject(in.ProjectID, in.UserID); err != nil {
		return nil, err
	}
	in = in.Normalize()
	now := r.s.tick()
	id := fileDocID(in.ProjectID, in.Path)

	f, ok := r.s.files[id]
	if !ok {
		f = models.File{ID: id, ProjectID: in.ProjectID, Path: in.Path, CreatedAt: now}
	}
	f.UserID = in.UserID
	f.Content = in.Content
	f.Size = in.Size
	f.Metadata = cloneMetadata(in.Metadata)
	f.UpdatedAt = now
	r.s.files[id] = f
	return &f, nil
}

func (r *memoryFileRepository) GetByID(_ context.Context, fileID string) (*models.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.files[fileID]
	if !ok {
		return nil, notFoundErr("file", fileID)
	}
	f.Metadata = cloneMetadata(f.Metadata)
	return &f, nil
}

func (r *memoryFileRepository) GetByProjectID(_ context.Context, projectID string) ([]*models.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.File{}
	for _, f := range r.s.files {
		if f.ProjectID == projectID {
			f := f
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memoryFileRepository) Delete(_ context.Context, fileID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.files, fileID)
	return nil
}

func (r *memoryFileRepository) DeleteByProjectID(_ context.Context, projectID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, f := range r.s.files {
		if f.ProjectID == projectID {
			delete(r.s.files, id)
		}
	}
	return nil
}
