package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
)

func TestMemory_ProjectsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()

	a, err := repos.Projects.Create(ctx, models.ProjectInsert{UserID: "u1", Name: "a"})
	require.NoError(t, err)
	b, err := repos.Projects.Create(ctx, models.ProjectInsert{UserID: "u1", Name: "b"})
	require.NoError(t, err)
	_, err = repos.Projects.Create(ctx, models.ProjectInsert{UserID: "u2", Name: "other"})
	require.NoError(t, err)

	projects, err := repos.Projects.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, b.ID, projects[0].ID)

	name := "a2"
	_, err = repos.Projects.Update(ctx, a.ID, models.ProjectUpdate{Name: &name})
	require.NoError(t, err)

	projects, err = repos.Projects.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, projects[0].ID)
	assert.Equal(t, "a2", projects[0].Name)
}

func TestMemory_FileUpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	p, err := repos.Projects.Create(ctx, models.ProjectInsert{UserID: "u1", Name: "p"})
	require.NoError(t, err)

	f1, err := repos.Files.Upsert(ctx, models.FileInsert{ProjectID: p.ID, UserID: "u1", Path: "a.txt", Content: "one"})
	require.NoError(t, err)
	f2, err := repos.Files.Upsert(ctx, models.FileInsert{ProjectID: p.ID, UserID: "u1", Path: "a.txt", Content: "three"})
	require.NoError(t, err)

	assert.Equal(t, f1.ID, f2.ID)
	assert.Equal(t, f1.CreatedAt, f2.CreatedAt)
	assert.Equal(t, int64(5), f2.Size)

	files, err := repos.Files.GetByProjectID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestMemory_ChatRequiresProject(t *testing.T) {
	repos := NewMemoryRepositories()
	_, err := repos.Chats.Create(context.Background(), models.ChatInsert{ProjectID: "missing"})
	assert.Error(t, err)
}

func TestMemory_DeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	p, err := repos.Projects.Create(ctx, models.ProjectInsert{UserID: "u1", Name: "p"})
	require.NoError(t, err)
	c, err := repos.Chats.Create(ctx, models.ChatInsert{ProjectID: p.ID, UserID: "u1"})
	require.NoError(t, err)

	require.NoError(t, repos.Projects.Delete(ctx, p.ID))
	_, err = repos.Chats.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ChatAndFileRequireOwnedProject(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	p, err := repos.Projects.Create(ctx, models.ProjectInsert{UserID: "u1", Name: "p"})
	require.NoError(t, err)

	_, err = repos.Chats.Create(ctx, models.ChatInsert{ProjectID: p.ID, UserID: "u2", Title: "t"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repos.Files.Upsert(ctx, models.FileInsert{ProjectID: p.ID, UserID: "u2", Path: "a.txt"})
	assert.ErrorIs(t, err, ErrNotFound)

	chats, err := repos.Chats.GetByProjectID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestMemory_FileGetByID(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	p, err := repos.Projects.Create(ctx, models.ProjectInsert{UserID: "u1", Name: "p"})
	require.NoError(t, err)
	f, err := repos.Files.Upsert(ctx, models.FileInsert{ProjectID: p.ID, UserID: "u1", Path: "a.txt", Content: "one"})
	require.NoError(t, err)

	got, err := repos.Files.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "one", got.Content)

	_, err = repos.Files.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
