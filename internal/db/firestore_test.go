package db

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
)

func TestFileDocID_DeterministicPerProjectAndPath(t *testing.T) {
	a := fileDocID("p1", "src/main.go")
	assert.Equal(t, a, fileDocID("p1", "src/main.go"))
	assert.NotEqual(t, a, fileDocID("p2", "src/main.go"))
	assert.NotEqual(t, a, fileDocID("p1", "src/other.go"))
	// The separator keeps ("p1", "/x") and ("p1/", "x") apart.
	assert.NotEqual(t, fileDocID("p1", "/x"), fileDocID("p1/", "x"))
}

// The list queries filter on one field and order by updated_at, which
// Firestore only serves with a composite index.
func TestFirestoreIndexes_CoverListQueries(t *testing.T) {
	raw, err := os.ReadFile("../../firestore.indexes.json")
	require.NoError(t, err)

	var cfg struct {
		Indexes []struct {
			CollectionGroup string `json:"collectionGroup"`
			Fields          []struct {
				FieldPath string `json:"fieldPath"`
				Order     string `json:"order"`
			} `json:"fields"`
		} `json:"indexes"`
	}
	require.NoError(t, json.Unmarshal(raw, &cfg))

	got := map[string][]string{}
	for _, idx := range cfg.Indexes {
		for _, f := range idx.Fields {
			got[idx.CollectionGroup] = append(got[idx.CollectionGroup], f.FieldPath+" "+f.Order)
		}
	}
	assert.Equal(t, []string{"user_id ASCENDING", "updated_at DESCENDING"}, got[projectsTable])
	assert.Equal(t, []string{"project_id ASCENDING", "updated_at DESCENDING"}, got[chatsTable])
	assert.Equal(t, []string{"project_id ASCENDING", "updated_at DESCENDING"}, got[filesTable])
}

// The Firestore tests need the emulator (FIRESTORE_EMULATOR_HOST).
func newEmulatorRepositories(t *testing.T) *Repositories {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := InitFirestore(ctx, FirestoreConfig{ProjectID: "brainiacodelab-test"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	repos, err := NewFirestoreRepositories(client, zap.NewNop())
	require.NoError(t, err)
	return repos
}

func TestFirestore_ProjectChatFileLifecycle(t *testing.T) {
	repos := newEmulatorRepositories(t)
	ctx := context.Background()
	userID := "user-" + uuid.NewString()

	project, err := repos.Projects.Create(ctx, models.ProjectInsert{UserID: userID, Name: "demo"})
	require.NoError(t, err)
	assert.NotEmpty(t, project.ID)
	assert.False(t, project.CreatedAt.IsZero())

	_, err = repos.Chats.Create(ctx, models.ChatInsert{ProjectID: project.ID, UserID: "intruder", Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repos.Files.Upsert(ctx, models.FileInsert{ProjectID: project.ID, UserID: "intruder", Path: "x.txt"})
	assert.ErrorIs(t, err, ErrNotFound)

	chat, err := repos.Chats.Create(ctx, models.ChatInsert{ProjectID: project.ID, UserID: userID, Title: "first"})
	require.NoError(t, err)

	title := "renamed"
	chat, err = repos.Chats.Update(ctx, chat.ID, models.ChatUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", chat.Title)

	chats, err := repos.Chats.GetByProjectID(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, chats, 1)

	f1, err := repos.Files.Upsert(ctx, models.FileInsert{ProjectID: project.ID, UserID: userID, Path: "a.txt", Content: "one"})
	require.NoError(t, err)
	f2, err := repos.Files.Upsert(ctx, models.FileInsert{ProjectID: project.ID, UserID: userID, Path: "a.txt", Content: "three"})
	require.NoError(t, err)
	assert.Equal(t, f1.ID, f2.ID)
	assert.Equal(t, "three", f2.Content)
	assert.Equal(t, int64(5), f2.Size)

	got, err := repos.Files.GetByID(ctx, f1.ID)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)

	require.NoError(t, repos.Files.DeleteByProjectID(ctx, project.ID))
	files, err := repos.Files.GetByProjectID(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, repos.Projects.Delete(ctx, project.ID))
	_, err = repos.Projects.GetByID(ctx, project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFirestore_UpdateMissingChat(t *testing.T) {
	repos := newEmulatorRepositories(t)
	title := "x"
	_, err := repos.Chats.Update(context.Background(), uuid.NewString(), models.ChatUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}
