package db

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
	"github.com/Tiagocruz3/Brainiacodelab/internal/supabase"
)

func newTestRepositories(t *testing.T, h http.HandlerFunc) *Repositories {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client, err := supabase.New(supabase.Config{URL: srv.URL, AnonKey: "anon"}, zap.NewNop())
	require.NoError(t, err)
	return NewPostgrestRepositories(client)
}

func respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestPostgrestProfile_GetByIDNotFound(t *testing.T) {
	repos := newTestRepositories(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("id"))
		respond(w, http.StatusNotAcceptable, map[string]string{"code": "PGRST116", "message": "no rows"})
	})

	_, err := repos.Profiles.GetByID(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgrestProfile_UpdateSendsOnlySetFields(t *testing.T) {
	repos := newTestRepositories(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"username": "ada"}, body)
		w.WriteHeader(http.StatusNoContent)
	})

	name := "ada"
	require.NoError(t, repos.Profiles.Update(context.Background(), "user-1", models.ProfileUpdate{Username: &name}))
}

func TestPostgrestProject_CreateReturnsRow(t *testing.T) {
	repos := newTestRepositories(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body models.ProjectInsert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "demo", body.Name)
		respond(w, http.StatusCreated, models.Project{ID: "p1", UserID: body.UserID, Name: body.Name})
	})

	p, err := repos.Projects.Create(context.Background(), models.ProjectInsert{UserID: "user-1", Name: "demo"})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "user-1", p.UserID)
}

func TestPostgrestProject_GetByUserIDOrdersNewestFirst(t *testing.T) {
	repos := newTestRepositories(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "updated_at.desc", r.URL.Query().Get("order"))
		respond(w, http.StatusOK, []models.Project{{ID: "p2"}, {ID: "p1"}})
	})

	projects, err := repos.Projects.GetByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "p2", projects[0].ID)
}

func TestPostgrestChat_CreateNeverSendsNullMessages(t *testing.T) {
	repos := newTestRepositories(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []interface{}{}, body["messages"])
		respond(w, http.StatusCreated, models.Chat{ID: "c1", ProjectID: "p1"})
	})

	c, err := repos.Chats.Create(context.Background(), models.ChatInsert{ProjectID: "p1", UserID: "user-1", Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
}

func TestPostgrestChat_UpdateMissingChat(t *testing.T) {
	repos := newTestRepositories(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusNotAcceptable, map[string]string{"code": "PGRST116", "message": "no rows"})
	})

	title := "x"
	_, err := repos.Chats.Update(context.Background(), "missing", models.ChatUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgrestFile_UpsertOnProjectAndPath(t *testing.T) {
	repos := newTestRepositories(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "project_id,path", r.URL.Query().Get("on_conflict"))
		var body models.FileInsert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(5), body.Size)
		respond(w, http.StatusCreated, models.File{ID: "f1", Path: body.Path, Size: body.Size})
	})

	f, err := repos.Files.Upsert(context.Background(), models.FileInsert{ProjectID: "p1", Path: "a.txt", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "f1", f.ID)
	assert.Equal(t, int64(5), f.Size)
}

func TestPostgrestFile_GetByIDNotFound(t *testing.T) {
	repos := newTestRepositories(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.f1", r.URL.Query().Get("id"))
		respond(w, http.StatusNotAcceptable, map[string]string{"code": "PGRST116", "message": "no rows"})
	})

	_, err := repos.Files.GetByID(context.Background(), "f1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgrestFile_DeleteByProjectID(t *testing.T) {
	repos := newTestRepositories(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq.p1", r.URL.Query().Get("project_id"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, repos.Files.DeleteByProjectID(context.Background(), "p1"))
}

func TestPostgrest_BackendErrorsPassThrough(t *testing.T) {
	repos := newTestRepositories(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusForbidden, map[string]string{"code": "42501", "message": "permission denied for table projects"})
	})

	_, err := repos.Projects.GetByUserID(context.Background(), "user-1")
	var apiErr *supabase.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "42501", apiErr.Code)
}
