package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tiagocruz3/Brainiacodelab/internal/core"
	"github.com/Tiagocruz3/Brainiacodelab/internal/db"
	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
)

// ProjectHandler serves projects and the chats and files inside them.
type ProjectHandler struct {
	storage core.StorageService
	log     *zap.Logger
}

func NewProjectHandler(storage core.StorageService, log *zap.Logger) *ProjectHandler {
	if storage == nil {
		panic("StorageService cannot be nil for ProjectHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ProjectHandler{storage: storage, log: log.Named("project_handler")}
}

// ownedProject loads the project named by the :projectId parameter and
// replies 404 when it is missing or belongs to someone else.
func (h *ProjectHandler) ownedProject(c *gin.Context, user *models.User) (*models.Project, bool) {
	projectID := c.Param("projectId")
	project, err := h.storage.GetProject(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, h.log, err)
		return nil, false
	}
	if project == nil || project.UserID != user.ID {
		writeError(c, h.log, db.ErrNotFound)
		return nil, false
	}
	return project, true
}

func (h *ProjectHandler) requireUser(c *gin.Context) (*models.User, bool) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: core.ErrNotAuthenticated.Error()})
	}
	return user, ok
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	projects, err := h.storage.GetUserProjects(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	project, err := h.storage.CreateProject(c.Request.Context(), models.ProjectInsert{
		UserID:      user.ID,
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if project == nil {
		writeError(c, h.log, core.ErrCreateProjectFailed)
		return
	}

	h.log.Info("Project created", zap.String("project_id", project.ID), zap.String("user_id", user.ID))
	c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	project, ok := h.ownedProject(c, user)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	var update models.ProjectUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, err)
		return
	}

	project, ok := h.ownedProject(c, user)
	if !ok {
		return
	}

	updated, err := h.storage.UpdateProject(c.Request.Context(), project.ID, update)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if updated == nil {
		writeError(c, h.log, db.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	project, ok := h.ownedProject(c, user)
	if !ok {
		return
	}

	if err := h.storage.DeleteProject(c.Request.Context(), project.ID); err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info("Project deleted", zap.String("project_id", project.ID), zap.String("user_id", user.ID))
	c.Status(http.StatusNoContent)
}

func (h *ProjectHandler) ListProjectChats(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	project, ok := h.ownedProject(c, user)
	if !ok {
		return
	}

	chats, err := h.storage.GetProjectChats(c.Request.Context(), project.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

func (h *ProjectHandler) ListProjectFiles(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	project, ok := h.ownedProject(c, user)
	if !ok {
		return
	}

	files, err := h.storage.GetProjectFiles(c.Request.Context(), project.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// SaveFile creates or replaces the file at the given path of the project.
func (h *ProjectHandler) SaveFile(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req models.SaveFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	project, ok := h.ownedProject(c, user)
	if !ok {
		return
	}

	file, err := h.storage.SaveFile(c.Request.Context(), models.FileInsert{
		ProjectID: project.ID,
		UserID:    user.ID,
		Path:      req.Path,
		Content:   req.Content,
		Metadata:  req.Metadata,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if file == nil {
		writeError(c, h.log, errors.New("file was not saved"))
		return
	}
	c.JSON(http.StatusOK, file)
}

func (h *ProjectHandler) DeleteProjectFiles(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	project, ok := h.ownedProject(c, user)
	if !ok {
		return
	}

	if err := h.storage.DeleteProjectFiles(c.Request.Context(), project.ID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteFile removes a single file by id. A file of another user is
// reported as not found.
func (h *ProjectHandler) DeleteFile(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	fileID := c.Param("fileId")
	file, err := h.storage.GetFile(c.Request.Context(), fileID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if file == nil || file.UserID != user.ID {
		writeError(c, h.log, db.ErrNotFound)
		return
	}
	if err := h.storage.DeleteFile(c.Request.Context(), file.ID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
