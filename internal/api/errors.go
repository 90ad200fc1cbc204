package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tiagocruz3/Brainiacodelab/internal/core"
	"github.com/Tiagocruz3/Brainiacodelab/internal/db"
	"github.com/Tiagocruz3/Brainiacodelab/internal/middleware"
	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
	"github.com/Tiagocruz3/Brainiacodelab/internal/persistence"
	"github.com/Tiagocruz3/Brainiacodelab/internal/supabase"
)

// writeError maps service errors to HTTP status codes. Backend client errors
// keep their status and message so the UI can show them unchanged.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var apiErr *supabase.APIError

	switch {
	case errors.Is(err, core.ErrClientNotInitialized):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: core.ErrClientNotInitialized.Error()})
	case errors.Is(err, core.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: core.ErrNotAuthenticated.Error()})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found", Details: err.Error()})
	case errors.Is(err, persistence.ErrQueueClosed):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Server is shutting down"})
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		c.JSON(apiErr.Status, ErrorResponse{Error: apiErr.Message, Details: apiErr.Code})
	default:
		log.Error("Internal Server Error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
}

// currentUser returns the user RequireAuth stored in the context.
func currentUser(c *gin.Context) (*models.User, bool) {
	raw, exists := c.Get(middleware.ContextUser)
	if !exists {
		return nil, false
	}
	user, ok := raw.(*models.User)
	return user, ok && user != nil
}
