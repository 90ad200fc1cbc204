package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tiagocruz3/Brainiacodelab/internal/authstate"
	"github.com/Tiagocruz3/Brainiacodelab/internal/config"
	"github.com/Tiagocruz3/Brainiacodelab/internal/core"
	"github.com/Tiagocruz3/Brainiacodelab/internal/middleware"
	"github.com/Tiagocruz3/Brainiacodelab/internal/persistence"
)

// SetupRoutes registers every endpoint on router. Global middleware (logging,
// recovery, CORS) is expected to be attached by the caller.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	authService core.AuthService,
	storageService core.StorageService,
	syncService *persistence.Service,
	store *authstate.Store,
) {
	authMW := middleware.NewAuthMiddleware(store, appConfig.SupabaseJWTSecret, logger)

	authHandler := NewAuthHandler(authService, store, logger)
	projectHandler := NewProjectHandler(storageService, logger)
	chatHandler := NewChatHandler(syncService, storageService, logger)

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.SignUp)
			authGroup.POST("/signin", authHandler.SignIn)
			authGroup.POST("/signout", authHandler.SignOut)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
			authGroup.GET("/session", authHandler.GetSession)
			authGroup.GET("/me", authHandler.GetCurrentUser)
			authGroup.GET("/state", authHandler.GetState)
			authGroup.GET("/state/stream", authHandler.StreamState)
			authGroup.PUT("/profile", authMW.RequireAuth(), authHandler.UpdateProfile)
		}

		projectsGroup := apiV1.Group("/projects", authMW.RequireAuth())
		{
			projectsGroup.GET("", projectHandler.ListProjects)
			projectsGroup.POST("", projectHandler.CreateProject)
			projectsGroup.GET("/:projectId", projectHandler.GetProject)
			projectsGroup.PUT("/:projectId", projectHandler.UpdateProject)
			projectsGroup.DELETE("/:projectId", projectHandler.DeleteProject)
			projectsGroup.GET("/:projectId/chats", projectHandler.ListProjectChats)
			projectsGroup.GET("/:projectId/files", projectHandler.ListProjectFiles)
			projectsGroup.PUT("/:projectId/files", projectHandler.SaveFile)
			projectsGroup.DELETE("/:projectId/files", projectHandler.DeleteProjectFiles)
		}

		apiV1.DELETE("/files/:fileId", authMW.RequireAuth(), projectHandler.DeleteFile)

		chatsGroup := apiV1.Group("/chats", authMW.RequireAuth())
		{
			chatsGroup.GET("", chatHandler.ListChats)
			chatsGroup.POST("", chatHandler.SaveChat)
			chatsGroup.PUT("/sync", chatHandler.SyncChat)
			chatsGroup.POST("/autosync", chatHandler.AutoSync)
			chatsGroup.GET("/:chatId", chatHandler.GetChat)
			chatsGroup.DELETE("/:chatId", chatHandler.DeleteChat)
		}

		apiV1.GET("/sync/status", authMW.RequireAuth(), chatHandler.QueueStatus)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Brainiacodelab backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
